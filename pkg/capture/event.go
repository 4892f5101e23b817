package capture

import (
	"bufio"
	"encoding/json"
	"io"
	"time"

	"github.com/user/stigctl/pkg/result"
)

// Event is one structured execution event emitted by the execution engine
// while auditing or hardening a host. Only events whose Name matches a
// registered rule pattern produce compliance results.
type Event struct {
	Name string `json:"name"`
	Host string `json:"host"`

	// TargetHost overrides Host for attribution. Required on platforms
	// where checks execute on a controller node but evaluate a different
	// remote target.
	TargetHost string `json:"target_host,omitempty"`

	Changed bool `json:"changed"`
	Failed  bool `json:"failed"`
	Skipped bool `json:"skipped"`

	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// AttributedHost returns the host this event's outcome belongs to: the
// explicit override when present, otherwise the host it executed on.
func (e Event) AttributedHost() string {
	if e.TargetHost != "" {
		return e.TargetHost
	}
	return e.Host
}

// rawEvent mirrors Event with a string timestamp, so an event with a
// malformed timestamp loses only the timestamp, not the whole event.
type rawEvent struct {
	Name       string `json:"name"`
	Host       string `json:"host"`
	TargetHost string `json:"target_host,omitempty"`
	Changed    bool   `json:"changed"`
	Failed     bool   `json:"failed"`
	Skipped    bool   `json:"skipped"`
	Detail     string `json:"detail,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// ReadEvents parses a JSON-lines event stream. Malformed lines are dropped
// and counted, never fatal; capture must not abort a run over a bad event.
func ReadEvents(r io.Reader) ([]Event, int, error) {
	var events []Event
	dropped := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var raw rawEvent
		if err := json.Unmarshal(line, &raw); err != nil {
			dropped++
			continue
		}
		events = append(events, Event{
			Name:       raw.Name,
			Host:       raw.Host,
			TargetHost: raw.TargetHost,
			Changed:    raw.Changed,
			Failed:     raw.Failed,
			Skipped:    raw.Skipped,
			Detail:     raw.Detail,
			Timestamp:  result.ParseTimestamp(raw.Timestamp),
		})
	}
	if err := scanner.Err(); err != nil {
		return events, dropped, err
	}
	return events, dropped, nil
}
