package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/user/stigctl/pkg/capture"
	"github.com/user/stigctl/pkg/logging"
	"github.com/user/stigctl/pkg/result"
)

var (
	captureEvents string
	captureMode   string
	captureOutDir string
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Turn an execution event stream into per-host raw result artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.InitLogger(DebugMode)
		defer log.Sync()

		mode := result.Mode(captureMode)
		if mode != result.ModeCheck && mode != result.ModeApply {
			return fmt.Errorf("invalid --mode %q: must be check or apply", captureMode)
		}

		var in io.Reader
		if captureEvents == "-" {
			in = os.Stdin
		} else {
			f, err := os.Open(captureEvents)
			if err != nil {
				return fmt.Errorf("opening event stream %s: %w", captureEvents, err)
			}
			defer f.Close()
			in = f
		}

		events, malformed, err := capture.ReadEvents(in)
		if err != nil {
			return fmt.Errorf("reading event stream: %w", err)
		}
		if malformed > 0 {
			log.Warnf("dropped %d malformed event line(s)", malformed)
		}

		streams, unattributed := capture.GroupByHost(events)
		if unattributed > 0 {
			log.Warnf("dropped %d event(s) with no attributable host", unattributed)
		}

		sets, ignored := capture.RunStreams(mode, streams)
		log.Debugf("processed %d event(s) across %d host(s), %d non-compliance event(s) ignored",
			len(events), len(sets), ignored)

		outDir := effectiveOutDir(cmd.Flags().Changed("out-dir"), captureOutDir)
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return fmt.Errorf("creating output dir %s: %w", outDir, err)
		}

		// One artifact per host: one host's write failure never blocks
		// the others.
		failures := 0
		for _, set := range sets {
			path := filepath.Join(outDir, fmt.Sprintf("raw_stig_%s.yaml", set.Host()))
			if err := result.SaveArtifact(path, set); err != nil {
				log.Errorf("host %s: %v", set.Host(), err)
				failures++
				continue
			}
			fmt.Printf("Wrote %d result(s) for %s to %s\n", set.Len(), set.Host(), path)
		}
		if failures == len(sets) && len(sets) > 0 {
			return fmt.Errorf("failed to write artifacts for all %d host(s)", failures)
		}
		return nil
	},
}

func init() {
	captureCmd.Flags().StringVar(&captureEvents, "events", "-", "Event stream file (JSON lines), or - for stdin")
	captureCmd.Flags().StringVar(&captureMode, "mode", "check", "Run mode that produced the events: check or apply")
	captureCmd.Flags().StringVar(&captureOutDir, "out-dir", ".artifacts", "Directory for raw per-host result artifacts")
	rootCmd.AddCommand(captureCmd)
}
