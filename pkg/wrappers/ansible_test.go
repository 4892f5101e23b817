package wrappers

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/user/stigctl/pkg/engine"
)

func testRunner() *PlaybookRunner {
	return &PlaybookRunner{
		Playbook:         "site.yml",
		Inventory:        "inventory.yml",
		Limit:            "esxi01",
		DisabledVarsFile: "/tmp/disabled.yaml",
		SkipTags:         []string{"snapshot", "audit"},
	}
}

func TestCommandScopesToOneRule(t *testing.T) {
	target := engine.Target{
		Host:        "esxi01",
		RuleID:      "256376",
		RuleVersion: "ESXI-70-000001",
		ManageVar:   "esxi_70_000001_Manage",
	}
	args := testRunner().Command(target)

	assert.Equal(t, "ansible-playbook", args[0])
	assert.Equal(t, "site.yml", args[1])
	assert.Contains(t, args, "-i")
	assert.Contains(t, args, "inventory.yml")
	assert.Contains(t, args, "-l")
	assert.Contains(t, args, "esxi01")

	// The all-disabled vars file comes first; the single re-enable
	// override after it wins, scoping the run to exactly one rule.
	joined := strings.Join(args, " ")
	disabledAt := strings.Index(joined, "-e@/tmp/disabled.yaml")
	enableAt := strings.Index(joined, "-eesxi_70_000001_Manage=true")
	require.GreaterOrEqual(t, disabledAt, 0)
	require.GreaterOrEqual(t, enableAt, 0)
	assert.Less(t, disabledAt, enableAt)

	assert.Contains(t, args, "-estig_enable_hardening=true")
	assert.Contains(t, args, "-estig_target_hosts=['esxi01']")
	assert.Contains(t, args, "--skip-tags")
	assert.Contains(t, args, "snapshot,audit")
}

func TestCommandAppendsExtraVars(t *testing.T) {
	r := testRunner()
	r.ExtraVars = []string{"ntp_servers=['10.0.0.1']"}
	args := r.Command(engine.Target{Host: "esxi01", ManageVar: "x_Manage"})
	assert.Equal(t, "ntp_servers=['10.0.0.1']", args[len(args)-1])
	assert.Equal(t, "-e", args[len(args)-2])
}

func TestDescribeMatchesCommand(t *testing.T) {
	target := engine.Target{Host: "esxi01", RuleVersion: "ESXI-70-000001", ManageVar: "esxi_70_000001_Manage"}
	r := testRunner()
	assert.Equal(t, strings.Join(r.Command(target), " "), r.Describe(target))
}

func TestWriteDisabledVarsFile(t *testing.T) {
	path, err := WriteDisabledVarsFile(map[string]bool{
		"esxi_70_000001_Manage": false,
		"esxi_70_000002_Manage": false,
	})
	require.NoError(t, err)
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got map[string]bool
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Len(t, got, 2)
	for name, enabled := range got {
		assert.False(t, enabled, "var %s", name)
	}
}
