package rules_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"fjacquet/budget-csv/cmd/root"
	"fjacquet/budget-csv/cmd/rules"
	"fjacquet/budget-csv/internal/config"
	"fjacquet/budget-csv/internal/container"
	"fjacquet/budget-csv/internal/logging"
	"fjacquet/budget-csv/internal/store"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContainer(t *testing.T) *container.Container {
	t.Helper()
	c, err := container.NewContainerWithStore(config.Default(), store.NewMemoryStore(), logging.NewMockLogger())
	require.NoError(t, err)
	root.SetContainer(c)
	t.Cleanup(func() { root.AppContainer = nil })
	return c
}

func seed(t *testing.T, c *container.Container) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.GetStore().UpsertRule(ctx, root.DefaultUser, "starbucks", "coffee", 85.3))
	require.NoError(t, c.GetStore().UpsertRule(ctx, root.DefaultUser, "amazon", "shopping", 70))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd, rest, err := rules.Cmd.Find(args)
	require.NoError(t, err)
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	require.NoError(t, cmd.ParseFlags(rest))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	err = cmd.RunE(cmd, cmd.Flags().Args())
	return out.String(), err
}

func TestRulesList(t *testing.T) {
	c := newTestContainer(t)

	out, err := run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No rules learned yet")

	seed(t, c)
	out, err = run(t, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "PATTERN")
	assert.Contains(t, lines[1], "amazon")
	assert.Contains(t, lines[2], "starbucks")
	assert.Contains(t, lines[2], "85.3")

	out, err = run(t, "list", "--category", "coffee")
	require.NoError(t, err)
	assert.NotContains(t, out, "amazon")
	assert.Contains(t, out, "starbucks")
}

func TestRulesExportImport(t *testing.T) {
	c := newTestContainer(t)
	seed(t, c)

	out, err := run(t, "export")
	require.NoError(t, err)
	snap, err := store.ReadRuleSnapshot(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, root.DefaultUser, snap.UserID)
	require.Len(t, snap.Rules, 2)
	assert.Equal(t, store.RuleEntry{Pattern: "amazon", CategoryID: "shopping", Confidence: 70}, snap.Rules[0])

	path := filepath.Join(t.TempDir(), "backup", "rules.yaml")
	out, err = run(t, "export", "-o", path)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.FileExists(t, path)

	// Restore into an empty database.
	fresh := newTestContainer(t)
	out, err = run(t, "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "2 rules imported")

	restored, err := fresh.GetStore().FetchUserRules(context.Background(), root.DefaultUser)
	require.NoError(t, err)
	assert.Len(t, restored, 2)
}

func TestRulesImport_MissingFile(t *testing.T) {
	newTestContainer(t)
	_, err := run(t, "import", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
