package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xavierca1/leadbase/internal/bootstrap"
	"github.com/xavierca1/leadbase/internal/config"
	"github.com/xavierca1/leadbase/internal/search"
)

func newTestApp(t *testing.T) *bootstrap.App {
	t.Helper()
	app, err := bootstrap.Open(context.Background(), &config.Config{
		Store: config.StoreConfig{Driver: config.DriverMemory},
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func runCmd(t *testing.T, app *bootstrap.App, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(app)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const contacts = "First Name,Last Name,Email\n" +
	"Ana,Silva,ana@example.com\n" +
	"Bob,Lee,bob@example.com\n" +
	"Bad,Row,nope\n"

func TestIngestSearchAndTag(t *testing.T) {
	app := newTestApp(t)
	path := writeCSV(t, "summer-leads-2024-01-15.csv", contacts)

	out, err := runCmd(t, app, "", "ingest", path)
	require.NoError(t, err)
	assert.Contains(t, out, "campaign:   Summer Leads")
	assert.Contains(t, out, "new:        2")
	assert.Contains(t, out, `row 3: "nope"`)

	out, err = runCmd(t, app, "", "ingest", path, "--campaign", "Fall")
	require.NoError(t, err)
	assert.Contains(t, out, "duplicates: 2")

	out, err = runCmd(t, app, "", "search", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "ana@example.com")
	assert.Contains(t, out, "Ana Silva")
	assert.Contains(t, out, "Summer Leads, Fall")

	out, err = runCmd(t, app, "", "tag", "VIP", "BOB@example.com", "ghost@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "tagged 1 leads")

	out, err = runCmd(t, app, "", "campaigns")
	require.NoError(t, err)
	assert.Equal(t, "Fall\nSummer Leads\nVIP\n", out)

	out, err = runCmd(t, app, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "total leads:  2")

	out, err = runCmd(t, app, "", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "summer-leads-2024-01-15.csv")
}

func TestIngestPreviewAndClean(t *testing.T) {
	app := newTestApp(t)
	path := writeCSV(t, "contacts.csv", contacts)

	out, err := runCmd(t, app, "", "ingest", path, "--preview")
	require.NoError(t, err)
	assert.Contains(t, out, "email column: Email")
	assert.Contains(t, out, "valid:        2")

	_, err = runCmd(t, app, "", "ingest", writeCSV(t, "seed.csv", "email\nana@example.com\n"))
	require.NoError(t, err)

	clean := filepath.Join(t.TempDir(), "clean.csv")
	out, err = runCmd(t, app, "", "ingest", path, "--clean-out", clean)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 1 new rows")

	data, err := os.ReadFile(clean)
	require.NoError(t, err)
	assert.Contains(t, string(data), "bob@example.com")
	assert.NotContains(t, string(data), "ana@example.com")

	count, _ := app.Leads.Count(context.Background())
	assert.Equal(t, int64(1), count)
}

func TestExportRoundTrip(t *testing.T) {
	app := newTestApp(t)
	_, err := runCmd(t, app, "", "ingest", writeCSV(t, "launch.csv", contacts))
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "out.csv")
	out, err := runCmd(t, app, "", "export", "--format", "email-only", "-o", dest, "--tag", "Exported")
	require.NoError(t, err)
	assert.Contains(t, out, "exported 2 leads")
	assert.Contains(t, out, `tagged 2 with "Exported"`)

	out, err = runCmd(t, app, "", "ingest", dest, "--campaign", "Again")
	require.NoError(t, err)
	assert.Contains(t, out, "new:        0")
	assert.Contains(t, out, "duplicates: 2")
}

func TestDeleteNotesAndPurge(t *testing.T) {
	app := newTestApp(t)
	_, err := runCmd(t, app, "", "ingest", writeCSV(t, "launch.csv", contacts))
	require.NoError(t, err)

	out, err := runCmd(t, app, "", "notes", "ana@example.com", "met at expo")
	require.NoError(t, err)
	assert.Contains(t, out, "notes saved")

	_, err = runCmd(t, app, "", "notes", "ghost@example.com", "x")
	assert.EqualError(t, err, "lead not found")

	out, err = runCmd(t, app, "", "delete", "ana@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 1 of 1")

	out, err = runCmd(t, app, "", "search", "ana")
	require.NoError(t, err)
	assert.Contains(t, out, "0 total")

	_, err = runCmd(t, app, "", "purge")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DELETE ALL LEADS")

	out, err = runCmd(t, app, "", "purge", "--confirm", "DELETE ALL LEADS")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 1 leads")
}

func TestInteractiveSearchRunsLastQuery(t *testing.T) {
	app := newTestApp(t)
	_, err := runCmd(t, app, "", "ingest", writeCSV(t, "launch.csv", contacts))
	require.NoError(t, err)

	out, err := runCmd(t, app, "a\nan\nbob\n", "search", "-i", "--debounce", "20ms", "--sort", "email")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "> "))
	assert.Contains(t, out, "> bob")
	assert.Contains(t, out, "1 matches")
}

func TestInteractiveSearchUsesConfiguredDebounce(t *testing.T) {
	app := newTestApp(t)
	app.Config.SearchDebounce = 20 * time.Millisecond
	_, err := runCmd(t, app, "", "ingest", writeCSV(t, "launch.csv", contacts))
	require.NoError(t, err)

	start := time.Now()
	out, err := runCmd(t, app, "a\nbob\n", "search", "-i")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), search.DefaultQuietWindow)
	assert.Equal(t, 1, strings.Count(out, "> "))
	assert.Contains(t, out, "> bob")
}

func TestMissingCredentials(t *testing.T) {
	t.Setenv("LEADBASE_CONFIG", "")
	t.Setenv("LEADBASE_STORE_DRIVER", "")
	t.Setenv(config.EnvStoreURL, "")
	t.Setenv(config.EnvStoreKey, "")
	wd, wdErr := os.Getwd()
	require.NoError(t, wdErr)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, err := runCmd(t, nil, "", "stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup required")
	assert.Contains(t, err.Error(), config.EnvStoreURL)
}
