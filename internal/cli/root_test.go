package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evcraddock/sfa-backend/internal/db"
	"github.com/evcraddock/sfa-backend/internal/release"
	"github.com/evcraddock/sfa-backend/internal/visit"
)

// executeCommand runs a command with the given args and captures output.
func executeCommand(args ...string) (string, error) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// isolate keeps config lookup away from the developer's real files and
// returns a fresh SQLite path.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return filepath.Join(dir, "data", "sfa.db")
}

func TestRootHelp(t *testing.T) {
	_, err := executeCommand("--help")
	assert.NoError(t, err)
}

func TestGlobalFlags(t *testing.T) {
	root := NewRootCmd()

	formatFlag := root.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "db-driver", "dsn"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), "--%s", name)
	}
}

func TestSubcommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"serve", "migrate", "seed", "user", "visit", "apk", "push", "version"} {
		cmd, _, err := root.Find([]string{name})
		if assert.NoError(t, err, name) {
			assert.Equal(t, name, cmd.Name())
		}
	}
}

func TestVersion(t *testing.T) {
	out, err := executeCommand("version")
	require.NoError(t, err)
	assert.Equal(t, Version, strings.TrimSpace(out))
}

func TestMigrateCreatesDatabase(t *testing.T) {
	path := isolate(t)

	out, err := executeCommand("migrate", "--dsn", path)
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")
	assert.FileExists(t, path)
}

func TestMigrateUsesEnvDSN(t *testing.T) {
	path := isolate(t)
	t.Setenv("SFA_DB_DSN", path)

	_, err := executeCommand("migrate")
	require.NoError(t, err)
	assert.FileExists(t, path, "database not created at SFA_DB_DSN")
}

func TestUnknownDriver(t *testing.T) {
	isolate(t)
	_, err := executeCommand("migrate", "--db-driver", "oracle", "--dsn", "x")
	assert.Error(t, err)
}

func TestSeed(t *testing.T) {
	path := isolate(t)
	file := filepath.Join(t.TempDir(), "catalog.yaml")
	data := "features:\n  - id: F1\n    name: Display\n    details:\n      - id: D1\n        name: Rak\n        sub_details:\n          - id: S1\n            name: Produk\n"
	require.NoError(t, os.WriteFile(file, []byte(data), 0o600))

	out, err := executeCommand("seed", file, "--dsn", path, "--format", "json")
	require.NoError(t, err)
	var res struct{ Features, Details, SubDetails int }
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.Equal(t, 1, res.Features)
	assert.Equal(t, 1, res.Details)
	assert.Equal(t, 1, res.SubDetails)
}

func TestSeedRequiresFile(t *testing.T) {
	isolate(t)
	_, err := executeCommand("seed")
	assert.Error(t, err)
}

func TestUserAdd(t *testing.T) {
	path := isolate(t)

	out, err := executeCommand("user", "add", "budi", "--spv", "SPV1", "--password", "rahasia", "--sales", "--dsn", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Added sales budi")

	_, err = executeCommand("user", "add", "budi", "--spv", "SPV1", "--password", "x", "--dsn", path)
	assert.Error(t, err, "duplicate user")

	_, err = executeCommand("user", "passwd", "budi", "--password", "baru", "--dsn", path)
	assert.NoError(t, err)
}

func TestUserAddRequiresFlags(t *testing.T) {
	path := isolate(t)
	_, err := executeCommand("user", "add", "budi", "--dsn", path)
	assert.Error(t, err)
}

func TestVisitShow(t *testing.T) {
	path := isolate(t)

	d, err := db.OpenSQLite(path)
	require.NoError(t, err)
	lat, lng := -6.2, 106.8
	p := &visit.Payload{
		VisitID: "V1", Date: "2024-01-01", SupervisorID: "SPV1", CustomerID: "C1",
		Latitude: &lat, Longitude: &lng,
		Start: "2024-01-01T09:00:00", End: "2024-01-01T09:30:00",
		FeatureID: "F1", SalesID: "SLS1", CallNumber: "N1",
		Details: []visit.Detail{{DetailID: "D1", SubDetails: []visit.SubDetail{{SubDetailID: "S1", Checked: true}}}},
	}
	_, err = visit.NewCoordinator(visit.NewSQLProvider(d)).Submit(context.Background(), p)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	out, err := executeCommand("visit", "show", "V1", "--dsn", path)
	require.NoError(t, err)
	for _, want := range []string{"Visit V1", "C1", "D1", "S1", "yes", "Total: 1 entries"} {
		assert.Contains(t, out, want)
	}

	_, err = executeCommand("visit", "show", "V9", "--dsn", path)
	assert.Error(t, err, "unknown visit")
}

func TestAPKCommands(t *testing.T) {
	path := isolate(t)

	out, err := executeCommand("apk", "latest", "--dsn", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No versions published")

	out, err = executeCommand("apk", "add", "1.0.0", "--code", "10", "--url", "https://example.com/sfa-10.apk", "--dsn", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Published 1.0.0 (code 10")

	out, err = executeCommand("apk", "add", "1.1.0", "--code", "11", "--url", "https://example.com/sfa-11.apk",
		"--force", "--notes", "foto toko", "--dsn", path, "--format", "json")
	require.NoError(t, err)
	var added release.Version
	require.NoError(t, json.Unmarshal([]byte(out), &added), out)
	assert.Equal(t, 1, added.IsForceUpdate)
	assert.Equal(t, "foto toko", added.ReleaseNotes)

	out, err = executeCommand("apk", "list", "--dsn", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1.0.0")
	assert.Contains(t, out, "1.1.0")

	out, err = executeCommand("apk", "latest", "--dsn", path, "--format", "json")
	require.NoError(t, err)
	var latest release.Version
	require.NoError(t, json.Unmarshal([]byte(out), &latest), out)
	assert.Equal(t, "1.1.0", latest.VersionName)

	_, err = executeCommand("apk", "rm", "abc", "--dsn", path)
	assert.Error(t, err)
}

func TestAPKAddRemove(t *testing.T) {
	path := isolate(t)

	out, err := executeCommand("apk", "add", "1.0.0", "--code", "10", "--url", "https://example.com/a.apk",
		"--dsn", path, "--format", "json")
	require.NoError(t, err)
	var v release.Version
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)

	out, err = executeCommand("apk", "rm", strconv.FormatInt(v.ID, 10), "--dsn", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed version")

	_, err = executeCommand("apk", "rm", strconv.FormatInt(v.ID, 10), "--dsn", path)
	assert.ErrorIs(t, err, release.ErrNotFound)
}

func TestAPKAddValidation(t *testing.T) {
	path := isolate(t)

	_, err := executeCommand("apk", "add", "1.0.0", "--code", "10", "--dsn", path)
	assert.Error(t, err, "--url is required")

	_, err = executeCommand("apk", "add", "1.0.0", "--code", "10", "--url", "/local/a.apk", "--dsn", path)
	assert.ErrorIs(t, err, release.ErrInvalid)
}

func TestServeRequiresSecret(t *testing.T) {
	path := isolate(t)
	t.Setenv("SFA_AUTH_JWT_SECRET", "")

	_, err := executeCommand("serve", "--dsn", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}
