package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/renova/internal/db"
	"github.com/erazemk/renova/internal/engine"
	"github.com/erazemk/renova/internal/model"
)

type testCLI struct {
	*cli
	out, errOut *bytes.Buffer
}

func newTestCLI(stdin string) testCLI {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return testCLI{
		cli:    &cli{stdin: strings.NewReader(stdin), stdout: out, stderr: errOut},
		out:    out,
		errOut: errOut,
	}
}

func openEngine(t *testing.T, path string) *engine.Engine {
	t.Helper()
	database, err := openDatabase(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return engine.New(context.Background(), database)
}

func TestHelp(t *testing.T) {
	c := newTestCLI("")
	assert.Equal(t, 0, c.run([]string{"help"}))
	assert.Contains(t, c.out.String(), "Usage: renova")

	c = newTestCLI("")
	assert.Equal(t, 0, c.run([]string{"init", "-h"}))
	assert.Contains(t, c.out.String(), "Commands:")
}

func TestUnknownCommand(t *testing.T) {
	c := newTestCLI("")
	assert.Equal(t, 1, c.run([]string{"frobnicate"}))
	assert.Contains(t, c.errOut.String(), "unknown command: frobnicate")
}

func TestInitCreatesAccounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renova.sqlite3")

	c := newTestCLI("")
	require.Equal(t, 0, c.run([]string{"init", "-d", path}), c.errOut.String())
	assert.Contains(t, c.out.String(), "Database created: "+path)

	passwords := map[string]string{}
	for _, line := range strings.Split(c.out.String(), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 3 && model.IsRole(fields[0]) {
			passwords[fields[1]] = fields[2]
		}
	}
	require.Len(t, passwords, 2)

	eng := openEngine(t, path)
	assert.Len(t, eng.Items(engine.ItemFilter{}), len(model.DefaultItems()))

	for username, password := range passwords {
		assert.Len(t, password, 16)
		_, err := eng.Authenticate(context.Background(), username, password)
		assert.NoError(t, err, username)
	}
	_, err := eng.Authenticate(context.Background(), "admin", "123")
	assert.ErrorIs(t, err, engine.ErrInvalidCredentials)
}

func TestInitRefusesExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renova.sqlite3")
	require.Equal(t, 0, newTestCLI("").run([]string{"init", "-d", path}))

	c := newTestCLI("")
	assert.Equal(t, 1, c.run([]string{"init", "-d", path}))
	assert.Contains(t, c.errOut.String(), "already exists")
}

func TestPasswd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renova.sqlite3")
	require.Equal(t, 0, newTestCLI("").run([]string{"init", "-d", path}))

	c := newTestCLI("s3cret-pass\ns3cret-pass\n")
	require.Equal(t, 0, c.run([]string{"passwd", "-d", path, "-u", "volunteer"}), c.errOut.String())
	assert.Contains(t, c.out.String(), "Password updated for volunteer.")

	eng := openEngine(t, path)
	u, err := eng.Authenticate(context.Background(), "volunteer", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, model.RoleVolunteer, u.Role)
}

func TestPasswdErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renova.sqlite3")
	require.Equal(t, 0, newTestCLI("").run([]string{"init", "-d", path}))

	tests := []struct {
		name  string
		args  []string
		stdin string
		want  string
	}{
		{"missing user flag", []string{"passwd", "-d", path}, "", "-u <username> required"},
		{"unknown user", []string{"passwd", "-d", path, "-u", "nobody"}, "a\na\n", "no such user"},
		{"mismatch", []string{"passwd", "-d", path, "-u", "admin"}, "one\ntwo\n", "do not match"},
		{"empty input", []string{"passwd", "-d", path, "-u", "admin"}, "", "reading password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCLI(tt.stdin)
			assert.Equal(t, 1, c.run(tt.args))
			assert.Contains(t, c.errOut.String(), tt.want)
		})
	}
}

func TestExportWritesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renova.sqlite3")
	require.Equal(t, 0, newTestCLI("").run([]string{"init", "-d", path}))

	eng := openEngine(t, path)
	_, err := eng.Borrow(context.Background(), model.Actor{}, engine.BorrowInput{
		ItemID:    "1",
		ClassName: "7B",
		Reason:    "Science lesson",
	})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "report.csv")
	c := newTestCLI("")
	require.Equal(t, 0, c.run([]string{"export", "-d", path, "-o", out, "-tz", "UTC"}), c.errOut.String())

	rows := readCSV(t, out)
	require.Len(t, rows, 2)
	assert.Equal(t, "User/Class", rows[0][1])
	assert.Equal(t, "7B", rows[1][1])
	assert.Equal(t, "Science lesson", rows[1][5])
}

func TestExportArchiveRequiresBucket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renova.sqlite3")
	require.Equal(t, 0, newTestCLI("").run([]string{"init", "-d", path}))

	c := newTestCLI("")
	assert.Equal(t, 1, c.run([]string{"export", "-d", path, "-archive"}))
}

func TestResetRequiresConfirmation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "renova.sqlite3")
	require.Equal(t, 0, newTestCLI("").run([]string{"init", "-d", path}))

	c := newTestCLI("")
	assert.Equal(t, 1, c.run([]string{"reset", "-d", path}))
	assert.Contains(t, c.errOut.String(), "-yes")

	c = newTestCLI("")
	assert.Equal(t, 0, c.run([]string{"reset", "-d", path, "-yes"}), c.errOut.String())
	assert.Contains(t, c.out.String(), "System reset.")
}

func TestGeneratePassword(t *testing.T) {
	a, err := generatePassword(16)
	require.NoError(t, err)
	b, err := generatePassword(16)
	require.NoError(t, err)

	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}

func TestOpenDatabaseMigrates(t *testing.T) {
	database, err := openDatabase(context.Background(), db.MemoryPath)
	require.NoError(t, err)
	defer database.Close()

	v, err := db.Version(context.Background(), database)
	require.NoError(t, err)
	assert.Positive(t, v)
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}
