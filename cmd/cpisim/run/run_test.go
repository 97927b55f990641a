package run

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.firedancer.io/cpi/pkg/accounts"
)

const derivedSigner = "../../../pkg/scenario/testdata/derived_signer.yaml"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	workers, dbPath, metricsAddr, maxCallDepth, format = 4, "", "", -1, "auto"
	var out bytes.Buffer
	Cmd.SetOut(&out)
	Cmd.SetErr(&out)
	Cmd.SetArgs(args)
	err := Cmd.Execute()
	return out.String(), err
}

func TestRun_Passing(t *testing.T) {
	out, err := execute(t, "--format", "yaml", derivedSigner)
	require.NoError(t, err)
	assert.Contains(t, out, "passed: true")
}

func TestRun_FailureClosesDatabase(t *testing.T) {
	dir := t.TempDir()
	doc, err := os.ReadFile(derivedSigner)
	require.NoError(t, err)
	failing := strings.Replace(string(doc), "{name: payer, lamports: 15}", "{name: payer, lamports: 1}", 1)
	path := filepath.Join(dir, "failing.yaml")
	require.NoError(t, os.WriteFile(path, []byte(failing), 0o644))

	dbPath := filepath.Join(dir, "accounts.db")
	out, err := execute(t, "--format", "text", "--db", dbPath, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 scenarios failed")
	assert.Contains(t, out, "FAIL")

	// the lock is released once the command returns
	db, err := accounts.OpenBoltAccounts(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestRun_UnknownFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", derivedSigner)
	assert.ErrorContains(t, err, "unknown output format")
}
