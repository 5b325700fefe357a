package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatzip/flatzip/internal/config"
)

func newTestCmd(t *testing.T, skipBroken, verify, quiet, verbose *bool, cliArgs ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "flatzip"}
	cmd.Flags().BoolVar(skipBroken, "skip-broken", false, "")
	cmd.Flags().BoolVar(verify, "verify", false, "")
	cmd.Flags().BoolVarP(quiet, "quiet", "q", false, "")
	cmd.Flags().BoolVarP(verbose, "verbose", "v", false, "")
	require.NoError(t, cmd.ParseFlags(cliArgs))
	return cmd
}

func boolPtr(b bool) *bool { return &b }

func TestApplyConfigDefaultsUnsetFlags(t *testing.T) {
	var skipBroken, verify, quiet, verbose bool
	cmd := newTestCmd(t, &skipBroken, &verify, &quiet, &verbose)

	applyConfigDefaults(cmd, config.DefaultsConfig{
		SkipBroken: boolPtr(true),
		Verify:     boolPtr(true),
	}, &skipBroken, &verify, &quiet, &verbose)

	assert.True(t, skipBroken)
	assert.True(t, verify)
	// No config default, no CLI flag: untouched.
	assert.False(t, quiet)
	assert.False(t, verbose)
}

func TestApplyConfigDefaultsCLIWins(t *testing.T) {
	// An explicitly set flag keeps its CLI value even when the config
	// file says otherwise.
	var skipBroken, verify, quiet, verbose bool
	cmd := newTestCmd(t, &skipBroken, &verify, &quiet, &verbose, "--verify=false", "-q")

	applyConfigDefaults(cmd, config.DefaultsConfig{
		Verify: boolPtr(true),
		Quiet:  boolPtr(false),
	}, &skipBroken, &verify, &quiet, &verbose)

	assert.False(t, verify)
	assert.True(t, quiet)
}

func TestApplyConfigDefaultsEmptyConfig(t *testing.T) {
	var skipBroken, verify, quiet, verbose bool
	cmd := newTestCmd(t, &skipBroken, &verify, &quiet, &verbose)

	applyConfigDefaults(cmd, config.DefaultsConfig{}, &skipBroken, &verify, &quiet, &verbose)

	assert.False(t, skipBroken)
	assert.False(t, verify)
	assert.False(t, quiet)
	assert.False(t, verbose)
}

func TestRootArgs(t *testing.T) {
	showVersion := false
	validate := rootArgs(&showVersion)
	cmd := &cobra.Command{Use: "flatzip"}

	require.NoError(t, validate(cmd, []string{"folder"}))

	err := validate(cmd, nil)
	var usageErr *usageError
	require.ErrorAs(t, err, &usageErr)

	err = validate(cmd, []string{"a", "b"})
	require.ErrorAs(t, err, &usageErr)

	// --version needs no positional argument.
	showVersion = true
	require.NoError(t, validate(cmd, nil))
}

func TestUsageErrorUnwrap(t *testing.T) {
	inner := errors.New("accepts 1 arg(s), received 0")
	err := &usageError{err: inner}
	assert.Equal(t, inner.Error(), err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestResolveArchivePathOutputFlag(t *testing.T) {
	dir := t.TempDir()

	got, err := resolveArchivePath("/home/u/Desktop/MyFolder", filepath.Join(dir, "bundle"), nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bundle.zip"), got)

	got, err = resolveArchivePath("/home/u/Desktop/MyFolder", filepath.Join(dir, "bundle.zip"), nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bundle.zip"), got)
}

func TestResolveArchivePathConfigDir(t *testing.T) {
	dir := t.TempDir()

	got, err := resolveArchivePath("/home/u/Desktop/MyFolder", "", &dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "MyFolder.zip"), got)
}

func TestResolveArchivePathDefault(t *testing.T) {
	got, err := resolveArchivePath("/home/u/Desktop/MyFolder", "", nil)
	require.NoError(t, err)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "MyFolder.zip"), got)
}
