package resolver

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatzip/flatzip/internal/event"
	"github.com/flatzip/flatzip/internal/stats"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// listTree returns all dest-relative paths under root, dirs with a trailing slash.
func listTree(t *testing.T, root string) []string {
	t.Helper()
	var paths []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if info.IsDir() {
			rel += "/"
		}
		paths = append(paths, rel)
		return nil
	})
	require.NoError(t, err)
	return paths
}

func TestResolveIdentity(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")

	writeFile(t, filepath.Join(src, "notes.txt"), "hello")
	writeFile(t, filepath.Join(src, "sub", "deep", "data.bin"), "payload")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "empty"), 0755))

	r := New(Options{})
	require.NoError(t, r.Resolve(src, dst))

	assert.ElementsMatch(t, []string{
		"empty/",
		"notes.txt",
		"sub/",
		"sub/deep/",
		"sub/deep/data.bin",
	}, listTree(t, dst))
	assert.Equal(t, "hello", readFile(t, filepath.Join(dst, "notes.txt")))
	assert.Equal(t, "payload", readFile(t, filepath.Join(dst, "sub", "deep", "data.bin")))
}

func TestResolveEmptySource(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")

	r := New(Options{})
	require.NoError(t, r.Resolve(src, dst))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Empty(t, listTree(t, dst))
}

func TestResolveMissingSource(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out")

	r := New(Options{})
	err := r.Resolve(filepath.Join(t.TempDir(), "nope"), dst)

	var accessErr *AccessError
	require.ErrorAs(t, err, &accessErr)
}

func TestResolveShortcutToFile(t *testing.T) {
	src := t.TempDir()
	outside := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")

	writeFile(t, filepath.Join(outside, "report.pdf"), "pdf bytes")
	require.NoError(t, os.Symlink(filepath.Join(outside, "report.pdf"), filepath.Join(src, "Report")))

	r := New(Options{})
	require.NoError(t, r.Resolve(src, dst))

	// The shortcut's name carries the target's bytes; no link in the output.
	info, err := os.Lstat(filepath.Join(dst, "Report"))
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())
	assert.Equal(t, "pdf bytes", readFile(t, filepath.Join(dst, "Report")))
}

func TestResolveShortcutToDirectory(t *testing.T) {
	src := t.TempDir()
	outside := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")

	writeFile(t, filepath.Join(src, "notes.txt"), "notes")
	writeFile(t, filepath.Join(outside, "Docs", "report.pdf"), "report")
	writeFile(t, filepath.Join(outside, "Docs", "drafts", "a.txt"), "draft a")
	require.NoError(t, os.Symlink(filepath.Join(outside, "Docs"), filepath.Join(src, "Docs")))

	r := New(Options{})
	require.NoError(t, r.Resolve(src, dst))

	assert.ElementsMatch(t, []string{
		"Docs/",
		"Docs/drafts/",
		"Docs/drafts/a.txt",
		"Docs/report.pdf",
		"notes.txt",
	}, listTree(t, dst))
	assert.Equal(t, "report", readFile(t, filepath.Join(dst, "Docs", "report.pdf")))
}

func TestResolveShortcutInsideShortcutTarget(t *testing.T) {
	// The target directory itself contains a shortcut; resolution recurses.
	src := t.TempDir()
	outside := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")

	writeFile(t, filepath.Join(outside, "deep", "leaf.txt"), "leaf")
	writeFile(t, filepath.Join(outside, "Docs", "readme.md"), "readme")
	require.NoError(t, os.Symlink(filepath.Join(outside, "deep"), filepath.Join(outside, "Docs", "deep")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "Docs"), filepath.Join(src, "Docs")))

	r := New(Options{})
	require.NoError(t, r.Resolve(src, dst))

	assert.Equal(t, "leaf", readFile(t, filepath.Join(dst, "Docs", "deep", "leaf.txt")))
	assert.Equal(t, "readme", readFile(t, filepath.Join(dst, "Docs", "readme.md")))
}

func TestResolveChainedShortcut(t *testing.T) {
	src := t.TempDir()
	outside := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")

	writeFile(t, filepath.Join(outside, "real.txt"), "real")
	require.NoError(t, os.Symlink(filepath.Join(outside, "real.txt"), filepath.Join(outside, "mid")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "mid"), filepath.Join(src, "link")))

	r := New(Options{})
	require.NoError(t, r.Resolve(src, dst))

	assert.Equal(t, "real", readFile(t, filepath.Join(dst, "link")))
}

func TestResolveDanglingShortcutFailsByDefault(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")

	require.NoError(t, os.Symlink(filepath.Join(src, "gone"), filepath.Join(src, "broken")))

	r := New(Options{})
	err := r.Resolve(src, dst)

	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Contains(t, resErr.Path, "broken")
}

func TestResolveDanglingShortcutSkipBroken(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")

	writeFile(t, filepath.Join(src, "keep.txt"), "kept")
	require.NoError(t, os.Symlink(filepath.Join(src, "gone"), filepath.Join(src, "broken")))

	collector := stats.NewCollector()
	r := New(Options{SkipBroken: true, Stats: collector})
	require.NoError(t, r.Resolve(src, dst))

	assert.Equal(t, "kept", readFile(t, filepath.Join(dst, "keep.txt")))
	assert.NoFileExists(t, filepath.Join(dst, "broken"))
	assert.Equal(t, int64(1), collector.Snapshot().AliasesSkipped)
}

func TestResolveCycleFails(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")

	writeFile(t, filepath.Join(src, "sub", "a.txt"), "a")
	// sub/loop points back at the source root.
	require.NoError(t, os.Symlink(src, filepath.Join(src, "sub", "loop")))

	r := New(Options{})
	err := r.Resolve(src, dst)

	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Contains(t, cycleErr.Path, "loop")
}

func TestResolveSiblingShortcutsAreNotACycle(t *testing.T) {
	// Two shortcuts to the same directory are fine; only ancestors cycle.
	src := t.TempDir()
	outside := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")

	writeFile(t, filepath.Join(outside, "shared", "x.txt"), "x")
	require.NoError(t, os.Symlink(filepath.Join(outside, "shared"), filepath.Join(src, "one")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "shared"), filepath.Join(src, "two")))

	r := New(Options{})
	require.NoError(t, r.Resolve(src, dst))

	assert.Equal(t, "x", readFile(t, filepath.Join(dst, "one", "x.txt")))
	assert.Equal(t, "x", readFile(t, filepath.Join(dst, "two", "x.txt")))
}

func TestResolveIdempotent(t *testing.T) {
	src := t.TempDir()
	outside := t.TempDir()

	writeFile(t, filepath.Join(src, "a.txt"), "a")
	writeFile(t, filepath.Join(outside, "Docs", "b.txt"), "b")
	require.NoError(t, os.Symlink(filepath.Join(outside, "Docs"), filepath.Join(src, "Docs")))

	dst1 := filepath.Join(t.TempDir(), "out1")
	dst2 := filepath.Join(t.TempDir(), "out2")
	require.NoError(t, New(Options{}).Resolve(src, dst1))
	require.NoError(t, New(Options{}).Resolve(src, dst2))

	assert.Equal(t, listTree(t, dst1), listTree(t, dst2))
	assert.Equal(t, readFile(t, filepath.Join(dst1, "Docs", "b.txt")),
		readFile(t, filepath.Join(dst2, "Docs", "b.txt")))
}

// fixedResolver resolves every shortcut to the same target, proving the
// resolver core never talks to the OS alias machinery directly.
type fixedResolver struct {
	target string
	err    error
	calls  []string
}

func (f *fixedResolver) ResolveOriginal(shortcutPath string) (string, error) {
	f.calls = append(f.calls, shortcutPath)
	return f.target, f.err
}

func TestResolveInjectedResolver(t *testing.T) {
	src := t.TempDir()
	outside := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")

	writeFile(t, filepath.Join(outside, "substitute.txt"), "substituted")
	// The symlink points somewhere irrelevant; the injected resolver decides.
	require.NoError(t, os.Symlink(filepath.Join(src, "wherever"), filepath.Join(src, "alias")))

	fake := &fixedResolver{target: filepath.Join(outside, "substitute.txt")}
	r := New(Options{Aliases: fake})
	require.NoError(t, r.Resolve(src, dst))

	require.Len(t, fake.calls, 1)
	assert.Contains(t, fake.calls[0], "alias")
	assert.Equal(t, "substituted", readFile(t, filepath.Join(dst, "alias")))
}

func TestResolveInjectedResolverError(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")

	require.NoError(t, os.Symlink(filepath.Join(src, "x"), filepath.Join(src, "alias")))

	fake := &fixedResolver{err: errors.New("platform query failed")}
	r := New(Options{Aliases: fake})
	err := r.Resolve(src, dst)

	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
}

func TestResolveManifestRecordsOrigins(t *testing.T) {
	src := t.TempDir()
	outside := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")

	writeFile(t, filepath.Join(src, "plain.txt"), "p")
	writeFile(t, filepath.Join(outside, "target.txt"), "t")
	require.NoError(t, os.Symlink(filepath.Join(outside, "target.txt"), filepath.Join(src, "aliased")))

	r := New(Options{})
	require.NoError(t, r.Resolve(src, dst))

	m := r.Manifest()
	require.Len(t, m, 2)
	assert.Equal(t, filepath.Join(src, "plain.txt"), m["plain.txt"])

	wantTarget, err := filepath.EvalSymlinks(filepath.Join(outside, "target.txt"))
	require.NoError(t, err)
	assert.Equal(t, wantTarget, m["aliased"])
}

func TestResolveStatsAndEvents(t *testing.T) {
	src := t.TempDir()
	outside := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")

	writeFile(t, filepath.Join(src, "a.txt"), "a")
	writeFile(t, filepath.Join(src, "sub", "b.txt"), "bb")
	writeFile(t, filepath.Join(outside, "c.txt"), "ccc")
	require.NoError(t, os.Symlink(filepath.Join(outside, "c.txt"), filepath.Join(src, "c")))

	collector := stats.NewCollector()
	events := make(chan event.Event, 64)
	r := New(Options{Stats: collector, Events: events})
	require.NoError(t, r.Resolve(src, dst))
	close(events)

	s := collector.Snapshot()
	assert.Equal(t, int64(3), s.FilesCopied)
	assert.Equal(t, int64(6), s.BytesCopied)
	assert.Equal(t, int64(1), s.DirsCreated)
	assert.Equal(t, int64(1), s.AliasesResolved)

	var types []event.Type
	for ev := range events {
		types = append(types, ev.Type)
	}
	assert.Contains(t, types, event.ResolveStarted)
	assert.Contains(t, types, event.FileCopied)
	assert.Contains(t, types, event.DirCreated)
	assert.Contains(t, types, event.AliasResolved)
	assert.Contains(t, types, event.ResolveComplete)
}

func TestErrorMessages(t *testing.T) {
	wrapped := errors.New("boom")
	assert.Equal(t, "access /p: boom", (&AccessError{Path: "/p", Err: wrapped}).Error())
	assert.Equal(t, "write /p: boom", (&WriteError{Path: "/p", Err: wrapped}).Error())
	assert.Equal(t, "resolve shortcut /p: boom", (&ResolutionError{Path: "/p", Err: wrapped}).Error())
	assert.Equal(t, "shortcut cycle: /a points back into /b", (&CycleError{Path: "/a", Target: "/b"}).Error())

	assert.ErrorIs(t, &AccessError{Path: "/p", Err: wrapped}, wrapped)
	assert.ErrorIs(t, &WriteError{Path: "/p", Err: wrapped}, wrapped)
	assert.ErrorIs(t, &ResolutionError{Path: "/p", Err: wrapped}, wrapped)
}
