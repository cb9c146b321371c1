package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ThandieOps/muda/internal/host/hosttest"
	"github.com/ThandieOps/muda/internal/model"
	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChildDirs(t *testing.T) {
	h, _ := hosttest.New("/root", model.OSLinux)
	for _, d := range []string{"core", "app", "tests", "vendor", ".git", ".muda", "Docs"} {
		require.NoError(t, h.MkdirAll(d))
	}
	hosttest.WriteFile(h, "notes.txt", "file, not a dir")

	tests := []struct {
		name    string
		os      model.OS
		ignored []string
		want    []string
	}{
		{"no ignores", model.OSLinux, nil, []string{"Docs", "app", "core", "tests", "vendor"}},
		{"bare names", model.OSLinux, []string{"tests", "vendor"}, []string{"Docs", "app", "core"}},
		{"dotted names", model.OSLinux, []string{"./tests", `.\vendor`, "./core/"}, []string{"Docs", "app"}},
		{"case sensitive off windows", model.OSLinux, []string{"docs"}, []string{"Docs", "app", "core", "tests", "vendor"}},
		{"case insensitive on windows", model.OSWindows, []string{"docs", "./APP"}, []string{"core", "tests", "vendor"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.OS = tt.os
			got, err := ChildDirs(h, ".", tt.ignored)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChildDirsMissingDirectory(t *testing.T) {
	h, _ := hosttest.New("/root", model.OSLinux)
	_, err := ChildDirs(h, "nope", nil)
	assert.Error(t, err)
}

func TestCollectGitMetadata(t *testing.T) {
	plain := t.TempDir()
	assert.False(t, CollectGitMetadata(plain).IsGitRepo)

	repoDir := t.TempDir()
	_, err := git.PlainInit(repoDir, false)
	require.NoError(t, err)

	md := CollectGitMetadata(repoDir)
	assert.True(t, md.IsGitRepo)
	assert.False(t, md.HasUncommitted)
	assert.Empty(t, md.Commit)
}

func TestSummarizeStatusIsSortedAndCapped(t *testing.T) {
	status := git.Status{}
	for _, name := range []string{"g.c", "b.c", "f.c", "a.c", "e.c", "c.c", "d.c"} {
		status[name] = &git.FileStatus{Staging: git.Untracked, Worktree: git.Untracked}
	}
	status["b.c"] = &git.FileStatus{Staging: git.Unmodified, Worktree: git.Modified}

	want := "?? a.c;  M b.c; ?? c.c; ?? d.c; ?? e.c ... (2 more)"
	for i := 0; i < 10; i++ {
		require.Equal(t, want, summarizeStatus(status))
	}
	assert.Equal(t, "?? a.c", summarizeStatus(git.Status{"a.c": status["a.c"]}))
}

func TestCollectGitMetadataListsUncommittedFiles(t *testing.T) {
	repoDir := t.TempDir()
	_, err := git.PlainInit(repoDir, false)
	require.NoError(t, err)
	for _, name := range []string{"z.c", "m.c", "a.c"} {
		require.NoError(t, os.WriteFile(filepath.Join(repoDir, name), []byte("int x;\n"), 0644))
	}

	md := CollectGitMetadata(repoDir)
	assert.True(t, md.HasUncommitted)
	assert.Equal(t, "?? a.c; ?? m.c; ?? z.c", md.StatusSummary)
}
