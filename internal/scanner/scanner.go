package scanner

import (
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"

	"github.com/ThandieOps/muda/internal/host"
	"github.com/ThandieOps/muda/internal/model"
	"github.com/go-git/go-git/v5"
)

// ReservedDir holds plugin binaries and is never built
const ReservedDir = ".muda"

// ChildDirs returns the names of the immediate subdirectories of dir that a
// solution should build, in name order. Hidden directories, the reserved
// .muda directory and anything in ignored are skipped. An ignored entry
// matches either the bare name or ./name; on Windows the match is
// case-insensitive.
func ChildDirs(h *host.Host, dir string, ignored []string) ([]string, error) {
	entries, err := h.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	fold := h.OS == model.OSWindows
	ignoreMap := make(map[string]bool)
	for _, name := range ignored {
		ignoreMap[normalize(name, fold)] = true
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		name := e.Name()
		if name == ReservedDir || h.IsHidden(dir, name) {
			continue
		}

		// Skip directories in the ignore list
		if ignoreMap[normalize(name, fold)] || ignoreMap[normalize("./"+name, fold)] {
			continue
		}

		dirs = append(dirs, name)
	}
	return dirs, nil
}

// normalize cleans backslashes and trailing separators so "./lib/" and
// ".\lib" both match "./lib". The leading "./" is kept.
func normalize(name string, fold bool) string {
	name = strings.ReplaceAll(name, `\`, "/")
	dotted := strings.HasPrefix(name, "./")
	name = path.Clean(name)
	if dotted {
		name = "./" + name
	}
	if fold {
		name = strings.ToLower(name)
	}
	return name
}

// GitMetadata describes the repository a build ran in
type GitMetadata struct {
	IsGitRepo      bool   `json:"is_git_repo" yaml:"is_git_repo"`
	RemoteURL      string `json:"remote_url,omitempty" yaml:"remote_url,omitempty"`
	CurrentBranch  string `json:"current_branch,omitempty" yaml:"current_branch,omitempty"`
	Commit         string `json:"commit,omitempty" yaml:"commit,omitempty"`
	HasUncommitted bool   `json:"has_uncommitted,omitempty" yaml:"has_uncommitted,omitempty"`
	StatusSummary  string `json:"status_summary,omitempty" yaml:"status_summary,omitempty"`
}

// CollectGitMetadata opens the repository containing dirPath, searching
// parent directories. A directory outside any repository yields
// IsGitRepo=false and no error.
func CollectGitMetadata(dirPath string) *GitMetadata {
	repo, err := git.PlainOpenWithOptions(dirPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return &GitMetadata{IsGitRepo: false}
	}

	metadata := &GitMetadata{
		IsGitRepo: true,
	}

	// Prefer origin, fall back to the first remote
	remotes, err := repo.Remotes()
	if err == nil {
		for _, remote := range remotes {
			urls := remote.Config().URLs
			if len(urls) == 0 {
				continue
			}
			if remote.Config().Name == "origin" {
				metadata.RemoteURL = urls[0]
				break
			}
			if metadata.RemoteURL == "" {
				metadata.RemoteURL = urls[0]
			}
		}
	}

	head, err := repo.Head()
	if err == nil {
		metadata.CurrentBranch = head.Name().Short()
		metadata.Commit = head.Hash().String()[:12]
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return metadata
	}
	status, err := worktree.Status()
	if err != nil {
		return metadata
	}

	metadata.HasUncommitted = !status.IsClean()
	metadata.StatusSummary = "clean"
	if status.IsClean() {
		return metadata
	}

	metadata.StatusSummary = summarizeStatus(status)
	return metadata
}

// summarizeStatus lists the first files by name as "XY file", like
// git status --porcelain
func summarizeStatus(status git.Status) string {
	const shown = 5
	files := slices.Sorted(maps.Keys(status))

	var lines []string
	for _, file := range files[:min(shown, len(files))] {
		fs := status[file]
		lines = append(lines, fmt.Sprintf("%c%c %s", fs.Staging, fs.Worktree, file))
	}
	summary := strings.Join(lines, "; ")
	if len(files) > shown {
		summary += fmt.Sprintf(" ... (%d more)", len(files)-shown)
	}
	return summary
}
