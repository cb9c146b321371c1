package cache

import (
	"testing"
	"time"

	"github.com/ThandieOps/muda/internal/model"
	"github.com/ThandieOps/muda/internal/scanner"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRoundTrip(t *testing.T) {
	c, err := NewAt(t.TempDir())
	require.NoError(t, err)

	r := NewReport("/src/game", model.CompilerGCC)
	r.Git = &scanner.GitMetadata{IsGitRepo: true, CurrentBranch: "main"}
	r.Targets = append(r.Targets,
		TargetRecord{Directory: "/src/game", Name: "default", Kind: model.KindSolution, Stage: "Done", Succeeded: true},
		TargetRecord{Directory: "/src/game/core", Name: "core", Application: model.ApplicationStaticLibrary, Stage: "Archiving", Error: "exit 1"},
	)
	r.FinishedAt = r.StartedAt.Add(2 * time.Second)

	assert.False(t, c.HasReport("/src/game"))
	require.NoError(t, c.SaveReport(r))
	assert.True(t, c.HasReport("/src/game"))

	back, err := c.LoadReport("/src/game")
	require.NoError(t, err)
	assert.Equal(t, r.RunID, back.RunID)
	assert.Equal(t, model.CompilerGCC, back.Compiler)
	assert.Equal(t, model.ApplicationStaticLibrary, back.Targets[1].Application)
	assert.Equal(t, "main", back.Git.CurrentBranch)
	assert.Equal(t, 1, back.Failed())
	assert.False(t, back.Succeeded())
	assert.Equal(t, 2*time.Second, back.Duration())

	_, err = uuid.Parse(back.RunID)
	assert.NoError(t, err)
}

func TestLoadMissingReport(t *testing.T) {
	c, err := NewAt(t.TempDir())
	require.NoError(t, err)
	_, err = c.LoadReport("/nowhere")
	assert.ErrorContains(t, err, "no build report")
}

func TestReportPathIsStablePerRoot(t *testing.T) {
	c, err := NewAt(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, c.ReportPath("/a"), c.ReportPath("/a"))
	assert.NotEqual(t, c.ReportPath("/a"), c.ReportPath("/b"))
}

func TestClear(t *testing.T) {
	c, err := NewAt(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, c.SaveReport(NewReport("/a", model.CompilerCL)))
	require.NoError(t, c.SaveReport(NewReport("/b", model.CompilerCL)))

	require.NoError(t, c.Clear())
	assert.False(t, c.HasReport("/a"))
	assert.False(t, c.HasReport("/b"))
}
