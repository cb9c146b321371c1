package build

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/ThandieOps/muda/internal/host"
	"github.com/ThandieOps/muda/internal/host/hosttest"
	"github.com/ThandieOps/muda/internal/model"
	"github.com/ThandieOps/muda/internal/plugin"
	"github.com/ThandieOps/muda/internal/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler       { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler            { return h }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *recordingHandler) count(level slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, r := range h.records {
		if r.Level == level {
			n++
		}
	}
	return n
}

type eventHook struct {
	plugin.Null
	events []string
}

func (h *eventHook) OnPrebuild(e *plugin.BuildEvent) error {
	h.events = append(h.events, fmt.Sprintf("prebuild %s ok=%t root=%t", e.Name, e.Succeeded, e.RootBuild))
	return nil
}

func (h *eventHook) OnPostbuild(e *plugin.BuildEvent) error {
	h.events = append(h.events, fmt.Sprintf("postbuild %s ok=%t", e.Name, e.Succeeded))
	return nil
}

func (h *eventHook) OnDestroy() error {
	h.events = append(h.events, "destroy")
	return nil
}

type fixture struct {
	host   *host.Host
	runner *hosttest.Runner
	logs   *recordingHandler
	hook   *eventHook
}

func newFixture(t *testing.T, os model.OS, compilers ...model.Compiler) *fixture {
	t.Helper()
	if len(compilers) == 0 {
		compilers = []model.Compiler{model.CompilerGCC}
	}
	h, r := hosttest.New("/src", os, compilers...)
	return &fixture{host: h, runner: r, logs: &recordingHandler{}, hook: &eventHook{}}
}

func (f *fixture) write(path, data string) {
	hosttest.WriteFile(f.host, path, data)
}

func (f *fixture) builder(opts Options) *Builder {
	b := New(f.host, f.hook, slog.New(f.logs), opts)
	b.GitMetadata = nil
	return b
}

func (f *fixture) run(t *testing.T, opts Options) []hosttest.Call {
	t.Helper()
	report, err := f.builder(opts).Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)
	return f.runner.Calls()
}

func TestBuildExecutable(t *testing.T) {
	f := newFixture(t, model.OSLinux)
	f.write("build.muda", `@version: 1.0.0
Application = Executable;
Sources = main.c;
`)
	calls := f.run(t, Options{})

	assert.Equal(t, []hosttest.Call{{Dir: "/src", Line: "gcc -Wall -O main.c -o ./bin/output.out"}}, calls)
	assert.Equal(t, host.PathDir, f.host.Exists("/src/bin"))
	assert.Equal(t, []string{"prebuild default ok=true root=true", "postbuild default ok=true", "destroy"}, f.hook.events)
}

func TestBuildStaticLibrary(t *testing.T) {
	f := newFixture(t, model.OSLinux)
	f.write("build.muda", `@version: 1.0.0
Application = StaticLibrary;
Sources = main.c;
`)
	b := f.builder(Options{})
	report, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"gcc -Wall -O main.c -c", "ar rcs ./bin/output.a main.o"}, f.runner.Lines())
	require.Len(t, report.Targets, 1)
	assert.Equal(t, "Done", report.Targets[0].Stage)
	assert.Equal(t, "bin/output.a", report.Targets[0].Artifact)
	assert.Equal(t, "/src/bin", report.Targets[0].BuildDirectory)
	assert.Equal(t, []string{"/src/main.o"}, report.Targets[0].Objects)
	assert.True(t, report.Succeeded())
}

func TestBuildSolutionInheritsIntoChildWithoutFile(t *testing.T) {
	f := newFixture(t, model.OSLinux)
	f.write("build.muda", `@version: 1.3.0
:Umbrella
Kind = Solution;
Build = shared;
Defines = FROM_PARENT;
`)
	require.NoError(t, f.host.MkdirAll("a"))
	f.write("b/build.muda", `@version: 1.3.0
:Bee
Build = bee;
Sources = b.c;
`)

	b := f.builder(Options{})
	report, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []hosttest.Call{
		{Dir: "/src/a", Line: "gcc -Wall -O -DFROM_PARENT *.c -o ./bin/shared.out"},
		{Dir: "/src/b", Line: "gcc -Wall -O b.c -o ./bin/bee.out"},
	}, f.runner.Calls())
	assert.Equal(t, "/src", f.host.Getwd())

	require.Len(t, report.Targets, 3)
	assert.Equal(t, model.KindSolution, report.Targets[0].Kind)
	assert.Equal(t, "Umbrella", report.Targets[1].Name)
	assert.Equal(t, model.KindProject, report.Targets[1].Kind)
	assert.Equal(t, "/src/a", report.Targets[1].Directory)
	assert.Equal(t, "Bee", report.Targets[2].Name)

	// solutions get no build events of their own
	assert.Equal(t, []string{
		"prebuild Umbrella ok=true root=false",
		"postbuild Umbrella ok=true",
		"prebuild Bee ok=true root=false",
		"postbuild Bee ok=true",
		"destroy",
	}, f.hook.events)
}

func TestBuildSolutionSkipsIgnoredAndHiddenDirectories(t *testing.T) {
	f := newFixture(t, model.OSLinux)
	f.write("build.muda", `@version: 1.3.0
Kind = Solution;
IgnoredDirectories = tests, ./docs;
`)
	for _, d := range []string{"app", "docs", "tests", ".muda", ".cache"} {
		require.NoError(t, f.host.MkdirAll(d))
	}
	// parsing either file would log an error and add a target
	f.write("tests/build.muda", "not a build file")
	f.write(".cache/build.muda", "not a build file")

	b := f.builder(Options{})
	report, err := b.Run(context.Background())
	require.NoError(t, err)

	calls := f.runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/src/app", calls[0].Dir)
	assert.Len(t, report.Targets, 2)
	assert.Zero(t, f.logs.count(slog.LevelError))
}

func TestBuildSolutionExplicitProjectDirectories(t *testing.T) {
	f := newFixture(t, model.OSLinux)
	f.write("build.muda", `@version: 1.3.0
Kind = Solution;
ProjectDirectories = ./second, first, missing;
`)
	require.NoError(t, f.host.MkdirAll("first"))
	require.NoError(t, f.host.MkdirAll("second"))

	calls := f.run(t, Options{})
	require.Len(t, calls, 2)
	assert.Equal(t, "/src/second", calls[0].Dir)
	assert.Equal(t, "/src/first", calls[1].Dir)
	assert.Equal(t, 1, f.logs.count(slog.LevelError))
}

func TestBuildFailedPrebuildStopsProject(t *testing.T) {
	f := newFixture(t, model.OSLinux)
	f.write("build.muda", `@version: 1.3.0
:App
Prebuild = "generate --fail";
Postbuild = "install";
`)
	f.runner.FailOn = []string{"--fail"}

	b := f.builder(Options{})
	report, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"generate --fail"}, f.runner.Lines())
	assert.Equal(t, []string{"prebuild App ok=false root=true", "destroy"}, f.hook.events)
	assert.Equal(t, "PendingPrebuild", report.Targets[0].Stage)
	assert.False(t, report.Succeeded())
}

func TestBuildFailedPrebuildDoesNotStopSolution(t *testing.T) {
	f := newFixture(t, model.OSLinux)
	f.write("build.muda", `@version: 1.3.0
Kind = Solution;
Prebuild = "prepare --fail";
Postbuild = "after";
`)
	require.NoError(t, f.host.MkdirAll("app"))
	f.write("app/build.muda", "@version: 1.3.0\n:App\n")
	f.runner.FailOn = []string{"--fail"}

	f.run(t, Options{})
	assert.Equal(t, []string{"prepare --fail", "gcc -Wall -O *.c -o ./bin/output.out"}, f.runner.Lines())
	assert.Equal(t, 1, f.logs.count(slog.LevelWarn))
}

func TestBuildCompileFailureSkipsPostbuild(t *testing.T) {
	f := newFixture(t, model.OSLinux)
	f.write("build.muda", `@version: 1.3.0
:App
Postbuild = install;
`)
	f.runner.FailOn = []string{"gcc"}

	b := f.builder(Options{})
	report, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, f.runner.Lines(), 1)
	assert.Equal(t, []string{"prebuild App ok=true root=true", "postbuild App ok=false", "destroy"}, f.hook.events)
	assert.Equal(t, "Compiling", report.Targets[0].Stage)
	assert.Contains(t, report.Targets[0].Error, "compilation failed")
}

func TestBuildPostbuildFailureFailsTarget(t *testing.T) {
	f := newFixture(t, model.OSLinux)
	f.write("build.muda", `@version: 1.3.0
:App
Postbuild = "install --fail";
`)
	f.runner.FailOn = []string{"--fail"}

	b := f.builder(Options{})
	report, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, f.runner.Lines(), 2)
	assert.Equal(t, "postbuild App ok=false", f.hook.events[1])
	assert.Equal(t, "PendingPostbuild", report.Targets[0].Stage)
	assert.False(t, report.Targets[0].Succeeded)
}

func TestBuildDirectoryOccupiedByFile(t *testing.T) {
	f := newFixture(t, model.OSLinux)
	f.write("build.muda", "@version: 1.3.0\n:App\n")
	f.write("bin", "not a directory")

	b := f.builder(Options{})
	report, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, f.runner.Lines())
	assert.False(t, report.Targets[0].Succeeded)
	assert.Contains(t, report.Targets[0].Error, "is a file")
}

func TestBuildCLCreatesIntermediateDirectory(t *testing.T) {
	f := newFixture(t, model.OSWindows, model.CompilerCL, model.CompilerGCC)
	f.write("build.muda", "@version: 1.3.0\nBuildDirectory = out;\n")

	f.run(t, Options{})
	lines := f.runner.Lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "cl -nologo")
	assert.Contains(t, lines[0], "-D_CRT_SECURE_NO_WARNINGS")
	assert.Equal(t, host.PathDir, f.host.Exists("/src/out/int"))
}

func TestBuildForcedCompiler(t *testing.T) {
	f := newFixture(t, model.OSLinux, model.CompilerClang, model.CompilerGCC)
	f.write("build.muda", "@version: 1.3.0\n")

	f.run(t, Options{Compiler: model.CompilerGCC})
	assert.Contains(t, f.runner.Lines()[0], "gcc -Wall")

	_, err := f.builder(Options{Compiler: model.CompilerCL}).Run(context.Background())
	assert.ErrorIs(t, err, ErrNoCompiler)
}

func TestBuildPrefersClangOverGCC(t *testing.T) {
	f := newFixture(t, model.OSLinux, model.CompilerGCC, model.CompilerClang)
	tc, err := f.builder(Options{}).Toolchain()
	require.NoError(t, err)
	assert.Equal(t, model.CompilerClang, tc.Compiler)

	// CompilerAll is never found on PATH
	none := newFixture(t, model.OSLinux, model.CompilerAll)
	_, err = none.builder(Options{}).Toolchain()
	assert.ErrorIs(t, err, ErrNoCompiler)
}

func TestBuildNoConfiguration(t *testing.T) {
	f := newFixture(t, model.OSLinux)
	_, err := f.builder(Options{}).Run(context.Background())
	assert.ErrorIs(t, err, ErrNoConfiguration)
	assert.Equal(t, []string{"destroy"}, f.hook.events)
}

func TestBuildFallsBackToUserConfiguration(t *testing.T) {
	f := newFixture(t, model.OSLinux)
	f.write("/config/muda/config.muda", "@version: 1.3.0\nBuild = fromuser;\n")

	f.run(t, Options{})
	assert.Equal(t, []string{"gcc -Wall -O *.c -o ./bin/fromuser.out"}, f.runner.Lines())
}

func TestBuildSelectsConfigurations(t *testing.T) {
	f := newFixture(t, model.OSLinux)
	f.write("build.muda", `@version: 1.3.0
:Debug
Build = dbg;
:Release
Build = rel;
Optimization = true;
`)
	f.run(t, Options{Configurations: []string{"Release", "Profile"}})
	assert.Equal(t, []string{"gcc -Wall -O2 *.c -o ./bin/rel.out"}, f.runner.Lines())
	assert.Equal(t, 1, f.logs.count(slog.LevelError))
}

func TestBuildUnhandledPropertyWarnsOnce(t *testing.T) {
	f := newFixture(t, model.OSLinux)
	f.write("build.muda", `@version: 1.3.0
Sources = main.c;
Colour = blue;
`)
	b := f.builder(Options{})
	report, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Succeeded())
	assert.Equal(t, 1, f.logs.count(slog.LevelWarn))
	assert.Equal(t, []string{"gcc -Wall -O main.c -o ./bin/output.out"}, f.runner.Lines())
}

func TestBuildDryRunExecutesNothing(t *testing.T) {
	f := newFixture(t, model.OSLinux)
	f.write("build.muda", "@version: 1.3.0\nPrebuild = gen;\n")

	b := f.builder(Options{DryRun: true})
	report, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, f.runner.Calls())
	assert.Equal(t, host.PathMissing, f.host.Exists("bin"))
	assert.Equal(t, []string{"gen", "gcc -Wall -O *.c -o ./bin/output.out"}, report.Targets[0].Commands)
	assert.True(t, report.DryRun)
}

func TestBuildRootParseErrorIsFatal(t *testing.T) {
	f := newFixture(t, model.OSLinux)
	f.write("build.muda", "@version: 1.3.0\nOptimization = maybe;\n")

	_, err := f.builder(Options{}).Run(context.Background())
	var perr *resolver.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 2, perr.Line)
}

func TestBuildRootVersionErrorIsFatal(t *testing.T) {
	f := newFixture(t, model.OSLinux)
	f.write("build.muda", "@version: 2.0.0\n")

	_, err := f.builder(Options{}).Run(context.Background())
	var verr *resolver.VersionError
	assert.ErrorAs(t, err, &verr)
}

func TestBuildChildErrorDoesNotStopSiblings(t *testing.T) {
	f := newFixture(t, model.OSLinux)
	f.write("build.muda", "@version: 1.3.0\nKind = Solution;\n")
	f.write("a/build.muda", "@version: 1.3.0\n[OS.NOWHERE]\n")
	f.write("b/build.muda", "")
	f.write("c/build.muda", "@version: 1.3.0\n:C\n")

	b := f.builder(Options{})
	report, err := b.Run(context.Background())
	require.NoError(t, err)

	calls := f.runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "/src/c", calls[0].Dir)
	assert.Equal(t, 2, report.Failed())
	assert.Equal(t, "Configuring", report.Targets[1].Stage)
	assert.Contains(t, report.Targets[2].Error, "empty")
}

func TestBuildRootEmptyFileIsFatal(t *testing.T) {
	f := newFixture(t, model.OSLinux)
	f.write("build.muda", "")
	_, err := f.builder(Options{}).Run(context.Background())
	assert.ErrorIs(t, err, ErrEmptyFile)

	var ferr *FileError
	assert.ErrorAs(t, err, &ferr)
}

type funcRunner func(dir, line string) error

func (f funcRunner) Run(dir, line string) error { return f(dir, line) }

func TestBuildRestoreDirectoryFailureAborts(t *testing.T) {
	f := newFixture(t, model.OSLinux)
	f.write("build.muda", "@version: 1.3.0\nKind = Solution;\n")
	require.NoError(t, f.host.MkdirAll("a"))
	require.NoError(t, f.host.MkdirAll("b"))

	var dirs []string
	f.host.Runner = funcRunner(func(dir, line string) error {
		dirs = append(dirs, dir)
		return f.host.Fs.RemoveAll("/src")
	})

	_, err := f.builder(Options{}).Run(context.Background())
	assert.ErrorIs(t, err, ErrRestoreDirectory)
	assert.Equal(t, []string{"/src/a"}, dirs)
}

func TestBuildStopsWhenCancelled(t *testing.T) {
	f := newFixture(t, model.OSLinux)
	f.write("build.muda", "@version: 1.3.0\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.builder(Options{}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.runner.Calls())
}

func TestBuildReportsProgress(t *testing.T) {
	f := newFixture(t, model.OSLinux)
	f.write("build.muda", "@version: 1.3.0\nApplication = StaticLibrary;\n")

	var stages []Stage
	b := f.builder(Options{})
	b.Progress = func(p Progress) {
		stages = append(stages, p.Stage)
		if p.Finished {
			assert.True(t, p.Succeeded)
		}
	}
	_, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Stage{StagePendingPrebuild, StageCompiling, StageArchiving, StageDone}, stages)
}

func TestReadConfigRejectsLargeFile(t *testing.T) {
	f := newFixture(t, model.OSLinux)
	file, err := f.host.Fs.Create("/src/build.muda")
	require.NoError(t, err)
	require.NoError(t, file.Truncate(MaxFileSize+1))
	require.NoError(t, file.Close())

	_, err = ReadConfig(f.host, "build.muda")
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestResolve(t *testing.T) {
	f := newFixture(t, model.OSLinux, model.CompilerAll)
	f.write("build.muda", `@version: 1.3.0
:App
[COMPILER.GCC]
Defines = GCC_ONLY;
`)
	configs, err := f.builder(Options{Compiler: model.CompilerGCC}).Resolve()
	require.NoError(t, err)
	assert.Equal(t, []string{"GCC_ONLY"}, configs.Find("App").Defines)
	assert.Empty(t, f.runner.Calls())
}
