// Package build drives a full build: it finds the configuration of each
// directory, runs every selected target through its stages and descends
// into the children of solutions.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/ThandieOps/muda/internal/cache"
	"github.com/ThandieOps/muda/internal/host"
	"github.com/ThandieOps/muda/internal/model"
	"github.com/ThandieOps/muda/internal/plugin"
	"github.com/ThandieOps/muda/internal/scanner"
	"github.com/ThandieOps/muda/internal/synth"
)

// Options are the per-run switches given on the command line
type Options struct {
	// Compiler forces a toolchain. CompilerAll picks CL, then Clang, then GCC.
	Compiler          model.Compiler
	ForceOptimization bool
	ShowCommands      bool
	// DryRun logs command lines and treats them as succeeded
	DryRun bool
	// Configurations restricts the build to these entry names, in this order
	Configurations []string
}

// Builder runs one build rooted at the host's working directory
type Builder struct {
	Host     *host.Host
	Hook     plugin.Hook
	Log      *slog.Logger
	Options  Options
	Progress ProgressFunc
	// GitMetadata is collected for the root directory; nil skips it
	GitMetadata func(dir string) *scanner.GitMetadata

	toolchain synth.Toolchain
	report    *cache.Report
}

// New returns a builder. A nil hook behaves like plugin.Null.
func New(h *host.Host, hook plugin.Hook, log *slog.Logger, opts Options) *Builder {
	if hook == nil {
		hook = plugin.Null{}
	}
	return &Builder{
		Host:        h,
		Hook:        hook,
		Log:         log,
		Options:     opts,
		GitMetadata: scanner.CollectGitMetadata,
	}
}

// Toolchain picks the compiler for the run from what the host provides
func (b *Builder) Toolchain() (synth.Toolchain, error) {
	available := b.Host.Compilers()
	tc := synth.Toolchain{
		Available:         available,
		OS:                b.Host.OS,
		ForceOptimization: b.Options.ForceOptimization,
	}

	if b.Options.Compiler != model.CompilerAll {
		if !available.Has(b.Options.Compiler) {
			return tc, fmt.Errorf("%w: %s is not available (found: %s)", ErrNoCompiler, b.Options.Compiler, available)
		}
		tc.Compiler = b.Options.Compiler
		return tc, nil
	}

	c, ok := available.Preferred()
	if !ok {
		return tc, ErrNoCompiler
	}
	tc.Compiler = c
	return tc, nil
}

// Run builds the working directory and everything below it. The report is
// returned even when err is non-nil, unless no compiler could be selected.
// The hook always receives the destroy event.
func (b *Builder) Run(ctx context.Context) (*cache.Report, error) {
	defer func() {
		if err := plugin.Dispatch(b.Hook, plugin.Event{Kind: plugin.EventDestroy}); err != nil {
			b.Log.Debug("plugin destroy failed", "error", err)
		}
	}()

	tc, err := b.Toolchain()
	if err != nil {
		return nil, err
	}
	b.toolchain = tc

	root := b.Host.Getwd()
	b.report = cache.NewReport(root, tc.Compiler)
	b.report.DryRun = b.Options.DryRun
	if b.GitMetadata != nil {
		b.report.Git = b.GitMetadata(root)
	}

	b.Log.Info("build started",
		"run_id", b.report.RunID,
		"directory", root,
		"compiler", tc.Compiler,
		"available", tc.Available)

	err = b.buildDir(ctx, nil, filepath.Base(root), true)

	b.report.FinishedAt = time.Now()
	b.Log.Info("build finished",
		"targets", len(b.report.Targets),
		"failed", b.report.Failed(),
		"duration", b.report.Duration())
	return b.report, err
}

// buildDir builds every selected entry of the working directory. inherited
// is the parent solution's entry, used when the directory has no
// build.muda of its own. Only ctx cancellation, ErrRestoreDirectory and
// root-level configuration errors are returned.
func (b *Builder) buildDir(ctx context.Context, inherited *model.Entry, dirName string, root bool) error {
	configs, err := b.discover(inherited, dirName, root)
	if err != nil {
		if root {
			return err
		}
		b.Log.Error("skipping directory", "directory", b.Host.Getwd(), "error", err)
		b.record(cache.TargetRecord{
			Directory: b.Host.Getwd(),
			Stage:     StageConfiguring.String(),
			Error:     err.Error(),
		})
		return nil
	}
	if configs == nil {
		if root {
			return ErrNoConfiguration
		}
		b.Log.Warn("no configuration found, skipped", "directory", b.Host.Getwd())
		return nil
	}

	for _, e := range b.selectEntries(configs) {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.Log.Info("building configuration", "name", e.Name, "kind", e.Kind, "directory", b.Host.Getwd())
		e.ApplyDefaults(b.toolchain.Compiler)
		if err := b.buildTarget(ctx, e, dirName, root); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) selectEntries(configs *model.Collection) []*model.Entry {
	if len(b.Options.Configurations) == 0 {
		return configs.Entries()
	}
	var out []*model.Entry
	for _, name := range b.Options.Configurations {
		e := configs.Find(name)
		if e == nil {
			b.Log.Error("configuration not found, ignored", "name", name, "directory", b.Host.Getwd())
			continue
		}
		out = append(out, e)
	}
	return out
}

// target tracks one entry through its stages
type target struct {
	b     *Builder
	entry *model.Entry
	index int
	stage Stage
}

func (t *target) rec() *cache.TargetRecord {
	return &t.b.report.Targets[t.index]
}

func (t *target) enter(s Stage) {
	t.stage = s
	t.rec().Stage = s.String()
	t.b.progress(Progress{Directory: t.rec().Directory, Target: t.entry.Name, Stage: s})
}

func (t *target) finish(succeeded bool, err error) {
	if succeeded {
		t.stage = StageDone
	}
	r := t.rec()
	r.Stage = t.stage.String()
	r.Succeeded = succeeded
	if err != nil {
		r.Error = err.Error()
	}
	t.b.progress(Progress{Directory: r.Directory, Target: t.entry.Name, Stage: t.stage, Finished: true, Succeeded: succeeded})
}

// run executes one command line, recording it on the target
func (t *target) run(step, line string) error {
	r := t.rec()
	r.Commands = append(r.Commands, line)
	return t.b.execute(step, line)
}

func (b *Builder) execute(step, line string) error {
	if b.Options.ShowCommands || b.Options.DryRun {
		b.Log.Info("command line", "step", step, "command", line)
	}
	if b.Options.DryRun {
		return nil
	}
	return b.Host.Execute(line)
}

func (b *Builder) record(r cache.TargetRecord) int {
	b.report.Targets = append(b.report.Targets, r)
	return len(b.report.Targets) - 1
}

func (b *Builder) progress(p Progress) {
	if b.Progress != nil {
		b.Progress(p)
	}
}

func (b *Builder) event(e *model.Entry, dirName string, root bool) *plugin.BuildEvent {
	return &plugin.BuildEvent{
		Name:           e.Name,
		BuildDirectory: e.BuildDirectory,
		Build:          e.Build,
		Extension:      model.ExtensionsFor(b.toolchain.OS).For(e.Application),
		Directory:      dirName,
		RootBuild:      root,
	}
}

func (b *Builder) notify(kind plugin.EventKind, ev *plugin.BuildEvent) {
	if err := plugin.Dispatch(b.Hook, plugin.Event{Kind: kind, Build: ev}); err != nil {
		b.Log.Debug("plugin did not handle event", "event", kind, "error", err)
	}
}

func (b *Builder) buildTarget(ctx context.Context, e *model.Entry, dirName string, root bool) error {
	t := &target{b: b, entry: e}
	t.index = b.record(cache.TargetRecord{
		Directory:   b.Host.Getwd(),
		Name:        e.Name,
		Kind:        e.Kind,
		Application: e.Application,
	})
	if e.Kind == model.KindProject {
		t.rec().Artifact = e.ArtifactPath(b.toolchain.OS)
	}
	t.enter(StagePendingPrebuild)

	prebuildOK := true
	if e.Prebuild != "" {
		b.Log.Info("executing prebuild command", "name", e.Name)
		if err := t.run("prebuild", e.Prebuild); err != nil {
			prebuildOK = false
			b.Log.Error("prebuild execution failed", "name", e.Name, "error", err)
		}
	}

	var ev *plugin.BuildEvent
	succeeded := prebuildOK
	var failure error

	if e.Kind == model.KindProject {
		ev = b.event(e, dirName, root)
		ev.Succeeded = prebuildOK
		b.notify(plugin.EventPrebuild, ev)
		if !prebuildOK {
			t.finish(false, errors.New("prebuild failed"))
			return nil
		}
		failure = t.compile()
		succeeded = failure == nil
	} else {
		if !prebuildOK {
			failure = errors.New("prebuild failed")
			b.Log.Warn("continuing solution after failed prebuild", "name", e.Name)
		}
		if err := b.solution(ctx, e); err != nil {
			t.finish(false, err)
			return err
		}
	}

	if succeeded && e.Postbuild != "" {
		t.enter(StagePendingPostbuild)
		b.Log.Info("executing postbuild command", "name", e.Name)
		if err := t.run("postbuild", e.Postbuild); err != nil {
			succeeded = false
			failure = fmt.Errorf("postbuild failed: %w", err)
			b.Log.Error("postbuild execution failed", "name", e.Name, "error", err)
		}
	}

	if ev != nil {
		post := *ev
		post.Succeeded = succeeded
		b.notify(plugin.EventPostbuild, &post)
	}
	t.finish(succeeded, failure)
	return nil
}

// ensureDir creates dir unless it exists. A file in its place is an error.
func (b *Builder) ensureDir(dir string) error {
	switch b.Host.Exists(dir) {
	case host.PathDir:
		return nil
	case host.PathFile:
		return fmt.Errorf("%s: path exists but is a file", dir)
	}
	if b.Options.DryRun {
		return nil
	}
	if err := b.Host.MkdirAll(dir); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// compile runs the resource, compile and archive steps of a project
func (t *target) compile() error {
	b, e := t.b, t.entry
	t.enter(StageCompiling)

	if err := b.ensureDir(e.BuildDirectory); err != nil {
		b.Log.Error("cannot prepare build directory", "name", e.Name, "error", err)
		return err
	}
	if b.toolchain.Compiler == model.CompilerCL {
		if err := b.ensureDir(path.Join(e.BuildDirectory, "int")); err != nil {
			b.Log.Error("cannot prepare intermediate directory", "name", e.Name, "error", err)
			return err
		}
	}

	cmds := synth.Synthesize(e, b.toolchain)
	r := t.rec()
	r.BuildDirectory = b.Host.Abs(e.BuildDirectory)
	for _, o := range cmds.Objects {
		r.Objects = append(r.Objects, b.Host.Abs(o))
	}

	if cmds.Resource != "" {
		t.enter(StageResourceCompiling)
		if err := t.run("resource", cmds.Resource); err != nil {
			b.Log.Error("resource compilation failed", "name", e.Name, "error", err)
			return fmt.Errorf("resource compilation failed: %w", err)
		}
		t.enter(StageCompiling)
	}

	if err := t.run("compile", cmds.Compile); err != nil {
		b.Log.Error("compilation failed", "name", e.Name, "error", err)
		return fmt.Errorf("compilation failed: %w", err)
	}
	b.Log.Info("compilation succeeded", "name", e.Name)

	if cmds.Archive != "" {
		t.enter(StageArchiving)
		if err := t.run("archive", cmds.Archive); err != nil {
			b.Log.Error("library creation failed", "name", e.Name, "error", err)
			return fmt.Errorf("library creation failed: %w", err)
		}
		b.Log.Info("library creation succeeded", "name", e.Name)
	}
	return nil
}

// solution builds each child directory of e with a copy of e as fallback
// configuration. A child's failure never stops its siblings.
func (b *Builder) solution(ctx context.Context, e *model.Entry) error {
	b.Log.Info("found solution", "name", e.Name)

	children := e.ProjectDirectories
	if len(children) == 0 {
		var err error
		children, err = scanner.ChildDirs(b.Host, ".", e.IgnoredDirectories)
		if err != nil {
			b.Log.Error("failed to list project directories", "name", e.Name, "error", err)
			return nil
		}
	}

	fallback := e.Clone()
	fallback.Kind = model.KindProject

	for _, dir := range children {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.Log.Info("building directory", "directory", dir)

		prev := b.Host.Getwd()
		if err := b.Host.Chdir(dir); err != nil {
			b.Log.Error("could not enter directory, skipped", "directory", dir, "error", err)
			continue
		}

		name := strings.TrimPrefix(strings.ReplaceAll(dir, `\`, "/"), "./")
		err := b.buildDir(ctx, fallback.Clone(), name, false)

		if rerr := b.Host.Chdir(prev); rerr != nil {
			return fmt.Errorf("%w %s: %v", ErrRestoreDirectory, prev, rerr)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
