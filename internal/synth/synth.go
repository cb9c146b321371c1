// Package synth turns a resolved configuration entry into the command lines
// of one toolchain. It has no side effects: the same entry and toolchain
// always produce the same commands.
package synth

import (
	"path"
	"strings"

	"github.com/ThandieOps/muda/internal/model"
)

// Toolchain is everything about the host that changes command spelling
type Toolchain struct {
	Compiler  model.Compiler
	Available model.CompilerSet
	OS        model.OS
	// ForceOptimization turns on optimization regardless of the entry
	ForceOptimization bool
}

// Commands holds the shell command lines for one target. Resource and
// Archive are empty when the target does not need them.
type Commands struct {
	Compile  string
	Resource string
	Archive  string
	// Objects are the object files the archive command consumes
	Objects []string
}

// Synthesize builds the commands for e. e is not modified.
func Synthesize(e *model.Entry, tc Toolchain) Commands {
	t := target{
		entry: e,
		tc:    tc,
		dir:   strings.TrimRight(e.BuildDirectory, `/\`),
		ext:   model.ExtensionsFor(tc.OS),
	}
	switch tc.Compiler {
	case model.CompilerCL:
		return t.cl()
	case model.CompilerClang:
		return t.gnu("clang", "clang++")
	default:
		return t.gnu("gcc", "g++")
	}
}

type target struct {
	entry *model.Entry
	tc    Toolchain
	dir   string
	ext   model.Extensions
}

func (t *target) optimize() bool {
	return t.entry.Optimization || t.tc.ForceOptimization
}

func (t *target) windows() bool {
	return t.tc.OS == model.OSWindows
}

func (t *target) static() bool {
	return t.entry.Application == model.ApplicationStaticLibrary
}

// within joins name onto the build directory
func (t *target) within(name string) string {
	if t.dir == "" {
		return name
	}
	return t.dir + "/" + name
}

// out returns the path of a file named after the build inside the build directory
func (t *target) out(suffix string) string {
	return t.within(t.entry.Build + suffix)
}

func (t *target) artifact() string {
	return t.out("." + t.ext.For(t.entry.Application))
}

// common appends defines, include directories and sources
func (t *target) common(c *cmdline) {
	for _, d := range t.entry.Defines {
		c.arg("-D" + d)
	}
	for _, inc := range t.entry.IncludeDirectories {
		c.arg("-I" + inc)
	}
	c.arg(t.entry.Sources...)
}

func (t *target) cl() Commands {
	e := t.entry
	var cmds Commands
	c := &cmdline{}

	c.raw("cl -nologo -EHsc -W3")
	if t.optimize() {
		c.raw("-O2")
	} else {
		c.raw("-Od")
	}
	if e.DebugSymbol {
		c.raw("-Zi")
	}
	t.common(c)

	if t.windows() && e.ResourceFile != "" {
		res := t.out(".res")
		r := &cmdline{}
		r.raw("rc")
		r.arg("-fo", res, e.ResourceFile)
		cmds.Resource = r.String()
		c.arg(res)
	}
	c.raw(e.Flags...)
	c.arg("-Fd" + t.within(""))

	tail := c
	if t.static() {
		c.raw("-c")
		c.arg("-Fo" + t.within("int/"))
		cmds.Objects = objects(e.Sources, t.within("int/"), ".obj")

		a := &cmdline{}
		a.raw("lib -nologo")
		a.arg(cmds.Objects...)
		a.arg("-out:" + t.artifact())
		tail = a
	} else {
		c.arg("-Fo" + t.within("int/"))
		if e.Application == model.ApplicationDynamicLibrary {
			c.raw("-LD")
		}
		c.raw("-link")
		c.arg("-pdb:"+t.out(".pdb"), "-out:"+t.artifact())
		if e.Application == model.ApplicationDynamicLibrary {
			c.arg("-IMPLIB:" + t.out("."+t.ext.StaticLibrary))
		}
		c.raw(e.LinkerFlags...)
	}

	for _, d := range e.LibraryDirectories {
		tail.arg("-LIBPATH:" + d)
	}
	for _, l := range e.Libraries {
		tail.arg(l + "." + t.ext.StaticLibrary)
	}
	if t.windows() {
		tail.raw("-SUBSYSTEM:" + strings.ToUpper(e.Subsystem.String()))
	}

	cmds.Compile = c.String()
	if tail != c {
		cmds.Archive = tail.String()
	}
	return cmds
}

// gnu covers the clang and gcc drivers, which share most of their syntax
func (t *target) gnu(cDriver, cppDriver string) Commands {
	e := t.entry
	clang := t.tc.Compiler == model.CompilerClang
	var cmds Commands
	c := &cmdline{}

	if e.Language == model.LanguageCPP {
		c.raw(cppDriver)
	} else {
		c.raw(cDriver)
	}
	c.raw("-Wall")

	switch {
	case clang && t.optimize():
		c.raw("--optimize")
	case clang:
		c.raw("--debug")
	case t.optimize():
		c.raw("-O2")
	default:
		c.raw("-O")
	}
	if e.DebugSymbol {
		c.raw("-g")
		if clang && t.windows() {
			c.raw("-gcodeview")
		}
	}
	t.common(c)

	if t.windows() && e.ResourceFile != "" {
		r := &cmdline{}
		var res string
		if clang {
			res = t.out(".res")
			r.raw("llvm-rc")
			r.arg("-FO", res, e.ResourceFile)
		} else {
			res = t.out(".o")
			r.raw("windres")
			r.arg("-i", e.ResourceFile, "-o", res)
		}
		cmds.Resource = r.String()
		c.arg(res)
	}
	c.raw(e.Flags...)

	tail := c
	if t.static() {
		c.raw("-c")
		cmds.Objects = objects(e.Sources, "", ".o")

		a := &cmdline{}
		if clang && t.windows() {
			a.raw("llvm-ar rcs")
		} else {
			a.raw("ar rcs")
		}
		a.arg(t.artifact())
		a.arg(cmds.Objects...)
		tail = a
	} else {
		if e.Application == model.ApplicationDynamicLibrary {
			c.raw("--shared")
		}
		c.raw("-o")
		c.arg(t.artifact())
		c.raw(e.LinkerFlags...)
	}

	for _, d := range e.LibraryDirectories {
		tail.arg("-L" + d)
	}
	for _, l := range e.Libraries {
		tail.arg("-l" + l)
	}
	if t.windows() && !t.static() {
		t.windowsLinker(c, clang)
	}

	cmds.Compile = c.String()
	if tail != c {
		cmds.Archive = tail.String()
	}
	return cmds
}

// windowsLinker picks the linker and subsystem spelling for a Windows link
func (t *target) windowsLinker(c *cmdline, clang bool) {
	lower := strings.ToLower(t.entry.Subsystem.String())
	upper := strings.ToUpper(lower)
	if !clang {
		c.arg("-Wl,-subsystem," + lower)
		return
	}
	switch {
	case t.tc.Available.Has(model.CompilerGCC):
		c.raw("-fuse-ld=ld")
		c.arg("-Wl,--subsystem," + lower)
	case t.tc.Available.Has(model.CompilerCL):
		c.raw("-fuse-ld=link", "-Xlinker", "-subsystem:"+upper)
	default:
		c.raw("-fuse-ld=lld", "-Xlinker", "-subsystem:"+upper)
	}
}

// objects derives the object file names a compile-only step produces
func objects(sources []string, prefix, ext string) []string {
	out := make([]string, 0, len(sources))
	for _, src := range sources {
		base := path.Base(strings.ReplaceAll(src, "\\", "/"))
		out = append(out, prefix+strings.TrimSuffix(base, path.Ext(base))+ext)
	}
	return out
}
