package synth

import (
	"strings"
	"testing"

	"github.com/ThandieOps/muda/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(app model.Application) *model.Entry {
	e := model.NewEntry("app")
	e.Application = app
	e.Build = "demo"
	e.BuildDirectory = "./bin"
	e.Sources = []string{"main.c"}
	return e
}

func linuxGCC() Toolchain {
	return Toolchain{Compiler: model.CompilerGCC, Available: model.CompilerSet(0).With(model.CompilerGCC), OS: model.OSLinux}
}

func words(s string) []string {
	return strings.Fields(s)
}

func TestSynthesizeExecutableGCC(t *testing.T) {
	cmds := Synthesize(entry(model.ApplicationExecutable), linuxGCC())

	assert.Equal(t, "gcc -Wall -O main.c -o ./bin/demo.out", cmds.Compile)
	assert.Empty(t, cmds.Archive)
	assert.Empty(t, cmds.Resource)
	assert.Empty(t, cmds.Objects)
}

func TestSynthesizeStaticLibraryGCC(t *testing.T) {
	e := entry(model.ApplicationStaticLibrary)
	e.Libraries = []string{"m"}
	cmds := Synthesize(e, linuxGCC())

	assert.Equal(t, "gcc -Wall -O main.c -c", cmds.Compile)
	assert.Equal(t, "ar rcs ./bin/demo.a main.o -lm", cmds.Archive)
	assert.Equal(t, []string{"main.o"}, cmds.Objects)
	assert.NotContains(t, cmds.Compile, "-lm")
}

func TestSynthesizeOrderGCC(t *testing.T) {
	e := entry(model.ApplicationDynamicLibrary)
	e.Language = model.LanguageCPP
	e.Optimization = true
	e.DebugSymbol = true
	e.Defines = []string{"A", "B=two words"}
	e.IncludeDirectories = []string{"include"}
	e.Sources = []string{"a.cpp", "src/*.cpp"}
	e.Flags = []string{"-std=c++17"}
	e.LinkerFlags = []string{"-rdynamic"}
	e.LibraryDirectories = []string{"lib"}
	e.Libraries = []string{"pthread"}

	cmds := Synthesize(e, linuxGCC())
	assert.Equal(t, []string{
		"g++", "-Wall", "-O2", "-g", "-DA", `"-DB=two`, `words"`, "-Iinclude",
		"a.cpp", "src/*.cpp", "-std=c++17", "--shared", "-o", "./bin/demo.so",
		"-rdynamic", "-Llib", "-lpthread",
	}, words(cmds.Compile))
}

func TestSynthesizeForceOptimization(t *testing.T) {
	tc := linuxGCC()
	tc.ForceOptimization = true
	e := entry(model.ApplicationExecutable)
	cmds := Synthesize(e, tc)
	assert.Contains(t, words(cmds.Compile), "-O2")
	assert.False(t, e.Optimization)
}

func TestSynthesizeClang(t *testing.T) {
	e := entry(model.ApplicationExecutable)
	e.DebugSymbol = true

	linux := Toolchain{Compiler: model.CompilerClang, OS: model.OSLinux}
	assert.Equal(t, "clang -Wall --debug -g main.c -o ./bin/demo.out", Synthesize(e, linux).Compile)

	e.Optimization = true
	mac := Toolchain{Compiler: model.CompilerClang, OS: model.OSMac}
	assert.Equal(t, "clang -Wall --optimize -g main.c -o ./bin/demo.out", Synthesize(e, mac).Compile)
}

func TestSynthesizeClangWindowsLinker(t *testing.T) {
	e := entry(model.ApplicationExecutable)
	e.DebugSymbol = true
	e.Subsystem = model.SubsystemWindows

	tests := []struct {
		name      string
		available model.CompilerSet
		want      string
	}{
		{"gcc present", model.CompilerSet(0).With(model.CompilerClang).With(model.CompilerGCC).With(model.CompilerCL), "-fuse-ld=ld -Wl,--subsystem,windows"},
		{"cl present", model.CompilerSet(0).With(model.CompilerClang).With(model.CompilerCL), "-fuse-ld=link -Xlinker -subsystem:WINDOWS"},
		{"clang only", model.CompilerSet(0).With(model.CompilerClang), "-fuse-ld=lld -Xlinker -subsystem:WINDOWS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := Synthesize(e, Toolchain{Compiler: model.CompilerClang, Available: tt.available, OS: model.OSWindows})
			assert.True(t, strings.HasSuffix(cmds.Compile, tt.want), cmds.Compile)
			assert.Contains(t, cmds.Compile, "-g -gcodeview")
			assert.Contains(t, cmds.Compile, "-o ./bin/demo.exe")
		})
	}
}

func TestSynthesizeCL(t *testing.T) {
	e := entry(model.ApplicationExecutable)
	e.Defines = []string{"_CRT_SECURE_NO_WARNINGS"}
	e.DebugSymbol = true
	e.Libraries = []string{"user32"}
	e.LibraryDirectories = []string{"C:/sdk/lib"}

	cmds := Synthesize(e, Toolchain{Compiler: model.CompilerCL, OS: model.OSWindows})
	assert.Equal(t,
		"cl -nologo -EHsc -W3 -Od -Zi -D_CRT_SECURE_NO_WARNINGS main.c -Fd./bin/ -Fo./bin/int/ "+
			"-link -pdb:./bin/demo.pdb -out:./bin/demo.exe -LIBPATH:C:/sdk/lib user32.lib -SUBSYSTEM:CONSOLE",
		cmds.Compile)
	assert.Empty(t, cmds.Archive)
}

func TestSynthesizeCLDynamicLibrary(t *testing.T) {
	e := entry(model.ApplicationDynamicLibrary)
	cmds := Synthesize(e, Toolchain{Compiler: model.CompilerCL, OS: model.OSWindows})
	assert.Contains(t, cmds.Compile, "-LD -link")
	assert.Contains(t, cmds.Compile, "-out:./bin/demo.dll -IMPLIB:./bin/demo.lib")
}

func TestSynthesizeCLStaticLibrary(t *testing.T) {
	e := entry(model.ApplicationStaticLibrary)
	e.Sources = []string{"a.c", `src\b.c`}
	e.Libraries = []string{"kernel32"}

	cmds := Synthesize(e, Toolchain{Compiler: model.CompilerCL, OS: model.OSWindows})
	assert.Equal(t, "cl -nologo -EHsc -W3 -Od a.c src\\b.c -Fd./bin/ -c -Fo./bin/int/", cmds.Compile)
	assert.Equal(t, []string{"./bin/int/a.obj", "./bin/int/b.obj"}, cmds.Objects)
	assert.Equal(t, "lib -nologo ./bin/int/a.obj ./bin/int/b.obj -out:./bin/demo.lib kernel32.lib -SUBSYSTEM:CONSOLE", cmds.Archive)
}

func TestSynthesizeClangStaticLibraryOnWindowsUsesLLVMAr(t *testing.T) {
	cmds := Synthesize(entry(model.ApplicationStaticLibrary), Toolchain{Compiler: model.CompilerClang, OS: model.OSWindows})
	assert.Equal(t, "llvm-ar rcs ./bin/demo.lib main.o", cmds.Archive)
	assert.NotContains(t, cmds.Compile, "-fuse-ld")
}

func TestSynthesizeResourceOnlyOnWindows(t *testing.T) {
	e := entry(model.ApplicationExecutable)
	e.ResourceFile = "app.rc"

	tests := []struct {
		compiler model.Compiler
		resource string
		object   string
	}{
		{model.CompilerCL, "rc -fo ./bin/demo.res app.rc", "./bin/demo.res"},
		{model.CompilerClang, "llvm-rc -FO ./bin/demo.res app.rc", "./bin/demo.res"},
		{model.CompilerGCC, "windres -i app.rc -o ./bin/demo.o", "./bin/demo.o"},
	}
	for _, tt := range tests {
		t.Run(tt.compiler.String(), func(t *testing.T) {
			win := Synthesize(e, Toolchain{Compiler: tt.compiler, OS: model.OSWindows})
			assert.Equal(t, tt.resource, win.Resource)
			assert.Contains(t, words(win.Compile), tt.object)

			if tt.compiler == model.CompilerCL {
				return
			}
			linux := Synthesize(e, Toolchain{Compiler: tt.compiler, OS: model.OSLinux})
			assert.Empty(t, linux.Resource)
			assert.NotContains(t, words(linux.Compile), tt.object)
		})
	}
}

func TestSynthesizeGCCWindowsSubsystem(t *testing.T) {
	e := entry(model.ApplicationExecutable)
	cmds := Synthesize(e, Toolchain{Compiler: model.CompilerGCC, OS: model.OSWindows})
	assert.True(t, strings.HasSuffix(cmds.Compile, "-o ./bin/demo.exe -Wl,-subsystem,console"), cmds.Compile)

	linux := Synthesize(e, linuxGCC())
	assert.NotContains(t, linux.Compile, "subsystem")
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	e := entry(model.ApplicationStaticLibrary)
	e.Defines = []string{"X", "Y"}
	e.Libraries = []string{"z"}
	before := e.Clone()

	for _, c := range []model.Compiler{model.CompilerCL, model.CompilerClang, model.CompilerGCC} {
		tc := Toolchain{Compiler: c, OS: model.OSWindows}
		first := Synthesize(e, tc)
		for i := 0; i < 5; i++ {
			require.Equal(t, first, Synthesize(e, tc))
		}
	}
	assert.Equal(t, before, e)
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"main.c", "main.c"},
		{"*.c", "*.c"},
		{"my file.c", `"my file.c"`},
		{`say"hi`, `"say\"hi"`},
		{"", `""`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Quote(tt.in), tt.in)
	}
}
