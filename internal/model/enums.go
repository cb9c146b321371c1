package model

import (
	"fmt"
	"runtime"
	"strings"
)

// Kind selects whether an entry compiles sources or drives nested builds
type Kind int

const (
	KindProject Kind = iota
	KindSolution
)

// KindIDs are the accepted spellings for the Kind property, indexed by value
var KindIDs = []string{"Project", "Solution"}

func (k Kind) String() string { return enumName(KindIDs, int(k)) }

// Application is the artifact produced by a project
type Application int

const (
	ApplicationExecutable Application = iota
	ApplicationStaticLibrary
	ApplicationDynamicLibrary
)

var ApplicationIDs = []string{"Executable", "StaticLibrary", "DynamicLibrary"}

func (a Application) String() string { return enumName(ApplicationIDs, int(a)) }

// Language picks the C or C++ compiler driver
type Language int

const (
	LanguageC Language = iota
	LanguageCPP
)

var LanguageIDs = []string{"C", "CPP"}

func (l Language) String() string { return enumName(LanguageIDs, int(l)) }

// Subsystem is the Windows subsystem an executable is linked for
type Subsystem int

const (
	SubsystemConsole Subsystem = iota
	SubsystemWindows
)

var SubsystemIDs = []string{"Console", "Windows"}

func (s Subsystem) String() string { return enumName(SubsystemIDs, int(s)) }

// OS identifies a host platform in section filters. OSAll matches every host.
type OS int

const (
	OSAll OS = iota
	OSWindows
	OSLinux
	OSMac
)

var osNames = []string{"ALL", "WINDOWS", "LINUX", "MAC"}

func (o OS) String() string { return enumName(osNames, int(o)) }

// HostOS returns the OS the binary was built for. Unknown platforms are
// treated as Linux since they share the same toolchain conventions.
func HostOS() OS {
	switch runtime.GOOS {
	case "windows":
		return OSWindows
	case "darwin":
		return OSMac
	default:
		return OSLinux
	}
}

// Compiler identifies a toolchain. CompilerAll is only meaningful in
// section filters.
type Compiler int

const (
	CompilerAll Compiler = iota
	CompilerCL
	CompilerClang
	CompilerGCC
)

var compilerNames = []string{"ALL", "CL", "CLANG", "GCC"}

func (c Compiler) String() string { return enumName(compilerNames, int(c)) }

// ParseCompiler maps a case-insensitive toolchain name to a Compiler
func ParseCompiler(name string) (Compiler, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "CL", "MSVC":
		return CompilerCL, true
	case "CLANG":
		return CompilerClang, true
	case "GCC":
		return CompilerGCC, true
	}
	return CompilerAll, false
}

// CompilerSet is a bit set of toolchains found on the host
type CompilerSet uint8

func (s CompilerSet) Has(c Compiler) bool {
	if c == CompilerAll {
		return false
	}
	return s&(1<<uint(c)) != 0
}

func (s CompilerSet) With(c Compiler) CompilerSet {
	if c == CompilerAll {
		return s
	}
	return s | 1<<uint(c)
}

// Preferred returns the toolchain used when none is forced: CL, then
// Clang, then GCC.
func (s CompilerSet) Preferred() (Compiler, bool) {
	for _, c := range []Compiler{CompilerCL, CompilerClang, CompilerGCC} {
		if s.Has(c) {
			return c, true
		}
	}
	return CompilerAll, false
}

func (s CompilerSet) String() string {
	var names []string
	for _, c := range []Compiler{CompilerCL, CompilerClang, CompilerGCC} {
		if s.Has(c) {
			names = append(names, c.String())
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

func enumName(ids []string, i int) string {
	if i < 0 || i >= len(ids) {
		return "Unknown"
	}
	return ids[i]
}

func (k Kind) MarshalText() ([]byte, error)        { return []byte(k.String()), nil }
func (a Application) MarshalText() ([]byte, error) { return []byte(a.String()), nil }
func (l Language) MarshalText() ([]byte, error)    { return []byte(l.String()), nil }
func (s Subsystem) MarshalText() ([]byte, error)   { return []byte(s.String()), nil }
func (c Compiler) MarshalText() ([]byte, error)    { return []byte(c.String()), nil }
func (o OS) MarshalText() ([]byte, error)          { return []byte(o.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	return unmarshalEnum(KindIDs, b, (*int)(k))
}

func (a *Application) UnmarshalText(b []byte) error {
	return unmarshalEnum(ApplicationIDs, b, (*int)(a))
}

func (l *Language) UnmarshalText(b []byte) error {
	return unmarshalEnum(LanguageIDs, b, (*int)(l))
}

func (s *Subsystem) UnmarshalText(b []byte) error {
	return unmarshalEnum(SubsystemIDs, b, (*int)(s))
}

func (c *Compiler) UnmarshalText(b []byte) error {
	return unmarshalEnum(compilerNames, b, (*int)(c))
}

func (o *OS) UnmarshalText(b []byte) error {
	return unmarshalEnum(osNames, b, (*int)(o))
}

func unmarshalEnum(ids []string, b []byte, dst *int) error {
	for i, id := range ids {
		if strings.EqualFold(id, string(b)) {
			*dst = i
			return nil
		}
	}
	return fmt.Errorf("unknown value %q, expected one of %s", b, strings.Join(ids, ", "))
}
