package model

import (
	"path"
	"slices"
)

// DefaultEntryName is the name given to the first block of a file until a
// config header renames it.
const DefaultEntryName = "default"

// Entry is one buildable target as declared in a configuration file
type Entry struct {
	Name         string      `json:"name" yaml:"name"`
	Kind         Kind        `json:"kind" yaml:"kind"`
	Application  Application `json:"application" yaml:"application"`
	Language     Language    `json:"language" yaml:"language"`
	Optimization bool        `json:"optimization" yaml:"optimization"`
	DebugSymbol  bool        `json:"debug_symbol" yaml:"debug_symbol"`
	Subsystem    Subsystem   `json:"subsystem" yaml:"subsystem"`

	Build          string `json:"build" yaml:"build"`
	BuildDirectory string `json:"build_directory" yaml:"build_directory"`
	ResourceFile   string `json:"resource_file,omitempty" yaml:"resource_file,omitempty"`
	Prebuild       string `json:"prebuild,omitempty" yaml:"prebuild,omitempty"`
	Postbuild      string `json:"postbuild,omitempty" yaml:"postbuild,omitempty"`

	Defines            []string `json:"defines,omitempty" yaml:"defines,omitempty"`
	IncludeDirectories []string `json:"include_directories,omitempty" yaml:"include_directories,omitempty"`
	Sources            []string `json:"sources,omitempty" yaml:"sources,omitempty"`
	LibraryDirectories []string `json:"library_directories,omitempty" yaml:"library_directories,omitempty"`
	Libraries          []string `json:"libraries,omitempty" yaml:"libraries,omitempty"`
	Flags              []string `json:"flags,omitempty" yaml:"flags,omitempty"`
	LinkerFlags        []string `json:"linker_flags,omitempty" yaml:"linker_flags,omitempty"`

	// Solution only
	ProjectDirectories []string `json:"project_directories,omitempty" yaml:"project_directories,omitempty"`
	IgnoredDirectories []string `json:"ignored_directories,omitempty" yaml:"ignored_directories,omitempty"`
}

// NewEntry returns an entry with the given name and zero-valued settings
func NewEntry(name string) *Entry {
	return &Entry{Name: name}
}

// Clone returns a deep copy. Lists never share backing arrays with e.
func (e *Entry) Clone() *Entry {
	c := *e
	c.Defines = slices.Clone(e.Defines)
	c.IncludeDirectories = slices.Clone(e.IncludeDirectories)
	c.Sources = slices.Clone(e.Sources)
	c.LibraryDirectories = slices.Clone(e.LibraryDirectories)
	c.Libraries = slices.Clone(e.Libraries)
	c.Flags = slices.Clone(e.Flags)
	c.LinkerFlags = slices.Clone(e.LinkerFlags)
	c.ProjectDirectories = slices.Clone(e.ProjectDirectories)
	c.IgnoredDirectories = slices.Clone(e.IgnoredDirectories)
	return &c
}

// ApplyDefaults fills in the settings a target needs before it can be
// built. Only empty fields are touched.
func (e *Entry) ApplyDefaults(compiler Compiler) {
	if e.BuildDirectory == "" {
		e.BuildDirectory = "./bin"
	}
	if e.Build == "" {
		e.Build = "output"
	}
	if len(e.Sources) == 0 {
		e.Sources = append(e.Sources, "*.c")
	}
	if compiler == CompilerCL && len(e.Defines) == 0 {
		e.Defines = append(e.Defines, "_CRT_SECURE_NO_WARNINGS")
	}
}

// Extensions holds the artifact file extensions of one platform
type Extensions struct {
	Executable     string
	StaticLibrary  string
	DynamicLibrary string
}

// ExtensionsFor returns the artifact extensions used on os
func ExtensionsFor(os OS) Extensions {
	switch os {
	case OSWindows:
		return Extensions{Executable: "exe", StaticLibrary: "lib", DynamicLibrary: "dll"}
	case OSMac:
		return Extensions{Executable: "out", StaticLibrary: "a", DynamicLibrary: "dylib"}
	default:
		return Extensions{Executable: "out", StaticLibrary: "a", DynamicLibrary: "so"}
	}
}

// For returns the extension of the artifact produced for app
func (x Extensions) For(app Application) string {
	switch app {
	case ApplicationStaticLibrary:
		return x.StaticLibrary
	case ApplicationDynamicLibrary:
		return x.DynamicLibrary
	default:
		return x.Executable
	}
}

// ArtifactPath is the slash-separated path of the file a project produces
func (e *Entry) ArtifactPath(os OS) string {
	return path.Join(e.BuildDirectory, e.Build+"."+ExtensionsFor(os).For(e.Application))
}
