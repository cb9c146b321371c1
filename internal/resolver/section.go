package resolver

import (
	"slices"
	"strings"

	"github.com/ThandieOps/muda/internal/model"
)

// Section is the OS/compiler filter that applies to the properties that
// follow a section header.
type Section struct {
	OS       model.OS
	Compiler model.Compiler
}

// AllSection matches every host and compiler
var AllSection = Section{OS: model.OSAll, Compiler: model.CompilerAll}

var sections = func() map[string]Section {
	m := map[string]Section{
		"OS.ALL":       {model.OSAll, model.CompilerAll},
		"OS.WINDOWS":   {model.OSWindows, model.CompilerAll},
		"OS.LINUX":     {model.OSLinux, model.CompilerAll},
		"OS.MAC":       {model.OSMac, model.CompilerAll},
		"COMPILER.ALL": {model.OSAll, model.CompilerAll},
	}
	for _, c := range []model.Compiler{model.CompilerCL, model.CompilerClang, model.CompilerGCC} {
		m["COMPILER."+c.String()] = Section{model.OSAll, c}
		for _, o := range []model.OS{model.OSWindows, model.OSLinux, model.OSMac} {
			m["OS."+o.String()+"."+c.String()] = Section{o, c}
		}
	}
	return m
}()

// ParseSection matches a section header case-insensitively
func ParseSection(text string) (Section, bool) {
	s, ok := sections[strings.ToUpper(text)]
	return s, ok
}

// Matches reports whether properties in s apply on host with compiler
func (s Section) Matches(host model.OS, compiler model.Compiler) bool {
	if s.OS != model.OSAll && s.OS != host {
		return false
	}
	return s.Compiler == model.CompilerAll || s.Compiler == compiler
}

func (s Section) String() string {
	return "OS." + s.OS.String() + "." + s.Compiler.String()
}

// SectionNames returns every accepted section header, sorted
func SectionNames() []string {
	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
