package resolver

import (
	"strings"

	"github.com/ThandieOps/muda/internal/model"
)

// valueKind is how a property's values are interpreted
type valueKind int

const (
	kindEnum valueKind = iota
	kindBool
	kindString
	kindStringList
)

// field describes one recognized property key. Exactly one of the setters
// is set, matching kind.
type field struct {
	kind valueKind
	ids  []string

	setEnum    func(e *model.Entry, index int)
	setBool    func(e *model.Entry, v bool)
	setString  func(e *model.Entry, v string)
	appendList func(e *model.Entry, v []string)
}

func enumField(ids []string, set func(*model.Entry, int)) field {
	return field{kind: kindEnum, ids: ids, setEnum: set}
}

func boolField(set func(*model.Entry, bool)) field {
	return field{kind: kindBool, setBool: set}
}

func stringField(set func(*model.Entry, string)) field {
	return field{kind: kindString, setString: set}
}

func listField(get func(*model.Entry) *[]string) field {
	return field{kind: kindStringList, appendList: func(e *model.Entry, v []string) {
		p := get(e)
		*p = append(*p, v...)
	}}
}

// fields maps every published property key to the entry field it sets.
// Keys are matched case-sensitively.
var fields = map[string]field{
	"Kind":        enumField(model.KindIDs, func(e *model.Entry, i int) { e.Kind = model.Kind(i) }),
	"Application": enumField(model.ApplicationIDs, func(e *model.Entry, i int) { e.Application = model.Application(i) }),
	"Language":    enumField(model.LanguageIDs, func(e *model.Entry, i int) { e.Language = model.Language(i) }),
	"Subsystem":   enumField(model.SubsystemIDs, func(e *model.Entry, i int) { e.Subsystem = model.Subsystem(i) }),

	"Optimization": boolField(func(e *model.Entry, v bool) { e.Optimization = v }),
	"DebugSymbol":  boolField(func(e *model.Entry, v bool) { e.DebugSymbol = v }),

	"Build":          stringField(func(e *model.Entry, v string) { e.Build = v }),
	"BuildDirectory": stringField(func(e *model.Entry, v string) { e.BuildDirectory = v }),
	"ResourceFile":   stringField(func(e *model.Entry, v string) { e.ResourceFile = v }),
	"Prebuild":       stringField(func(e *model.Entry, v string) { e.Prebuild = v }),
	"Postbuild":      stringField(func(e *model.Entry, v string) { e.Postbuild = v }),

	"Defines":            listField(func(e *model.Entry) *[]string { return &e.Defines }),
	"IncludeDirectories": listField(func(e *model.Entry) *[]string { return &e.IncludeDirectories }),
	"Sources":            listField(func(e *model.Entry) *[]string { return &e.Sources }),
	"LibraryDirectories": listField(func(e *model.Entry) *[]string { return &e.LibraryDirectories }),
	"Libraries":          listField(func(e *model.Entry) *[]string { return &e.Libraries }),
	"Flags":              listField(func(e *model.Entry) *[]string { return &e.Flags }),
	"LinkerFlags":        listField(func(e *model.Entry) *[]string { return &e.LinkerFlags }),
	"ProjectDirectories": listField(func(e *model.Entry) *[]string { return &e.ProjectDirectories }),
	"IgnoredDirectories": listField(func(e *model.Entry) *[]string { return &e.IgnoredDirectories }),
}

// Keys returns the published property keys
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	return keys
}

// Describe returns how the values of key are read, for help output
func Describe(key string) (string, bool) {
	f, ok := fields[key]
	if !ok {
		return "", false
	}
	switch f.kind {
	case kindEnum:
		return "one of " + strings.Join(f.ids, ", "), true
	case kindBool:
		return "true/false or 1/0", true
	case kindString:
		return "single value", true
	default:
		return "list, appended to", true
	}
}
