// Package resolver turns the token stream of a build.muda file into a
// collection of configuration entries, applying section filters for the
// host platform and the selected compiler.
package resolver

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ThandieOps/muda/internal/lexer"
	"github.com/ThandieOps/muda/internal/model"
	"github.com/ThandieOps/muda/internal/plugin"
	"github.com/ThandieOps/muda/internal/version"
)

// Context carries everything the resolver needs from the run
type Context struct {
	Log      *slog.Logger
	OS       model.OS
	Compiler model.Compiler
	Hook     plugin.Hook
}

// Source is one configuration file to resolve
type Source struct {
	// Path is used in diagnostics only
	Path string
	// DirName is the directory reported to the plugin for unknown properties
	DirName string
	Data    []byte
}

// ParseError is a fatal problem at a known position in a file
type ParseError struct {
	Path   string
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Msg)
}

// VersionError reports a missing, malformed or unsupported version tag
type VersionError struct {
	Path    string
	Version string
	Msg     string
}

func (e *VersionError) Error() string {
	prefix := ""
	if e.Path != "" {
		prefix = e.Path + ": "
	}
	if e.Version == "" || !version.Valid(e.Version) {
		return prefix + e.Msg
	}
	return fmt.Sprintf("%sversion %s not supported (minimum supported: %s, current: %s)",
		prefix, e.Version, version.MinSupported, version.Current)
}

type resolver struct {
	ctx *Context
	src Source
	lex *lexer.Lexer

	configs *model.Collection
	entry   *model.Entry
	section Section
	// named is false until the first config header or property is seen.
	// Only a header arriving before that renames the default entry.
	named bool
}

// Parse resolves src into a collection. The returned error is a
// *ParseError or *VersionError; warnings are logged through ctx.Log.
func Parse(ctx *Context, src Source) (*model.Collection, error) {
	if ctx.Hook == nil {
		ctx.Hook = plugin.Null{}
	}
	r := &resolver{
		ctx:     ctx,
		src:     src,
		lex:     lexer.New(src.Data),
		configs: model.NewCollection(),
		section: AllSection,
	}
	r.entry = r.configs.FindOrAdd(model.DefaultEntryName)

	if err := r.checkVersion(); err != nil {
		return nil, err
	}
	for r.lex.Next() {
		if err := r.apply(r.lex.Token()); err != nil {
			return nil, err
		}
	}
	return r.configs, nil
}

func (r *resolver) errorAt(tok lexer.Token, format string, args ...any) *ParseError {
	return &ParseError{Path: r.src.Path, Line: tok.Line, Column: tok.Column, Msg: fmt.Sprintf(format, args...)}
}

func (r *resolver) checkVersion() error {
	var tok lexer.Token
	found := false
	for r.lex.Next() {
		tok = r.lex.Token()
		if tok.Kind != lexer.Comment {
			found = true
			break
		}
	}
	if found && tok.Kind == lexer.Error {
		return r.errorAt(tok, "%s", tok.Value)
	}
	if !found || tok.Kind != lexer.Tag || !strings.EqualFold(tok.Key, "version") {
		return &VersionError{Path: r.src.Path, Msg: "version tag missing at top of file"}
	}
	if tok.Value == "" {
		return &VersionError{Path: r.src.Path, Msg: "version info missing"}
	}
	if !version.Valid(tok.Value) {
		return &VersionError{Path: r.src.Path, Version: tok.Value, Msg: fmt.Sprintf("bad file version %q", tok.Value)}
	}
	if !version.InRange(tok.Value, version.MinSupported, version.Current) {
		return &VersionError{Path: r.src.Path, Version: tok.Value}
	}
	return nil
}

func (r *resolver) apply(tok lexer.Token) error {
	switch tok.Kind {
	case lexer.Comment:
	case lexer.Tag:
		r.ctx.Log.Warn("tag not supported, ignored", "file", r.src.Path, "line", tok.Line, "column", tok.Column, "tag", tok.Key)
	case lexer.Config:
		r.section = AllSection
		if !r.named {
			r.configs.Rename(r.entry, tok.Value)
			r.named = true
		} else {
			r.entry = r.configs.FindOrAdd(tok.Value)
		}
	case lexer.Section:
		s, ok := ParseSection(tok.Value)
		if !ok {
			return r.errorAt(tok, "unknown section: %s", tok.Value)
		}
		r.section = s
	case lexer.Property:
		r.named = true
		return r.property(tok)
	case lexer.Error:
		return r.errorAt(tok, "%s", tok.Value)
	}
	return nil
}

func (r *resolver) property(tok lexer.Token) error {
	if !r.section.Matches(r.ctx.OS, r.ctx.Compiler) {
		return nil
	}
	if len(tok.Values) == 0 {
		return nil
	}

	f, ok := fields[tok.Key]
	if !ok {
		return r.unhandled(tok)
	}

	switch f.kind {
	case kindEnum:
		for i, id := range f.ids {
			if id == tok.Values[0] {
				f.setEnum(r.entry, i)
				return nil
			}
		}
		r.ctx.Log.Warn("invalid value for property",
			"file", r.src.Path,
			"line", tok.Line,
			"column", tok.Column,
			"property", tok.Key,
			"value", tok.Values[0],
			"accepted", strings.Join(f.ids, ", "))

	case kindBool:
		if len(tok.Values) != 1 {
			return r.errorAt(tok, "%s property only accepts a single value", tok.Key)
		}
		v := tok.Values[0]
		switch {
		case v == "1" || strings.EqualFold(v, "true"):
			f.setBool(r.entry, true)
		case v == "0" || strings.EqualFold(v, "false"):
			f.setBool(r.entry, false)
		default:
			return r.errorAt(tok, "expected boolean for %s: %s", tok.Key, v)
		}

	case kindString:
		if len(tok.Values) != 1 {
			return r.errorAt(tok, "%s property only accepts a single value", tok.Key)
		}
		f.setString(r.entry, tok.Values[0])

	case kindStringList:
		f.appendList(r.entry, tok.Values)
	}
	return nil
}

func (r *resolver) unhandled(tok lexer.Token) error {
	ev := &plugin.ParseEvent{
		Key:        tok.Key,
		Values:     tok.Values,
		Section:    plugin.Section{OS: r.section.OS, Compiler: r.section.Compiler},
		ConfigName: r.entry.Name,
		Directory:  r.src.DirName,
	}
	if err := r.ctx.Hook.OnUnhandledProperty(ev); err != nil {
		r.ctx.Log.Warn("invalid property, ignored",
			"file", r.src.Path,
			"line", tok.Line,
			"column", tok.Column,
			"property", tok.Key)
	}
	return nil
}
