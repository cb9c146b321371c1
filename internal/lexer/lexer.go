// Package lexer splits the contents of a build.muda file into tokens.
//
// The format is line oriented:
//
//	# comment
//	@version: 1.2.0
//	:Debug
//	[OS.WINDOWS.CL]
//	Defines = DEBUG, "NAME=two words"
//	Optimization = false;
//
// A Lexer is a single-pass stream: call Next until it returns false and read
// each token with Token. A grammar violation produces one Error token and
// ends the stream.
package lexer

import (
	"bytes"
	"fmt"
	"strings"
)

// Kind is the type of a token
type Kind int

const (
	Comment Kind = iota
	Tag
	Config
	Section
	Property
	Error
)

var kindNames = [...]string{"Comment", "Tag", "Config", "Section", "Property", "Error"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is one lexical element. Line and Column are 1-based and point at
// the first character of the token, or at the offending character for
// Error tokens.
type Token struct {
	Kind   Kind
	Line   int
	Column int

	// Key is the tag name or the property key
	Key string
	// Value is the tag value, config name, section text, comment text or
	// error description depending on Kind.
	Value string
	// Values are the property values in source order
	Values []string
}

func (t Token) String() string {
	switch t.Kind {
	case Property:
		return fmt.Sprintf("%d:%d %s %s=%q", t.Line, t.Column, t.Kind, t.Key, t.Values)
	case Tag:
		return fmt.Sprintf("%d:%d %s %s:%q", t.Line, t.Column, t.Kind, t.Key, t.Value)
	default:
		return fmt.Sprintf("%d:%d %s %q", t.Line, t.Column, t.Kind, t.Value)
	}
}

var bom = []byte{0xEF, 0xBB, 0xBF}

// Lexer produces tokens from a byte slice
type Lexer struct {
	data []byte
	pos  int
	line int
	done bool
	tok  Token
}

// New returns a lexer positioned before the first token of data
func New(data []byte) *Lexer {
	return &Lexer{data: bytes.TrimPrefix(data, bom), line: 1}
}

// Token returns the token produced by the last successful call to Next
func (l *Lexer) Token() Token {
	return l.tok
}

// Next advances to the next token. It returns false at the end of input
// and after an Error token has been produced.
func (l *Lexer) Next() bool {
	if l.done {
		return false
	}
	for l.pos < len(l.data) {
		end := bytes.IndexByte(l.data[l.pos:], '\n')
		var raw []byte
		if end < 0 {
			raw = l.data[l.pos:]
			l.pos = len(l.data)
		} else {
			raw = l.data[l.pos : l.pos+end]
			l.pos += end + 1
		}
		line := strings.TrimRight(string(raw), "\r")
		lineNo := l.line
		l.line++

		start := indexNonSpace(line, 0)
		if start < 0 {
			continue
		}
		l.tok = scanLine(line, lineNo, start)
		if l.tok.Kind == Error {
			l.done = true
		}
		return true
	}
	l.done = true
	return false
}

func scanLine(line string, lineNo, start int) Token {
	s := &lineScanner{text: line, line: lineNo, pos: start}
	switch c := line[start]; {
	case c == '#':
		return Token{Kind: Comment, Line: lineNo, Column: start + 1, Value: strings.TrimSpace(line[start+1:])}
	case c == '@':
		return s.tag()
	case c == ':':
		return s.config()
	case c == '[':
		return s.section()
	case isKeyStart(c):
		return s.property()
	default:
		return s.errorf(start, "unexpected character %q", c)
	}
}

type lineScanner struct {
	text string
	line int
	pos  int
}

func (s *lineScanner) errorf(at int, format string, args ...any) Token {
	return Token{Kind: Error, Line: s.line, Column: at + 1, Value: fmt.Sprintf(format, args...)}
}

func (s *lineScanner) skipSpace() {
	for s.pos < len(s.text) && isSpace(s.text[s.pos]) {
		s.pos++
	}
}

func (s *lineScanner) atEnd() bool {
	return s.pos >= len(s.text)
}

func (s *lineScanner) key() string {
	begin := s.pos
	if s.atEnd() || !isKeyStart(s.text[s.pos]) {
		return ""
	}
	for s.pos < len(s.text) && isKeyChar(s.text[s.pos]) {
		s.pos++
	}
	return s.text[begin:s.pos]
}

func (s *lineScanner) tag() Token {
	col := s.pos + 1
	s.pos++ // @
	key := s.key()
	if key == "" {
		return s.errorf(s.pos, "expected tag name after '@'")
	}
	s.skipSpace()
	if !s.atEnd() && s.text[s.pos] == ':' {
		s.pos++
	}
	return s.tagValue(col, key)
}

// tagValue takes the rest of the line as the value of tag key. A trailing
// ';' is dropped, as on property lines.
func (s *lineScanner) tagValue(col int, key string) Token {
	value := strings.TrimSpace(s.text[s.pos:])
	value = strings.TrimSpace(strings.TrimSuffix(value, ";"))
	return Token{Kind: Tag, Line: s.line, Column: col, Key: key, Value: value}
}

func (s *lineScanner) config() Token {
	col := s.pos + 1
	s.pos++ // :
	s.skipSpace()
	name := strings.TrimSpace(s.text[s.pos:])
	if name == "" {
		return s.errorf(s.pos, "expected configuration name after ':'")
	}
	if i := strings.IndexAny(name, " \t"); i >= 0 {
		return s.errorf(s.pos+i, "configuration name %q must not contain whitespace", name)
	}
	return Token{Kind: Config, Line: s.line, Column: col, Value: name}
}

func (s *lineScanner) section() Token {
	col := s.pos + 1
	s.pos++ // [
	end := strings.IndexByte(s.text[s.pos:], ']')
	if end < 0 {
		return s.errorf(len(s.text), "expected ']' to close section")
	}
	text := strings.TrimSpace(s.text[s.pos : s.pos+end])
	if text == "" {
		return s.errorf(s.pos, "empty section")
	}
	s.pos += end + 1
	s.skipSpace()
	if !s.atEnd() {
		return s.errorf(s.pos, "unexpected %q after section", s.text[s.pos:])
	}
	return Token{Kind: Section, Line: s.line, Column: col, Value: text}
}

func (s *lineScanner) property() Token {
	col := s.pos + 1
	key := s.key()
	s.skipSpace()
	if s.atEnd() {
		return Token{Kind: Property, Line: s.line, Column: col, Key: key}
	}
	switch s.text[s.pos] {
	case ';':
		s.pos++
		if tok, ok := s.trailing(); !ok {
			return tok
		}
		return Token{Kind: Property, Line: s.line, Column: col, Key: key}
	case ':':
		// key: value is a tag without the '@'
		s.pos++
		return s.tagValue(col, key)
	case '=':
		s.pos++
	default:
		return s.errorf(s.pos, "expected '=' after property %q", key)
	}

	var values []string
	for {
		s.skipSpace()
		if s.atEnd() || s.text[s.pos] == ';' {
			return s.errorf(s.pos, "expected value for property %q", key)
		}
		var v string
		if s.text[s.pos] == '"' {
			q, tok, ok := s.quoted()
			if !ok {
				return tok
			}
			v = q
		} else {
			begin := s.pos
			for s.pos < len(s.text) && s.text[s.pos] != ',' && s.text[s.pos] != ';' && s.text[s.pos] != '"' {
				s.pos++
			}
			if !s.atEnd() && s.text[s.pos] == '"' {
				return s.errorf(s.pos, "unexpected quote inside value")
			}
			v = strings.TrimRight(s.text[begin:s.pos], " \t")
			if v == "" {
				return s.errorf(begin, "expected value for property %q", key)
			}
		}
		values = append(values, v)

		s.skipSpace()
		if s.atEnd() {
			break
		}
		if s.text[s.pos] == ',' {
			s.pos++
			continue
		}
		if s.text[s.pos] == ';' {
			s.pos++
			if tok, ok := s.trailing(); !ok {
				return tok
			}
			break
		}
		return s.errorf(s.pos, "expected ',' or end of line, found %q", s.text[s.pos])
	}
	return Token{Kind: Property, Line: s.line, Column: col, Key: key, Values: values}
}

// trailing accepts only whitespace after a terminating ';'
func (s *lineScanner) trailing() (Token, bool) {
	s.skipSpace()
	if !s.atEnd() {
		return s.errorf(s.pos, "unexpected %q after ';'", s.text[s.pos:]), false
	}
	return Token{}, true
}

func (s *lineScanner) quoted() (string, Token, bool) {
	open := s.pos
	s.pos++
	var b strings.Builder
	for s.pos < len(s.text) {
		c := s.text[s.pos]
		switch c {
		case '"':
			s.pos++
			return b.String(), Token{}, true
		case '\\':
			if s.pos+1 < len(s.text) && (s.text[s.pos+1] == '"' || s.text[s.pos+1] == '\\') {
				b.WriteByte(s.text[s.pos+1])
				s.pos += 2
				continue
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
		s.pos++
	}
	return "", s.errorf(open, "unterminated quoted value"), false
}

func indexNonSpace(s string, from int) int {
	for i := from; i < len(s); i++ {
		if !isSpace(s[i]) {
			return i
		}
	}
	return -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\v' || c == '\f'
}

func isKeyStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKeyChar(c byte) bool {
	return isKeyStart(c) || (c >= '0' && c <= '9') || c == '.' || c == '-'
}
