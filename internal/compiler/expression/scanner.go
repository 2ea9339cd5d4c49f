package expression

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokString
	tokRegex
	tokTemplate
	tokPunct
)

// template chunk position
type tmplPart int

const (
	tmplNone tmplPart = iota
	tmplFull          // `abc`
	tmplHead          // `abc${
	tmplMiddle        // }abc${
	tmplTail          // }abc`
)

type token struct {
	kind  tokenKind
	text  string
	start int
	end   int
	tmpl  tmplPart
}

func (t token) is(text string) bool {
	return t.kind == tokPunct && t.text == text
}

// SyntaxError reports malformed expression source.
type SyntaxError struct {
	Msg    string
	Offset int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s (%d)", e.Msg, e.Offset)
}

// punctuators ordered longest first
var punctuators = []string{
	">>>=",
	"...", "===", "!==", "**=", "<<=", ">>=", ">>>", "&&=", "||=", "??=",
	"=>", "==", "!=", "<=", ">=", "&&", "||", "??", "?.", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "**", "<<", ">>",
	"{", "}", "(", ")", "[", "]", ";", ",", "<", ">", "+", "-", "*", "/",
	"%", "&", "|", "^", "!", "~", "?", ":", "=", ".", "@", "#",
}

type scanner struct {
	src    string
	pos    int
	toks   []token
	braces []byte // '{' for plain braces, '$' for template substitutions
}

func tokenize(src string) ([]token, error) {
	s := &scanner{src: src}
	if err := s.run(); err != nil {
		return nil, err
	}
	return s.toks, nil
}

func (s *scanner) errorf(offset int, format string, args ...interface{}) error {
	return &SyntaxError{Msg: fmt.Sprintf(format, args...), Offset: offset}
}

func (s *scanner) run() error {
	for {
		s.skipSpaceAndComments()
		if s.pos >= len(s.src) {
			return nil
		}
		c := s.src[s.pos]
		switch {
		case isIdentStart(c):
			s.scanIdent()
		case isDigit(c) || (c == '.' && s.pos+1 < len(s.src) && isDigit(s.src[s.pos+1])):
			if err := s.scanNumber(); err != nil {
				return err
			}
		case c == '"' || c == '\'':
			if err := s.scanString(c); err != nil {
				return err
			}
		case c == '`':
			s.pos++
			if err := s.scanTemplate(s.pos-1, true); err != nil {
				return err
			}
		case c == '}' && len(s.braces) > 0 && s.braces[len(s.braces)-1] == '$':
			s.braces = s.braces[:len(s.braces)-1]
			s.pos++
			if err := s.scanTemplate(s.pos-1, false); err != nil {
				return err
			}
		case c == '/' && s.regexAllowed():
			if err := s.scanRegex(); err != nil {
				return err
			}
		default:
			if err := s.scanPunct(); err != nil {
				return err
			}
		}
	}
}

func (s *scanner) skipSpaceAndComments() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f':
			s.pos++
		case strings.HasPrefix(s.src[s.pos:], "//"):
			nl := strings.IndexByte(s.src[s.pos:], '\n')
			if nl < 0 {
				s.pos = len(s.src)
			} else {
				s.pos += nl
			}
		case strings.HasPrefix(s.src[s.pos:], "/*"):
			end := strings.Index(s.src[s.pos+2:], "*/")
			if end < 0 {
				s.pos = len(s.src)
			} else {
				s.pos += end + 4
			}
		default:
			return
		}
	}
}

func (s *scanner) emit(kind tokenKind, start int, part tmplPart) {
	s.toks = append(s.toks, token{kind: kind, text: s.src[start:s.pos], start: start, end: s.pos, tmpl: part})
}

func (s *scanner) scanIdent() {
	start := s.pos
	for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
		s.pos++
	}
	s.emit(tokIdent, start, tmplNone)
}

func (s *scanner) scanNumber() error {
	start := s.pos
	src := s.src
	if src[s.pos] == '0' && s.pos+1 < len(src) && strings.ContainsRune("xXoObB", rune(src[s.pos+1])) {
		s.pos += 2
		for s.pos < len(src) && (isHexDigit(src[s.pos]) || src[s.pos] == '_') {
			s.pos++
		}
	} else {
		for s.pos < len(src) && (isDigit(src[s.pos]) || src[s.pos] == '_') {
			s.pos++
		}
		if s.pos < len(src) && src[s.pos] == '.' {
			s.pos++
			for s.pos < len(src) && (isDigit(src[s.pos]) || src[s.pos] == '_') {
				s.pos++
			}
		}
		if s.pos < len(src) && (src[s.pos] == 'e' || src[s.pos] == 'E') {
			s.pos++
			if s.pos < len(src) && (src[s.pos] == '+' || src[s.pos] == '-') {
				s.pos++
			}
			for s.pos < len(src) && isDigit(src[s.pos]) {
				s.pos++
			}
		}
	}
	if s.pos < len(src) && src[s.pos] == 'n' {
		s.pos++
	}
	if s.pos < len(src) && isIdentStart(src[s.pos]) {
		return s.errorf(s.pos, "Identifier directly after number")
	}
	s.emit(tokNumber, start, tmplNone)
	return nil
}

func (s *scanner) scanString(quote byte) error {
	start := s.pos
	s.pos++
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '\\':
			s.pos += 2
			continue
		case c == quote:
			s.pos++
			s.emit(tokString, start, tmplNone)
			return nil
		case c == '\n':
			return s.errorf(start, "Unterminated string constant")
		}
		s.pos++
	}
	return s.errorf(start, "Unterminated string constant")
}

// scanTemplate scans a template chunk. s.pos is just past the opening
// backtick (head) or closing brace of a substitution (continuation).
func (s *scanner) scanTemplate(start int, head bool) error {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '\\':
			s.pos += 2
			continue
		case c == '`':
			s.pos++
			part := tmplTail
			if head {
				part = tmplFull
			}
			s.emit(tokTemplate, start, part)
			return nil
		case c == '$' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '{':
			s.pos += 2
			part := tmplMiddle
			if head {
				part = tmplHead
			}
			s.emit(tokTemplate, start, part)
			s.braces = append(s.braces, '$')
			return nil
		}
		s.pos++
	}
	return s.errorf(start, "Unterminated template")
}

// regexAllowed reports whether a slash starts a regular expression literal,
// i.e. an operand is expected at this point.
func (s *scanner) regexAllowed() bool {
	if len(s.toks) == 0 {
		return true
	}
	prev := s.toks[len(s.toks)-1]
	switch prev.kind {
	case tokIdent:
		return isKeyword(prev.text) && !isLiteral(prev.text)
	case tokNumber, tokString, tokRegex:
		return false
	case tokTemplate:
		return prev.tmpl == tmplHead || prev.tmpl == tmplMiddle
	}
	switch prev.text {
	case ")", "]", "}", "++", "--":
		return false
	}
	return true
}

func (s *scanner) scanRegex() error {
	start := s.pos
	s.pos++
	inClass := false
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		switch {
		case c == '\\':
			s.pos += 2
			continue
		case c == '\n':
			return s.errorf(start, "Unterminated regular expression")
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '/' && !inClass:
			s.pos++
			for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
				s.pos++
			}
			s.emit(tokRegex, start, tmplNone)
			return nil
		}
		s.pos++
	}
	return s.errorf(start, "Unterminated regular expression")
}

func (s *scanner) scanPunct() error {
	rest := s.src[s.pos:]
	for _, p := range punctuators {
		if !strings.HasPrefix(rest, p) {
			continue
		}
		// a?.5:1 is a conditional, not optional chaining
		if p == "?." && len(rest) > 2 && isDigit(rest[2]) {
			continue
		}
		start := s.pos
		s.pos += len(p)
		switch p {
		case "{":
			s.braces = append(s.braces, '{')
		case "}":
			if len(s.braces) > 0 {
				s.braces = s.braces[:len(s.braces)-1]
			}
		}
		s.emit(tokPunct, start, tmplNone)
		return nil
	}
	return s.errorf(s.pos, "Unexpected character '%c'", s.src[s.pos])
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
