package ir

import (
	"strconv"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokLocal   // %name or %3
	tokGlobal  // @name
	tokInt     // -12
	tokString  // "text"
	tokCString // c"text\00"
	tokPunct   // = , ( ) [ ] { } : *
)

type token struct {
	kind tokenKind
	text string // identifier/name without sigil, decoded string body, or punct
	line int
	col  int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokLocal:
		return "%" + t.text
	case tokGlobal:
		return "@" + t.text
	case tokString:
		return strconv.Quote(t.text)
	case tokCString:
		return "c" + strconv.Quote(t.text)
	}
	return strconv.Quote(t.text)
}

type lexer struct {
	file string
	src  []byte
	pos  int
	line int
	col  int
}

func newLexer(file string, src []byte) *lexer {
	return &lexer{file: file, src: src, line: 1, col: 1}
}

func (l *lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func isNameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '_' || c == '.' || c == '$' || c == '-'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// tokens lexes the whole input. Comments run from ';' to end of line.
func (l *lexer) tokens() ([]token, error) {
	var toks []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	for l.pos < len(l.src) {
		c := l.peekByte()
		if c == ';' {
			for l.pos < len(l.src) && l.peekByte() != '\n' {
				l.advance()
			}
			continue
		}
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			l.advance()
			continue
		}
		break
	}

	tok := token{line: l.line, col: l.col}
	if l.pos >= len(l.src) {
		tok.kind = tokEOF
		return tok, nil
	}

	c := l.peekByte()
	switch {
	case c == '%' || c == '@':
		l.advance()
		name := l.name()
		if name == "" {
			return tok, newParseError(l.file, tok, "expected a name after %q", string(c))
		}
		tok.kind, tok.text = tokLocal, name
		if c == '@' {
			tok.kind = tokGlobal
		}
	case c == '"':
		s, err := l.quoted(tok)
		if err != nil {
			return tok, err
		}
		tok.kind, tok.text = tokString, s
	case c == 'c' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '"':
		l.advance()
		s, err := l.quoted(tok)
		if err != nil {
			return tok, err
		}
		tok.kind, tok.text = tokCString, s
	case isDigit(c) || c == '-' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]):
		start := l.pos
		l.advance()
		for isDigit(l.peekByte()) {
			l.advance()
		}
		tok.kind, tok.text = tokInt, string(l.src[start:l.pos])
	case isNameByte(c):
		tok.kind, tok.text = tokIdent, l.name()
	case c == '=' || c == ',' || c == '(' || c == ')' || c == '[' || c == ']' ||
		c == '{' || c == '}' || c == ':' || c == '*':
		l.advance()
		tok.kind, tok.text = tokPunct, string(c)
	default:
		return tok, newParseError(l.file, tok, "unexpected character %q", string(c))
	}
	return tok, nil
}

func (l *lexer) name() string {
	start := l.pos
	for l.pos < len(l.src) && isNameByte(l.peekByte()) {
		l.advance()
	}
	return string(l.src[start:l.pos])
}

// quoted reads a "..." literal. Escapes are \\ and \XX (two hex digits).
func (l *lexer) quoted(start token) (string, error) {
	l.advance() // opening quote
	var out []byte
	for {
		if l.pos >= len(l.src) || l.peekByte() == '\n' {
			return "", newParseError(l.file, start, "unterminated string literal")
		}
		c := l.advance()
		switch c {
		case '"':
			return string(out), nil
		case '\\':
			if l.peekByte() == '\\' {
				l.advance()
				out = append(out, '\\')
				continue
			}
			if l.pos+2 > len(l.src) {
				return "", newParseError(l.file, start, "truncated escape in string literal")
			}
			v, err := strconv.ParseUint(string(l.src[l.pos:l.pos+2]), 16, 8)
			if err != nil {
				return "", newParseError(l.file, start, "bad escape \\%s in string literal", l.src[l.pos:l.pos+2])
			}
			l.advance()
			l.advance()
			out = append(out, byte(v))
		default:
			out = append(out, c)
		}
	}
}
