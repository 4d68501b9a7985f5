package syntax

import (
	"ccidl/internal/diag"
	"ccidl/internal/source"
)

// Lexer produces tokens on demand so the parser can switch to raw mode for
// attribute values.
type Lexer struct {
	file *source.File
	off  uint32
}

func NewLexer(file *source.File) *Lexer {
	return &Lexer{file: file}
}

func (lx *Lexer) eof() bool {
	return lx.off >= lx.file.Len()
}

func (lx *Lexer) peek() byte {
	if lx.eof() {
		return 0
	}
	return lx.file.Content[lx.off]
}

func (lx *Lexer) peek2() (byte, byte) {
	if lx.off+1 >= lx.file.Len() {
		return lx.peek(), 0
	}
	return lx.file.Content[lx.off], lx.file.Content[lx.off+1]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isLetter(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b == '_'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Identifiers carry the sigils needed to spell compound host types directly.
func isIdentByte(b byte) bool {
	switch b {
	case '&', '*', '.', '<', '>', '/':
		return true
	}
	return isLetter(b) || isDigit(b)
}

// skipTrivia skips whitespace and comments.
func (lx *Lexer) skipTrivia() error {
	for !lx.eof() {
		b0, b1 := lx.peek2()
		switch {
		case isSpace(b0):
			lx.off++
		case b0 == '/' && b1 == '/':
			for !lx.eof() && lx.peek() != '\n' {
				lx.off++
			}
		case b0 == '/' && b1 == '*':
			start := lx.off
			lx.off += 2
			for {
				if lx.eof() {
					return diag.Errorf(diag.SyntaxError, source.Span{Start: start, End: lx.off}, "unterminated block comment")
				}
				c0, c1 := lx.peek2()
				if c0 == '*' && c1 == '/' {
					lx.off += 2
					break
				}
				lx.off++
			}
		default:
			return nil
		}
	}
	return nil
}

var single = map[byte]Kind{
	'{': LBrace, '}': RBrace, '[': LBrack, ']': RBrack,
	'(': LParen, ')': RParen, ',': Comma, ';': Semicolon, '?': Question,
}

func (lx *Lexer) Next() (Token, error) {
	if err := lx.skipTrivia(); err != nil {
		return Token{}, err
	}
	start := lx.off
	if lx.eof() {
		return Token{Kind: EOF, Span: source.Span{Start: start, End: start}}, nil
	}

	b0, b1 := lx.peek2()
	if kind, ok := single[b0]; ok {
		lx.off++
		return lx.token(kind, start), nil
	}
	if b0 == ':' && b1 != ':' {
		lx.off++
		return lx.token(Colon, start), nil
	}
	if isIdentByte(b0) || b0 == ':' {
		lx.scanIdent()
		return lx.token(Ident, start), nil
	}

	lx.off++
	tok := lx.token(Invalid, start)
	return tok, diag.Errorf(diag.SyntaxError, tok.Span, "unexpected character %q", b0)
}

func (lx *Lexer) scanIdent() {
	for !lx.eof() {
		b0, b1 := lx.peek2()
		switch {
		case b0 == ':' && b1 == ':':
			lx.off += 2
		case b0 == '/' && (b1 == '/' || b1 == '*'):
			return
		case isIdentByte(b0):
			lx.off++
		default:
			return
		}
	}
}

func (lx *Lexer) token(kind Kind, start uint32) Token {
	return Token{
		Kind: kind,
		Text: string(lx.file.Content[start:lx.off]),
		Span: source.Span{Start: start, End: lx.off},
	}
}

// RawValue reads free text up to the parenthesis closing the one just
// consumed. Nested pairs are kept in the value. The closing ')' is left for
// the next call to Next.
func (lx *Lexer) RawValue() (string, source.Span, error) {
	start := lx.off
	depth := 0
	for !lx.eof() {
		switch lx.peek() {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				span := source.Span{Start: start, End: lx.off}
				return string(lx.file.Content[start:lx.off]), span, nil
			}
			depth--
		}
		lx.off++
	}
	return "", source.Span{}, diag.Errorf(diag.SyntaxError, source.Span{Start: start, End: lx.off}, "unterminated attribute value")
}
