package syntax

import (
	"fmt"

	"ccidl/internal/source"
)

type Kind uint8

const (
	Invalid Kind = iota
	EOF
	Ident
	LBrace
	RBrace
	LBrack
	RBrack
	LParen
	RParen
	Colon
	Comma
	Semicolon
	Question
)

var kindNames = [...]string{
	Invalid:   "invalid character",
	EOF:       "end of input",
	Ident:     "identifier",
	LBrace:    "'{'",
	RBrace:    "'}'",
	LBrack:    "'['",
	RBrack:    "']'",
	LParen:    "'('",
	RParen:    "')'",
	Colon:     "':'",
	Comma:     "','",
	Semicolon: "';'",
	Question:  "'?'",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

type Token struct {
	Kind Kind
	Text string
	Span source.Span
}

func (t Token) String() string {
	if t.Kind == Ident || t.Kind == Invalid {
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	}
	return t.Kind.String()
}

// Is reports whether t is the identifier word.
func (t Token) Is(word string) bool {
	return t.Kind == Ident && t.Text == word
}
