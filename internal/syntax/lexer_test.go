package syntax

import (
	"testing"

	"ccidl/internal/source"
)

func TestLexerPunctuationDoesNotAllocate(t *testing.T) {
	lx := NewLexer(source.NewFile("p.idl", []byte("{ } [ ] ( ) , ; ? :")))
	want := []Kind{LBrace, RBrace, LBrack, RBrack, LParen, RParen, Comma, Semicolon, Question, Colon, EOF}

	for i, kind := range want {
		tok, err := lx.Next()
		if err != nil {
			t.Fatalf("token %d: %v", i, err)
		}
		if tok.Kind != kind {
			t.Fatalf("token %d = %v, want %v", i, tok.Kind, kind)
		}
	}

	allocs := testing.AllocsPerRun(100, func() {
		lx.off = 0
		for {
			tok, err := lx.Next()
			if err != nil || tok.Kind == EOF {
				return
			}
		}
	})
	if allocs != 0 {
		t.Errorf("Next allocated %v times per pass", allocs)
	}
}
