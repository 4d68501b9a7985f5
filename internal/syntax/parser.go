// Package syntax turns IDL text into a metadata.Unit.
package syntax

import (
	"go/token"
	"strings"

	"ccidl/internal/diag"
	"ccidl/internal/metadata"
	"ccidl/internal/source"
)

type Parser struct {
	lx  *Lexer
	tok Token
}

// Parse reads a whole compilation unit. The first mismatch aborts the parse;
// no partial unit is returned.
func Parse(file *source.File) (*metadata.Unit, error) {
	p := &Parser{lx: NewLexer(file)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	unit, err := p.parseUnit()
	if err != nil {
		return nil, err
	}
	return unit, nil
}

func (p *Parser) advance() error {
	tok, err := p.lx.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *Parser) unexpected(want string) error {
	return diag.Errorf(diag.SyntaxError, p.tok.Span, "expected %s, found %s", want, p.tok)
}

func (p *Parser) expect(kind Kind) (Token, error) {
	tok := p.tok
	if tok.Kind != kind {
		return Token{}, p.unexpected(kind.String())
	}
	return tok, p.advance()
}

func (p *Parser) ident(what string) (metadata.Ref, error) {
	tok := p.tok
	if tok.Kind != Ident {
		return metadata.Ref{}, p.unexpected(what)
	}
	return metadata.Ref{Name: tok.Text, Span: tok.Span}, p.advance()
}

// name reads a declared name. Declared names end up as Go identifiers, so
// the sigils the lexer allows for host type spellings are rejected here.
// Method and parameter names may be keywords: they are renamed on output.
func (p *Parser) name(what string, keywordOK bool) (metadata.Ref, error) {
	ref, err := p.ident(what)
	if err != nil {
		return ref, err
	}
	if !isName(ref.Name, keywordOK) {
		return metadata.Ref{}, diag.Errorf(diag.SyntaxError, ref.Span, "%s %q is not a valid identifier", what, ref.Name)
	}
	return ref, nil
}

func isName(s string, keywordOK bool) bool {
	if strings.Trim(s, "_") == "" {
		return false
	}
	return token.IsIdentifier(s) || keywordOK && token.IsKeyword(s)
}

// accept consumes the current token if it has the given kind.
func (p *Parser) accept(kind Kind) (bool, error) {
	if p.tok.Kind != kind {
		return false, nil
	}
	return true, p.advance()
}

func (p *Parser) parseUnit() (*metadata.Unit, error) {
	unit := &metadata.Unit{}
	for p.tok.Kind != EOF {
		switch {
		case p.tok.Kind == Semicolon:
			if err := p.advance(); err != nil {
				return nil, err
			}
		case p.tok.Is("import"):
			imp, err := p.parseImport()
			if err != nil {
				return nil, err
			}
			unit.Imports = append(unit.Imports, imp)
		case p.tok.Is("module"):
			mod, err := p.parseModule()
			if err != nil {
				return nil, err
			}
			unit.Modules = append(unit.Modules, mod)
		case p.tok.Kind == LBrack, p.tok.Is("interface"), p.tok.Is("class"):
			decl, err := p.parseDecl()
			if err != nil {
				return nil, err
			}
			unit.Items = append(unit.Items, decl)
		default:
			return nil, p.unexpected("declaration")
		}
	}
	return unit, nil
}

func (p *Parser) parseImport() (metadata.Import, error) {
	start := p.tok.Span
	if err := p.advance(); err != nil {
		return metadata.Import{}, err
	}
	name, err := p.ident("import file name")
	if err != nil {
		return metadata.Import{}, err
	}
	end, err := p.expect(Semicolon)
	if err != nil {
		return metadata.Import{}, err
	}
	return metadata.Import{FileName: name.Name, Span: start.Cover(end.Span)}, nil
}

func (p *Parser) parseModule() (metadata.Module, error) {
	start := p.tok.Span
	if err := p.advance(); err != nil {
		return metadata.Module{}, err
	}
	if _, err := p.expect(LParen); err != nil {
		return metadata.Module{}, err
	}
	lang, err := p.ident("module language")
	if err != nil {
		return metadata.Module{}, err
	}
	if _, err := p.expect(RParen); err != nil {
		return metadata.Module{}, err
	}
	name, err := p.ident("module name")
	if err != nil {
		return metadata.Module{}, err
	}
	end, err := p.expect(Semicolon)
	if err != nil {
		return metadata.Module{}, err
	}
	return metadata.Module{Lang: lang.Name, Name: name.Name, Span: start.Cover(end.Span)}, nil
}

// parseAttrs reads an optional `[name(value), ...]` list.
func (p *Parser) parseAttrs() ([]metadata.RawAttribute, error) {
	if p.tok.Kind != LBrack {
		return nil, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	var attrs []metadata.RawAttribute
	for p.tok.Kind != RBrack {
		if len(attrs) > 0 {
			if _, err := p.expect(Comma); err != nil {
				return nil, err
			}
		}
		name, err := p.ident("attribute name")
		if err != nil {
			return nil, err
		}
		if p.tok.Kind != LParen {
			return nil, p.unexpected(LParen.String())
		}
		// The lexer sits right after '(' so the value can be read verbatim.
		value, _, err := p.lx.RawValue()
		if err != nil {
			return nil, err
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		end, err := p.expect(RParen)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, metadata.RawAttribute{Name: name.Name, Value: value, Span: name.Span.Cover(end.Span)})
	}
	return attrs, p.advance()
}

func (p *Parser) parseDecl() (metadata.Decl, error) {
	start := p.tok.Span
	raw, err := p.parseAttrs()
	if err != nil {
		return nil, err
	}

	var target metadata.Target
	switch {
	case p.tok.Is("interface"):
		target = metadata.TargetInterface
	case p.tok.Is("class"):
		target = metadata.TargetClass
	default:
		return nil, p.unexpected("'interface' or 'class'")
	}
	attrs, err := metadata.BuildAttributes(target, raw)
	if err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	name, err := p.name(target.String()+" name", false)
	if err != nil {
		return nil, err
	}
	var bases []metadata.Ref
	ok, err := p.accept(Colon)
	if err != nil {
		return nil, err
	}
	if ok {
		for {
			base, err := p.ident("base name")
			if err != nil {
				return nil, err
			}
			bases = append(bases, base)
			if ok, err = p.accept(Comma); err != nil {
				return nil, err
			} else if !ok {
				break
			}
		}
	}

	if _, err := p.expect(LBrace); err != nil {
		return nil, err
	}
	var methods []*metadata.Method
	for p.tok.Kind != RBrace {
		m, err := p.parseMethod()
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	end, err := p.expect(RBrace)
	if err != nil {
		return nil, err
	}

	span := start.Cover(end.Span)
	if target == metadata.TargetInterface {
		return &metadata.Interface{Name: name.Name, Bases: bases, Methods: methods, Attrs: attrs, Span: span}, nil
	}
	return &metadata.Class{Name: name.Name, Bases: bases, Methods: methods, Attrs: attrs, Span: span}, nil
}

func (p *Parser) parseMethod() (*metadata.Method, error) {
	start := p.tok.Span
	raw, err := p.parseAttrs()
	if err != nil {
		return nil, err
	}
	attrs, err := metadata.BuildAttributes(metadata.TargetMethod, raw)
	if err != nil {
		return nil, err
	}
	ret, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.name("method name", true)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LParen); err != nil {
		return nil, err
	}
	var params []*metadata.Parameter
	for p.tok.Kind != RParen {
		if len(params) > 0 {
			if _, err := p.expect(Comma); err != nil {
				return nil, err
			}
		}
		param, err := p.parseParam()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	end, err := p.expect(Semicolon)
	if err != nil {
		return nil, err
	}
	return &metadata.Method{
		Name:       name.Name,
		ReturnType: ret,
		Params:     params,
		Attrs:      attrs,
		Span:       start.Cover(end.Span),
	}, nil
}

func (p *Parser) parseParam() (*metadata.Parameter, error) {
	start := p.tok.Span
	var names []metadata.Ref
	if p.tok.Kind == LBrack {
		if err := p.advance(); err != nil {
			return nil, err
		}
		for p.tok.Kind != RBrack {
			if len(names) > 0 {
				if _, err := p.expect(Comma); err != nil {
					return nil, err
				}
			}
			n, err := p.ident("parameter attribute")
			if err != nil {
				return nil, err
			}
			names = append(names, n)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	attrs, err := metadata.BuildParamAttributes(names)
	if err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.name("parameter name", true)
	if err != nil {
		return nil, err
	}
	return &metadata.Parameter{Name: name.Name, Type: typ, Attrs: attrs, Span: start.Cover(name.Span)}, nil
}

func (p *Parser) parseType() (metadata.TypeExpr, error) {
	name, err := p.ident("type")
	if err != nil {
		return metadata.TypeExpr{}, err
	}
	typ := metadata.TypeExpr{Name: name.Name, Form: metadata.FormNamed, Span: name.Span}
	switch p.tok.Kind {
	case LBrack:
		if err := p.advance(); err != nil {
			return metadata.TypeExpr{}, err
		}
		end, err := p.expect(RBrack)
		if err != nil {
			return metadata.TypeExpr{}, err
		}
		typ.Form = metadata.FormArray
		typ.Span = typ.Span.Cover(end.Span)
	case Question:
		typ.Form = metadata.FormOptional
		typ.Span = typ.Span.Cover(p.tok.Span)
		if err := p.advance(); err != nil {
			return metadata.TypeExpr{}, err
		}
	}
	return typ, nil
}
