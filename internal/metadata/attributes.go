package metadata

import (
	"go/token"
	"strings"

	"github.com/google/uuid"

	"ccidl/internal/diag"
	"ccidl/internal/source"
)

// Target is the kind of declaration an attribute list is attached to.
type Target uint8

const (
	TargetInterface Target = iota
	TargetClass
	TargetMethod
)

func (t Target) String() string {
	switch t {
	case TargetInterface:
		return "interface"
	case TargetClass:
		return "class"
	case TargetMethod:
		return "method"
	}
	return "unknown"
}

// RawAttribute is one `name(value)` entry as written.
type RawAttribute struct {
	Name  string
	Value string
	Span  source.Span
}

// Attributes is the validated attribute record of a declaration.
type Attributes struct {
	UUID          uuid.NullUUID
	CodegenIgnore bool
	// InnerField names the field of the wrapped value that holds the implementation.
	InnerField string
	Internal   bool
	// Extra keeps attributes this compiler does not interpret.
	Extra map[string]string
}

type ParamAttributes struct {
	Out   bool
	Extra []string
}

var attributeTargets = map[string][]Target{
	"uuid":             {TargetInterface, TargetClass},
	"codegen":          {TargetInterface},
	"inner_field":      {TargetClass},
	"rust_inner_field": {TargetClass},
	"internal":         {TargetMethod},
}

// BuildAttributes validates raw entries for the given target.
func BuildAttributes(target Target, raw []RawAttribute) (Attributes, error) {
	var attrs Attributes
	seen := make(map[string]bool, len(raw))
	for _, a := range raw {
		if seen[a.Name] {
			return Attributes{}, diag.Errorf(diag.SynDuplicateAttribute, a.Span, "duplicate attribute %q", a.Name)
		}
		seen[a.Name] = true

		targets, known := attributeTargets[a.Name]
		if !known {
			if attrs.Extra == nil {
				attrs.Extra = make(map[string]string)
			}
			attrs.Extra[a.Name] = a.Value
			continue
		}
		if !allows(targets, target) {
			return Attributes{}, diag.Errorf(diag.SynInvalidAttribute, a.Span, "attribute %q is not allowed on a %s", a.Name, target)
		}

		value := strings.TrimSpace(a.Value)
		switch a.Name {
		case "uuid":
			id, err := uuid.Parse(value)
			if err != nil {
				return Attributes{}, diag.Errorf(diag.SynInvalidAttribute, a.Span, "invalid uuid %q: %v", value, err)
			}
			attrs.UUID = uuid.NullUUID{UUID: id, Valid: true}
		case "codegen":
			if value != "ignore" {
				return Attributes{}, diag.Errorf(diag.SynInvalidAttribute, a.Span, "unsupported codegen mode %q", value)
			}
			attrs.CodegenIgnore = true
		case "inner_field", "rust_inner_field":
			if attrs.InnerField != "" {
				return Attributes{}, diag.Errorf(diag.SynDuplicateAttribute, a.Span, "inner field given twice")
			}
			if value == "" {
				return Attributes{}, diag.Errorf(diag.SynInvalidAttribute, a.Span, "empty inner field name")
			}
			if !token.IsIdentifier(ExportedName(value)) {
				return Attributes{}, diag.Errorf(diag.SynInvalidAttribute, a.Span, "inner field %q is not a valid identifier", value)
			}
			attrs.InnerField = value
		case "internal":
			attrs.Internal = true
		}
	}
	return attrs, nil
}

func allows(targets []Target, t Target) bool {
	for _, candidate := range targets {
		if candidate == t {
			return true
		}
	}
	return false
}

// BuildParamAttributes validates a parameter's `[a, b]` list.
func BuildParamAttributes(names []Ref) (ParamAttributes, error) {
	var attrs ParamAttributes
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n.Name] {
			return ParamAttributes{}, diag.Errorf(diag.SynDuplicateAttribute, n.Span, "duplicate parameter attribute %q", n.Name)
		}
		seen[n.Name] = true
		if n.Name == "out" {
			attrs.Out = true
			continue
		}
		attrs.Extra = append(attrs.Extra, n.Name)
	}
	return attrs, nil
}
