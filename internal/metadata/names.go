package metadata

import (
	"go/token"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ExportedName turns an IDL method name into an exported Go identifier:
// query_interface -> QueryInterface, Bar -> Bar.
func ExportedName(name string) string {
	caser := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}
		b.WriteString(caser.String(part))
	}
	if b.Len() == 0 {
		return name
	}
	return b.String()
}

// UnexportedName lowers the first letter: CFoo -> cFoo.
func UnexportedName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}

// Suffixes of the temporaries generated bodies derive from a parameter's
// local name. LocalName never returns a name carrying one of them.
const (
	RawSuffix  = "Raw"
	SafeSuffix = "Safe"
)

// LocalName makes a parameter name usable as a Go identifier in generated
// bodies, which reserve a few locals of their own.
func LocalName(name string, reserved map[string]bool) string {
	for token.IsKeyword(name) || reserved[name] ||
		strings.HasSuffix(name, RawSuffix) || strings.HasSuffix(name, SafeSuffix) {
		name += "_"
	}
	return name
}
