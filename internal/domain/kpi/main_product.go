package kpi

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// DefaultMainProducts categorías prioritarias (implantes, zirconia, abutment).
var DefaultMainProducts = []string{"임플란트", "지르코니아", "ABUTMENT", "KIS", "TL"}

// MainProductMatcher decide si el texto de productos vendidos de un cliente incluye
// alguna categoría principal. La comparación se hace sobre texto NFC en mayúsculas,
// así "Abutment" y un "임플란트" en forma NFD coinciden igual.
type MainProductMatcher struct {
	keywords []string
}

// NewMainProductMatcher construye el matcher; ignora palabras vacías.
func NewMainProductMatcher(keywords []string) *MainProductMatcher {
	m := &MainProductMatcher{}
	for _, k := range keywords {
		if n := normalizeProduct(k); n != "" {
			m.keywords = append(m.keywords, n)
		}
	}
	return m
}

// Matches informa si salesProduct contiene alguna palabra clave.
func (m *MainProductMatcher) Matches(salesProduct string) bool {
	text := normalizeProduct(salesProduct)
	if text == "" {
		return false
	}
	for _, k := range m.keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// Keywords devuelve las palabras clave normalizadas.
func (m *MainProductMatcher) Keywords() []string {
	out := make([]string, len(m.keywords))
	copy(out, m.keywords)
	return out
}

func normalizeProduct(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return cases.Upper(language.Und).String(norm.NFC.String(s))
}
