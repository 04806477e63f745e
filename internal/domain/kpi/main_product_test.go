package kpi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/sales-kpi-api/internal/domain/kpi"
)

func TestMainProductMatcher(t *testing.T) {
	m := kpi.NewMainProductMatcher(kpi.DefaultMainProducts)

	assert.True(t, m.Matches("임플란트, 기공소재"))
	assert.True(t, m.Matches("custom abutment"), "la comparación no distingue mayúsculas")
	assert.True(t, m.Matches("지르코니아 블록"))
	assert.False(t, m.Matches("소모품"))
	assert.False(t, m.Matches(""))
}

func TestMainProductMatcher_TextoNFD(t *testing.T) {
	m := kpi.NewMainProductMatcher([]string{"지르코니아"})
	decomposed := norm.NFD.String("지르코니아")
	assert.NotEqual(t, "지르코니아", decomposed)
	assert.True(t, m.Matches(decomposed))
}

func TestMainProductMatcher_IgnoraPalabrasVacias(t *testing.T) {
	m := kpi.NewMainProductMatcher([]string{" ", "", "kis"})
	assert.Equal(t, []string{"KIS"}, m.Keywords())
	assert.False(t, m.Matches("소모품"))
}
