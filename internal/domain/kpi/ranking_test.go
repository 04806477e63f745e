package kpi_test

import (
	"fmt"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/sales-kpi-api/internal/domain/kpi"
)

func ranksByID(results []kpi.RankResult) map[string]int {
	out := make(map[string]int, len(results))
	for _, r := range results {
		out[r.EmployeeID] = r.Rank
	}
	return out
}

// Escenario: contribuciones [40, 40, 20] → ranks [1, 1, 3].
func TestRankCompetition_EmpateComparteRank(t *testing.T) {
	results := kpi.RankCompetition([]kpi.RankInput{
		{EmployeeID: "a", EmployeeName: "김영업", Value: d("40")},
		{EmployeeID: "b", EmployeeName: "이영업", Value: d("40")},
		{EmployeeID: "c", EmployeeName: "박영업", Value: d("20")},
	})
	ranks := ranksByID(results)
	assert.Equal(t, 1, ranks["a"])
	assert.Equal(t, 1, ranks["b"])
	assert.Equal(t, 3, ranks["c"])
}

func TestRankCompetition_AcumuladoPareto(t *testing.T) {
	results := kpi.RankCompetition([]kpi.RankInput{
		{EmployeeID: "c", Value: d("20")},
		{EmployeeID: "a", Value: d("50")},
		{EmployeeID: "b", Value: d("30")},
	})
	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].EmployeeID)
	assert.True(t, results[0].Cumulative.Equal(d("50")))
	assert.True(t, results[1].Cumulative.Equal(d("80")))
	assert.True(t, results[2].Cumulative.Equal(d("100")))
}

func TestRankCompetition_OrdenDeterministaEnEmpates(t *testing.T) {
	in := []kpi.RankInput{
		{EmployeeID: "2", EmployeeName: "B", Value: d("10")},
		{EmployeeID: "1", EmployeeName: "B", Value: d("10")},
		{EmployeeID: "3", EmployeeName: "A", Value: d("10")},
	}
	results := kpi.RankCompetition(in)
	assert.Equal(t, []string{"3", "1", "2"}, []string{results[0].EmployeeID, results[1].EmployeeID, results[2].EmployeeID})
	assert.Equal(t, "2", in[0].EmployeeID, "la entrada no debe reordenarse")
}

func TestRankCompetition_VacioNoFalla(t *testing.T) {
	assert.Empty(t, kpi.RankCompetition(nil))
}

// Propiedad: para cualquier lista, los ranks ordenados coinciden con la secuencia de competencia esperada.
func TestRankCompetition_PropiedadSecuencia(t *testing.T) {
	cases := [][]int64{
		{5},
		{1, 2, 3, 4},
		{7, 7, 7},
		{9, 3, 9, 1, 3, 3, 0},
		{0, 0, 100, 50, 50, 25},
	}
	for i, values := range cases {
		t.Run(fmt.Sprintf("caso_%d", i), func(t *testing.T) {
			in := make([]kpi.RankInput, len(values))
			for j, v := range values {
				in[j] = kpi.RankInput{EmployeeID: fmt.Sprintf("e%02d", j), Value: decimal.NewFromInt(v)}
			}
			results := kpi.RankCompetition(in)
			require.Len(t, results, len(values))

			got := make([]int, len(results))
			for j, r := range results {
				got[j] = r.Rank
			}
			assert.True(t, kpi.ValidCompetitionRanks(got), "ranks %v", got)

			sort.Slice(values, func(a, b int) bool { return values[a] > values[b] })
			assert.Equal(t, expectedCompetition(values), got)
		})
	}
}

func expectedCompetition(sortedDesc []int64) []int {
	out := make([]int, len(sortedDesc))
	for i, v := range sortedDesc {
		out[i] = 1
		for _, other := range sortedDesc {
			if other > v {
				out[i]++
			}
		}
	}
	return out
}

func TestValidCompetitionRanks(t *testing.T) {
	assert.True(t, kpi.ValidCompetitionRanks([]int{1, 1, 3}))
	assert.True(t, kpi.ValidCompetitionRanks([]int{1, 2, 2, 4}))
	assert.True(t, kpi.ValidCompetitionRanks(nil))
	assert.False(t, kpi.ValidCompetitionRanks([]int{2, 3}))
	assert.False(t, kpi.ValidCompetitionRanks([]int{1, 3}))
	assert.False(t, kpi.ValidCompetitionRanks([]int{1, 2, 1}))
}
