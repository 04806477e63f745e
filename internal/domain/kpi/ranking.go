package kpi

import (
	"sort"

	"github.com/shopspring/decimal"
)

// RankInput valor de una métrica para un representante elegible.
type RankInput struct {
	EmployeeID   string
	EmployeeName string
	Value        decimal.Decimal
}

// RankResult posición asignada y contribución acumulada (curva de Pareto) hasta esa posición.
type RankResult struct {
	EmployeeID string
	Rank       int
	Cumulative decimal.Decimal
}

// RankCompetition ordena por valor descendente y asigna ranking de competencia estándar (1,2,2,4):
// valores iguales comparten rank y el siguiente rank salta las posiciones ocupadas.
// Empates se listan por nombre y luego por id para que el orden sea determinista.
// El acumulado se suma en el orden listado.
func RankCompetition(in []RankInput) []RankResult {
	sorted := make([]RankInput, len(in))
	copy(sorted, in)
	sort.SliceStable(sorted, func(i, j int) bool {
		if c := sorted[i].Value.Cmp(sorted[j].Value); c != 0 {
			return c > 0
		}
		if sorted[i].EmployeeName != sorted[j].EmployeeName {
			return sorted[i].EmployeeName < sorted[j].EmployeeName
		}
		return sorted[i].EmployeeID < sorted[j].EmployeeID
	})

	out := make([]RankResult, len(sorted))
	cumulative := decimal.Zero
	for i, r := range sorted {
		rank := i + 1
		if i > 0 && r.Value.Equal(sorted[i-1].Value) {
			rank = out[i-1].Rank
		}
		cumulative = cumulative.Add(r.Value)
		out[i] = RankResult{EmployeeID: r.EmployeeID, Rank: rank, Cumulative: cumulative}
	}
	return out
}

// ValidCompetitionRanks verifica que ranks (en orden listado) sea una secuencia de competencia
// estándar válida: empieza en 1 y cada rank es el anterior (empate) o su posición i+1.
func ValidCompetitionRanks(ranks []int) bool {
	for i, r := range ranks {
		if i == 0 {
			if r != 1 {
				return false
			}
			continue
		}
		if r != ranks[i-1] && r != i+1 {
			return false
		}
	}
	return true
}
