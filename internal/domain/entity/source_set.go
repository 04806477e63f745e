package entity

// SourceSet conjunto de lectura de un pase de actualización.
// Todos los snapshots de un pase se calculan a partir del mismo SourceSet.
type SourceSet struct {
	Companies        []Company      // clientes no "불용"
	DisusedByManager map[string]int // nombre del representante → cantidad de clientes "불용"
	DisusedTotal     int
	Representatives  []Employee // representantes de ventas activos
}

// CompaniesByManager agrupa los clientes activos por nombre del representante.
func (s *SourceSet) CompaniesByManager() map[string][]Company {
	out := make(map[string][]Company)
	for _, c := range s.Companies {
		out[c.InternalManager] = append(out[c.InternalManager], c)
	}
	return out
}

// FindRepresentative busca un representante del conjunto por id y, si no aparece, por nombre.
// El id tiene prioridad para que un nombre igual a otro id no lo tape.
func (s *SourceSet) FindRepresentative(idOrName string) (Employee, bool) {
	for _, e := range s.Representatives {
		if e.ID == idOrName {
			return e, true
		}
	}
	for _, e := range s.Representatives {
		if e.Name == idOrName {
			return e, true
		}
	}
	return Employee{}, false
}
