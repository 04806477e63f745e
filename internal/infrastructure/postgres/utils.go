package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// isNoRows verifica si el error es "sin filas" (pgx.ErrNoRows).
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// pgCode devuelve el SQLSTATE de un error de PostgreSQL, o "" si no lo es.
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUndefinedTable verifica si el error es "relation does not exist" (42P01):
// la caché aún no fue creada, equivale a no tener snapshot.
func isUndefinedTable(err error) bool {
	return pgCode(err) == "42P01"
}

// limitArg traduce limit <= 0 a NULL: en PostgreSQL "LIMIT NULL" no limita.
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
