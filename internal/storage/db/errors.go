package db

import (
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories care about.
const (
	CodeUniqueViolation        = "23505"
	CodeForeignKeyViolation    = "23503"
	CodeNumericValueOutOfRange = "22003"
)

// keyDetailRegex matches the column list in details such as
// `Key (slug)=(womens_tee) already exists.`
var keyDetailRegex = regexp.MustCompile(`^Key \((.+?)\)=`)

// UniqueViolation describes a failed unique constraint.
type UniqueViolation struct {
	Table      string
	Constraint string
	Columns    []string
}

// AsUniqueViolation reports whether err is a unique constraint violation and
// which columns caused it.
func AsUniqueViolation(err error) (UniqueViolation, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != CodeUniqueViolation {
		return UniqueViolation{}, false
	}

	return UniqueViolation{
		Table:      pgErr.TableName,
		Constraint: pgErr.ConstraintName,
		Columns:    violationColumns(pgErr),
	}, true
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == CodeForeignKeyViolation
}

// IsNumericOutOfRange reports whether err is a numeric overflow, such as a
// price wider than its numeric(12,2) column.
func IsNumericOutOfRange(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == CodeNumericValueOutOfRange
}

// IsNoRows reports whether err means a single-row query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func violationColumns(pgErr *pgconn.PgError) []string {
	if m := keyDetailRegex.FindStringSubmatch(pgErr.Detail); m != nil {
		cols := strings.Split(m[1], ",")
		for i := range cols {
			cols[i] = strings.TrimSpace(cols[i])
		}
		return cols
	}

	// Postgres names implicit unique constraints <table>_<columns>_key.
	name := strings.TrimSuffix(pgErr.ConstraintName, "_key")
	name = strings.TrimPrefix(name, pgErr.TableName+"_")
	if name == "" {
		return nil
	}
	return []string{name}
}
