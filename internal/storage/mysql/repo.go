package mysql

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	driver "github.com/go-sql-driver/mysql"

	"inmobiliaria/internal/domain"
)

const (
	errDupEntry     = 1062
	errNoReferenced = 1452
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
func intPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	i := int(ni.Int64)
	return &i
}
func f64Ptr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

// Repo implements every repository port on a single *sql.DB.
// The DSN must carry parseTime=true.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

type scanner interface {
	Scan(dest ...any) error
}

// mapErr turns driver errors the domain cares about into domain errors.
// missing names the referenced resource reported on FK violations.
func mapErr(err error, missing string) error {
	var me *driver.MySQLError
	if !errors.As(err, &me) {
		return err
	}
	switch me.Number {
	case errDupEntry:
		return fmt.Errorf("%w: %s", domain.ErrDuplicate, me.Message)
	case errNoReferenced:
		return domain.NotFound(missing)
	}
	return err
}

func utc(t time.Time) time.Time { return t.UTC() }
