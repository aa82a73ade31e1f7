// Package sqlxrepos implements the core repositories on PostgreSQL with sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/etarip26/EduConnect/core"
)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == uniqueViolation
}

// notFound maps sql.ErrNoRows to the domain error `nf`.
func notFound(err, nf error) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return nf
	}
	return err
}

// namedGet runs a named query returning one row into dest.
func namedGet(ctx context.Context, db core.DBExecutor, dest interface{}, query string, arg interface{}) error {
	q, args, err := sqlx.Named(query, arg)
	if err != nil {
		return errors.Wrap(err, "binding named query")
	}
	return db.GetContext(ctx, dest, db.Rebind(q), args...)
}

// where accumulates AND-ed conditions written with `?` placeholders.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// selectWhere runs `base` + the conditions + `suffix`, rebinding the placeholders for the driver.
func selectWhere(ctx context.Context, db core.DBExecutor, dest interface{}, base string, w where, suffix string) error {
	return db.SelectContext(ctx, dest, db.Rebind(base+w.String()+" "+suffix), w.args...)
}

// location columns

type locationCols struct {
	Lat  null.Float64 `db:"lat"`
	Lng  null.Float64 `db:"lng"`
	City string       `db:"city"`
	Area string       `db:"area"`
}

func fromLocation(l core.Location) locationCols {
	return locationCols{
		Lat:  null.Float64FromPtr(l.Lat),
		Lng:  null.Float64FromPtr(l.Lng),
		City: l.City,
		Area: l.Area,
	}
}

func (lc locationCols) location() core.Location {
	return core.Location{Lat: lc.Lat.Ptr(), Lng: lc.Lng.Ptr(), City: lc.City, Area: lc.Area}
}

func stringArray(ss []string) pq.StringArray {
	if ss == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(ss)
}
