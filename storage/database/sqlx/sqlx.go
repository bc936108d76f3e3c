// Package sqlxrepos implements the core repositories on PostgreSQL with jmoiron/sqlx.
package sqlxrepos

import (
	"context"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/milestone/core"
)

// postgres error codes
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func pqCode(err error) string {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return string(pqErr.Code)
	}
	return ""
}

// withTx runs fn in a transaction, committed only if fn succeeds.
func withTx(ctx context.Context, db core.DB, fn func(tx core.DBTransactor) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// orderBy renders already cleaned orderings as an ORDER BY clause.
func orderBy(ordering []core.DBOrdering, tieBreaker string) string {
	clauses := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		clauses = append(clauses, pq.QuoteIdentifier(ord.Field)+" "+strings.Fields(ord.String())[1])
	}
	clauses = append(clauses, tieBreaker)
	return " ORDER BY " + strings.Join(clauses, ", ")
}

func int64s(ids []int) pq.Int64Array {
	arr := make(pq.Int64Array, 0, len(ids))
	for _, id := range ids {
		arr = append(arr, int64(id))
	}
	return arr
}

func ints(arr pq.Int64Array) []int {
	out := make([]int, 0, len(arr))
	for _, v := range arr {
		out = append(out, int(v))
	}
	return out
}

// queryArgs collects positional query arguments.
type queryArgs []interface{}

// add appends v and returns its placeholder.
func (a *queryArgs) add(v interface{}) string {
	*a = append(*a, v)
	return "$" + strconv.Itoa(len(*a))
}
