package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm/clause"

	"github.com/gatherly/gathering-api/internal/domain/poll"
)

// PostgreSQL error codes the repositories translate into domain errors
const (
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
)

func lockClause(lock poll.Lock) (clause.Locking, bool) {
	switch lock {
	case poll.LockShare:
		return clause.Locking{Strength: "SHARE"}, true
	case poll.LockUpdate:
		return clause.Locking{Strength: "UPDATE"}, true
	default:
		return clause.Locking{}, false
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeCheckViolation
}
