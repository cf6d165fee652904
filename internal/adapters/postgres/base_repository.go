package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the statement surface shared by pgxpool.Pool and pgx.Tx.
// pgxmock pools satisfy it as well, which is what the repository tests
// inject through the transaction context key.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// BaseRepository is embedded by every repository in this package. conn
// resolves each statement against the context's open transaction when one is
// present, so a repository method behaves identically inside and outside
// TransactionManager.WithTransaction.
type BaseRepository struct {
	pool *pgxpool.Pool
}

func NewBaseRepository(pool *pgxpool.Pool) BaseRepository {
	return BaseRepository{pool: pool}
}

func (r *BaseRepository) Pool() *pgxpool.Pool {
	return r.pool
}

func (r *BaseRepository) conn(ctx context.Context) querier {
	if tx := GetTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}
