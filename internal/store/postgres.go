package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/tradeforge/stratgen/internal/db"
	"github.com/tradeforge/stratgen/internal/model"
)

// PostgresStore implements Store using a pgx connection pool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// preparedStatements lists queries prepared on each new connection for the
// hot store operations.
var preparedStatements = map[string]string{
	"insert_generation": `INSERT INTO generations (id, user_id, status, request, response, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"get_generation":    `SELECT id, user_id, status, request, response, created_at FROM generations WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.NewPool(ctx, connString, poolCfg, preparedStatements)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS generations (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL,
	request    JSONB NOT NULL,
	response   JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_generations_user_id ON generations(user_id);
CREATE INDEX IF NOT EXISTS idx_generations_status ON generations(status);
CREATE INDEX IF NOT EXISTS idx_generations_created_at ON generations(created_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveGeneration(ctx context.Context, gen model.Generation) error {
	if gen.ID == "" {
		return eris.New("postgres: generation id is empty")
	}
	if gen.CreatedAt.IsZero() {
		gen.CreatedAt = time.Now().UTC()
	}

	reqJSON, err := json.Marshal(gen.Request)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal request")
	}

	var respJSON []byte
	if gen.Response != nil {
		respJSON, err = json.Marshal(gen.Response)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal response")
		}
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO generations (id, user_id, status, request, response, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		gen.ID, gen.UserID, string(gen.Status), reqJSON, respJSON, gen.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert generation %s", gen.ID)
}

func (s *PostgresStore) GetGeneration(ctx context.Context, id string) (*model.Generation, error) {
	var g model.Generation
	var reqJSON []byte
	var respJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, status, request, response, created_at FROM generations WHERE id = $1`,
		id,
	).Scan(&g.ID, &g.UserID, &g.Status, &reqJSON, &respJSON, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get generation %s", id)
	}

	if err := json.Unmarshal(reqJSON, &g.Request); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal request")
	}
	if len(respJSON) > 0 {
		g.Response = &model.StrategyResponse{}
		if err := json.Unmarshal(respJSON, g.Response); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal response")
		}
	}
	return &g, nil
}

func (s *PostgresStore) ListGenerations(ctx context.Context, filter Filter) ([]model.Generation, error) {
	query := `SELECT id, user_id, status, request, response, created_at FROM generations WHERE true`
	args := []any{}
	argIdx := 1

	if filter.UserID != "" {
		query += fmt.Sprintf(` AND user_id = $%d`, argIdx)
		args = append(args, filter.UserID)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list generations")
	}
	defer rows.Close()

	var gens []model.Generation
	for rows.Next() {
		var g model.Generation
		var reqJSON, respJSON []byte

		if err := rows.Scan(&g.ID, &g.UserID, &g.Status, &reqJSON, &respJSON, &g.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan generation")
		}
		if err := json.Unmarshal(reqJSON, &g.Request); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal request")
		}
		if len(respJSON) > 0 {
			g.Response = &model.StrategyResponse{}
			if err := json.Unmarshal(respJSON, g.Response); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal response")
			}
		}
		gens = append(gens, g)
	}
	return gens, eris.Wrap(rows.Err(), "postgres: list generations iterate")
}
