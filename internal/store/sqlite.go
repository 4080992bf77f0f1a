package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/tradeforge/stratgen/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS generations (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL,
	request    TEXT NOT NULL,
	response   TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_generations_user_id ON generations(user_id);
CREATE INDEX IF NOT EXISTS idx_generations_status ON generations(status);
CREATE INDEX IF NOT EXISTS idx_generations_created_at ON generations(created_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveGeneration(ctx context.Context, gen model.Generation) error {
	if gen.ID == "" {
		return eris.New("sqlite: generation id is empty")
	}
	if gen.CreatedAt.IsZero() {
		gen.CreatedAt = time.Now().UTC()
	}

	reqJSON, err := json.Marshal(gen.Request)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal request")
	}

	var respJSON sql.NullString
	if gen.Response != nil {
		raw, err := json.Marshal(gen.Response)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal response")
		}
		respJSON = sql.NullString{String: string(raw), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO generations (id, user_id, status, request, response, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		gen.ID, gen.UserID, string(gen.Status), string(reqJSON), respJSON, gen.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert generation %s", gen.ID)
}

func (s *SQLiteStore) GetGeneration(ctx context.Context, id string) (*model.Generation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, status, request, response, created_at FROM generations WHERE id = ?`,
		id,
	)

	var g model.Generation
	var reqJSON string
	var respJSON sql.NullString
	err := row.Scan(&g.ID, &g.UserID, &g.Status, &reqJSON, &respJSON, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get generation %s", id)
	}

	if err := json.Unmarshal([]byte(reqJSON), &g.Request); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal request")
	}
	if respJSON.Valid {
		g.Response = &model.StrategyResponse{}
		if err := json.Unmarshal([]byte(respJSON.String), g.Response); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal response")
		}
	}
	return &g, nil
}

func (s *SQLiteStore) ListGenerations(ctx context.Context, filter Filter) ([]model.Generation, error) {
	query := `SELECT id, user_id, status, request, response, created_at FROM generations WHERE 1=1`
	var args []any

	if filter.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list generations")
	}
	defer rows.Close()

	var gens []model.Generation
	for rows.Next() {
		var g model.Generation
		var reqJSON string
		var respJSON sql.NullString

		if err := rows.Scan(&g.ID, &g.UserID, &g.Status, &reqJSON, &respJSON, &g.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan generation")
		}
		if err := json.Unmarshal([]byte(reqJSON), &g.Request); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal request")
		}
		if respJSON.Valid {
			g.Response = &model.StrategyResponse{}
			if err := json.Unmarshal([]byte(respJSON.String), g.Response); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal response")
			}
		}
		gens = append(gens, g)
	}
	return gens, eris.Wrap(rows.Err(), "sqlite: list generations iterate")
}
