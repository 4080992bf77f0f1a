package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/stratgen/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

func TestPostgresStore_SaveGeneration(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO generations`).
		WithArgs("strat-1", "u1", "completed", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveGeneration(context.Background(), sampleGeneration("strat-1", "u1"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveGeneration_EmptyID(t *testing.T) {
	s, _ := newMockPostgresStore(t)

	err := s.SaveGeneration(context.Background(), model.Generation{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id is empty")
}

func TestPostgresStore_GetGeneration(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	gen := sampleGeneration("strat-2", "u2")
	reqJSON, err := json.Marshal(gen.Request)
	require.NoError(t, err)
	respJSON, err := json.Marshal(gen.Response)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT id, user_id, status, request, response, created_at FROM generations WHERE id = \$1`).
		WithArgs("strat-2").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "status", "request", "response", "created_at"}).
			AddRow("strat-2", "u2", "completed", reqJSON, respJSON, gen.CreatedAt))

	got, err := s.GetGeneration(context.Background(), "strat-2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u2", got.UserID)
	require.NotNil(t, got.Response)
	assert.Equal(t, "claude", got.Response.Results[0].Provider)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetGeneration_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, user_id, status, request, response, created_at FROM generations WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "status", "request", "response", "created_at"}))

	got, err := s.GetGeneration(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListGenerations(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	gen := sampleGeneration("strat-3", "u3")
	reqJSON, err := json.Marshal(gen.Request)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT id, user_id, status, request, response, created_at FROM generations WHERE true AND user_id = \$1`).
		WithArgs("u3", 100).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "status", "request", "response", "created_at"}).
			AddRow("strat-3", "u3", "degraded", reqJSON, []byte(nil), time.Now().UTC()))

	gens, err := s.ListGenerations(context.Background(), Filter{UserID: "u3"})
	require.NoError(t, err)
	require.Len(t, gens, 1)
	assert.Equal(t, model.GenerationDegraded, gens[0].Status)
	assert.Nil(t, gens[0].Response)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS generations`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
