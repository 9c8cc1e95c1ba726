package store_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	infrastore "github.com/amirasaad/paydesk/infra/store"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMemory_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := infrastore.NewMemory()

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte(`[1,2]`)
	require.NoError(t, m.Put(ctx, "k", value))
	value[0] = 'x'

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[1,2]`, string(got))

	require.NoError(t, m.Delete(ctx, "k"))
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)
}

func TestRedis_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	r := infrastore.NewRedis(client, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer r.Close() //nolint:errcheck
	ctx := context.Background()

	require.NoError(t, r.Ping(ctx))
	_, ok, err := r.Get(ctx, "paydesk:sid:transfers")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Put(ctx, "paydesk:sid:transfers", []byte(`[]`)))
	got, ok, err := r.Get(ctx, "paydesk:sid:transfers")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(got))
	assert.Equal(t, time.Hour, mr.TTL("paydesk:sid:transfers"))

	require.NoError(t, r.Delete(ctx, "paydesk:sid:transfers"))
	assert.False(t, mr.Exists("paydesk:sid:transfers"))
}

func TestRedis_TransportErrorIsReturned(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	r := infrastore.NewRedis(client, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mr.Close()

	_, _, err := r.Get(context.Background(), "k")
	assert.Error(t, err)
}

func newMockGorm(t *testing.T) (*infrastore.Gorm, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDb.Close() }) //nolint:errcheck
	dialector := postgres.New(postgres.Config{Conn: mockDb, DriverName: "postgres"})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return infrastore.NewGorm(db), mock
}

func TestGorm_Get(t *testing.T) {
	g, mock := newMockGorm(t)
	rows := sqlmock.NewRows([]string{"key", "value", "updated_at"}).
		AddRow("paydesk:sid:transactions", []byte(`[]`), time.Now())
	mock.ExpectQuery(`SELECT \* FROM "kv_entries" WHERE key = \$1`).
		WithArgs("paydesk:sid:transactions", 1).
		WillReturnRows(rows)

	got, ok, err := g.Get(context.Background(), "paydesk:sid:transactions")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(got))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGorm_GetMiss(t *testing.T) {
	g, mock := newMockGorm(t)
	mock.ExpectQuery(`SELECT \* FROM "kv_entries" WHERE key = \$1`).
		WithArgs("missing", 1).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value", "updated_at"}))

	_, ok, err := g.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGorm_GetError(t *testing.T) {
	g, mock := newMockGorm(t)
	mock.ExpectQuery(`SELECT \* FROM "kv_entries"`).WillReturnError(errors.New("connection reset"))

	_, _, err := g.Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestGorm_PutUpserts(t *testing.T) {
	g, mock := newMockGorm(t)
	mock.ExpectExec(`INSERT INTO "kv_entries" (.+) VALUES (.+) ON CONFLICT \("key"\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, g.Put(context.Background(), "k", []byte(`{"token":"t"}`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGorm_Delete(t *testing.T) {
	g, mock := newMockGorm(t)
	mock.ExpectExec(`DELETE FROM "kv_entries" WHERE key = \$1`).
		WithArgs("k").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, g.Delete(context.Background(), "k"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenGorm_RejectsUnknownDriver(t *testing.T) {
	t.Parallel()
	_, err := infrastore.OpenGorm("mysql", "dsn", "test")
	assert.Error(t, err)
	_, err = infrastore.OpenGorm("postgres", "", "test")
	assert.Error(t, err)
}
