package repository_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	infrastore "github.com/amirasaad/paydesk/infra/store"
	"github.com/amirasaad/paydesk/pkg/domain"
	"github.com/amirasaad/paydesk/pkg/domain/transfer"
	"github.com/amirasaad/paydesk/pkg/repository"
	"github.com/amirasaad/paydesk/pkg/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scope string

func (s scope) ID() string { return string(s) }

type brokenBackend struct{}

func (brokenBackend) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("disk gone")
}
func (brokenBackend) Put(context.Context, string, []byte) error { return errors.New("disk gone") }
func (brokenBackend) Delete(context.Context, string) error      { return errors.New("disk gone") }

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func fixture() []transfer.Transfer {
	return []transfer.Transfer{
		{Model: domain.Model{ID: "TXN_001"}, Reference: "REF_001", Status: transfer.StatusCompleted, Amount: decimal.NewFromInt(5000)},
		{Model: domain.Model{ID: "TXN_002"}, Reference: "REF_002", Status: transfer.StatusProcessing, Amount: decimal.NewFromInt(2500)},
	}
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newCollection(backend store.Backend, cfg repository.Config[transfer.Transfer]) *repository.Collection[transfer.Transfer, *transfer.Transfer] {
	s := store.New(backend, scope("sid"), "", discard())
	cfg.Name = "transfer"
	cfg.Local = store.NewCollection[transfer.Transfer](s, store.Transfers)
	cfg.Fixture = fixture
	cfg.Logger = discard()
	cfg.Now = func() time.Time { return fixedNow }
	return repository.New[transfer.Transfer, *transfer.Transfer](cfg)
}

func TestList_FallbackOrdering(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("remote answers", func(t *testing.T) {
		c := newCollection(infrastore.NewMemory(), repository.Config[transfer.Transfer]{
			RemoteList: func(context.Context) ([]transfer.Transfer, error) {
				return []transfer.Transfer{{Model: domain.Model{ID: "remote"}}}, nil
			},
		})
		items, src := c.ListWithSource(ctx)
		assert.Equal(t, repository.SourceRemote, src)
		assert.Equal(t, "remote", items[0].ID)
	})

	t.Run("remote fails, local seeded from fixture", func(t *testing.T) {
		c := newCollection(infrastore.NewMemory(), repository.Config[transfer.Transfer]{
			RemoteList: func(context.Context) ([]transfer.Transfer, error) {
				return nil, domain.NewNetworkError(errors.New("timeout"))
			},
		})
		items, src := c.ListWithSource(ctx)
		assert.Equal(t, repository.SourceLocal, src)
		assert.Equal(t, fixture(), items)
	})

	t.Run("remote and local fail, fixture", func(t *testing.T) {
		c := newCollection(brokenBackend{}, repository.Config[transfer.Transfer]{
			RemoteList: func(context.Context) ([]transfer.Transfer, error) {
				return nil, domain.NewGatewayError(500, "boom")
			},
		})
		items, src := c.ListWithSource(ctx)
		assert.Equal(t, repository.SourceFixture, src)
		assert.Equal(t, fixture(), items)
	})
}

func TestGet_NotFound(t *testing.T) {
	t.Parallel()
	c := newCollection(infrastore.NewMemory(), repository.Config[transfer.Transfer]{})
	_, err := c.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := c.Get(context.Background(), "TXN_002")
	require.NoError(t, err)
	assert.Equal(t, "REF_002", got.Reference)
}

func TestCreate_LocalAssignsIDAndTimestamps(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newCollection(infrastore.NewMemory(), repository.Config[transfer.Transfer]{})

	first, err := c.Create(ctx, transfer.Transfer{Reference: "TRF_1"})
	require.NoError(t, err)
	second, err := c.Create(ctx, transfer.Transfer{Reference: "TRF_2"})
	require.NoError(t, err)

	assert.Equal(t, "1709294400000", first.ID)
	assert.Equal(t, "1709294400001", second.ID)
	assert.Equal(t, fixedNow, first.CreatedAt)
	assert.Equal(t, fixedNow, first.UpdatedAt)

	items := c.List(ctx)
	require.Len(t, items, 4)
	assert.Equal(t, "TRF_2", items[0].Reference)
}

func TestCreate_NetworkErrorFallsBackToLocal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newCollection(infrastore.NewMemory(), repository.Config[transfer.Transfer]{
		RemoteCreate: func(context.Context, transfer.Transfer) (transfer.Transfer, error) {
			return transfer.Transfer{}, domain.NewNetworkError(errors.New("offline"))
		},
	})
	created, err := c.Create(ctx, transfer.Transfer{Reference: "TRF_1"})
	require.NoError(t, err)
	_, found, err := c.FindWhere(ctx, func(t *transfer.Transfer) bool { return t.ID == created.ID })
	require.NoError(t, err)
	assert.True(t, found)
}

func TestCreate_GatewayErrorPropagates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newCollection(infrastore.NewMemory(), repository.Config[transfer.Transfer]{
		RemoteCreate: func(context.Context, transfer.Transfer) (transfer.Transfer, error) {
			return transfer.Transfer{}, domain.NewGatewayError(400, "Invalid bank code")
		},
	})
	_, err := c.Create(ctx, transfer.Transfer{Reference: "TRF_1"})
	assert.ErrorIs(t, err, domain.ErrGateway)
	assert.Len(t, c.List(ctx), 2)
}

func TestCreate_RemoteResultIsRecorded(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newCollection(infrastore.NewMemory(), repository.Config[transfer.Transfer]{
		RemoteCreate: func(_ context.Context, in transfer.Transfer) (transfer.Transfer, error) {
			in.ID = "srv-1"
			return in, nil
		},
	})
	created, err := c.Create(ctx, transfer.Transfer{Reference: "TRF_1"})
	require.NoError(t, err)
	assert.Equal(t, "srv-1", created.ID)
	got, err := c.Get(ctx, "srv-1")
	require.NoError(t, err)
	assert.Equal(t, "TRF_1", got.Reference)
}

func TestUpdateAndRemove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newCollection(infrastore.NewMemory(), repository.Config[transfer.Transfer]{})

	updated, err := c.Update(ctx, "TXN_002", func(tr *transfer.Transfer) error {
		tr.Reason = "changed"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "changed", updated.Reason)
	assert.Equal(t, fixedNow, updated.UpdatedAt)

	_, err = c.Update(ctx, "missing", func(*transfer.Transfer) error { return nil })
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, c.Remove(ctx, "TXN_001"))
	assert.ErrorIs(t, c.Remove(ctx, "TXN_001"), domain.ErrNotFound)
	assert.Len(t, c.List(ctx), 1)
}

func TestUpdateWhere_ByReference(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newCollection(infrastore.NewMemory(), repository.Config[transfer.Transfer]{})
	byRef := func(ref string) func(*transfer.Transfer) bool {
		return func(t *transfer.Transfer) bool { return t.Reference == ref }
	}

	got, found, err := c.UpdateWhere(ctx, byRef("REF_002"), func(t *transfer.Transfer) bool {
		return t.ApplyGatewayStatus(domain.GatewaySucceeded)
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, transfer.StatusCompleted, got.Status)
	assert.Equal(t, fixedNow, got.UpdatedAt)
	assert.Equal(t, "TXN_002", got.ID)

	before := c.List(ctx)
	_, found, err = c.UpdateWhere(ctx, byRef("REF_001"), func(t *transfer.Transfer) bool {
		return t.ApplyGatewayStatus(domain.GatewayFailed)
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, before, c.List(ctx))

	_, found, err = c.UpdateWhere(ctx, byRef("UNKNOWN"), func(*transfer.Transfer) bool { return true })
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSetState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := newCollection(infrastore.NewMemory(), repository.Config[transfer.Transfer]{})

	got, err := c.SetState(ctx, "TXN_002", func(tr *transfer.Transfer) {
		tr.Status = transfer.StatusCompleted
	})
	require.NoError(t, err)
	assert.Equal(t, transfer.StatusCompleted, got.Status)
	assert.Equal(t, fixedNow, got.UpdatedAt)

	_, err = c.SetState(ctx, "missing", func(*transfer.Transfer) {})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
