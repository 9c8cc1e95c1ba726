package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/amirasaad/paydesk/internal/fixtures"
	"github.com/amirasaad/paydesk/pkg/domain"
	"github.com/amirasaad/paydesk/pkg/domain/user"
	"github.com/amirasaad/paydesk/pkg/query"
	usersvc "github.com/amirasaad/paydesk/pkg/service/user"
	"github.com/amirasaad/paydesk/pkg/store"
	"github.com/amirasaad/paydesk/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, env *testutils.Env) *usersvc.Service {
	t.Helper()
	repo := testutils.Repo[user.User](env, "user", store.RegularUsers, fixtures.RegularUsers)
	return usersvc.New(repo, env.Cache, time.Minute, env.Logger)
}

func find(t *testing.T, list []user.User, id string) user.User {
	t.Helper()
	for _, u := range list {
		if u.ID == id {
			return u
		}
	}
	t.Fatalf("user %s not in list", id)
	return user.User{}
}

func TestListAndActiveCount(t *testing.T) {
	svc := newService(t, testutils.NewEnv(t))
	ctx := context.Background()

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 8)

	n, err := svc.ActiveCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestToggleStatus(t *testing.T) {
	env := testutils.NewEnv(t)
	svc := newService(t, env)
	ctx := context.Background()

	_, err := svc.List(ctx)
	require.NoError(t, err)
	fetchedAt := svc.ListState().FetchedAt
	env.Clock.Advance(time.Second)

	u, err := svc.ToggleStatus(ctx, "1")
	require.NoError(t, err)
	assert.False(t, u.IsActive)
	assert.True(t, u.IsDeactivated)
	assert.Equal(t, env.Clock.Now(), u.UpdatedAt)

	st := svc.ListState()
	assert.Equal(t, query.StatusReady, st.Status)
	assert.Equal(t, fetchedAt, st.FetchedAt, "merged, not refetched")
	assert.Equal(t, u, find(t, st.Data, "1"))

	stored := testutils.ReadAll[user.User](t, env, store.RegularUsers)
	assert.False(t, find(t, stored, "1").Active())

	u, err = svc.ToggleStatus(ctx, "1")
	require.NoError(t, err)
	assert.True(t, u.Active())
	assert.True(t, svc.States()["toggle"].Succeeded)
}

func TestToggleStatus_OptimisticThenMerged(t *testing.T) {
	backend := testutils.NewGatedBackend()
	env := testutils.NewEnvWithBackend(t, backend)
	svc := newService(t, env)
	ctx := context.Background()

	_, err := svc.List(ctx)
	require.NoError(t, err)

	backend.Close()
	done := make(chan error, 1)
	go func() {
		_, err := svc.Deactivate(ctx, "2")
		done <- err
	}()

	require.Eventually(t, func() bool {
		return !find(t, svc.ListState().Data, "2").Active()
	}, time.Second, time.Millisecond, "patched before the store write")
	assert.True(t, svc.States()["deactivate"].Pending)
	stored := testutils.ReadAll[user.User](t, env, store.RegularUsers)
	assert.True(t, find(t, stored, "2").Active())

	backend.Open()
	require.NoError(t, <-done)
	assert.False(t, find(t, svc.ListState().Data, "2").Active())
}

func TestDeactivateReactivate(t *testing.T) {
	env := testutils.NewEnv(t)
	svc := newService(t, env)
	ctx := context.Background()

	u, err := svc.Deactivate(ctx, "3")
	require.NoError(t, err)
	assert.False(t, u.Active(), "deactivating twice is a no-op")

	u, err = svc.Reactivate(ctx, "3")
	require.NoError(t, err)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsDeactivated)

	n, err := svc.ActiveCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestStatusChange_UnknownUserRollsBack(t *testing.T) {
	env := testutils.NewEnv(t)
	svc := newService(t, env)
	ctx := context.Background()

	_, err := svc.List(ctx)
	require.NoError(t, err)
	before := svc.ListState()

	_, err = svc.ToggleStatus(ctx, "404")
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, before, svc.ListState())
	assert.ErrorIs(t, svc.States()["toggle"].Err, domain.ErrNotFound)
}

func TestDelete(t *testing.T) {
	env := testutils.NewEnv(t)
	svc := newService(t, env)
	ctx := context.Background()

	_, err := svc.List(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "2"))
	env.Cache.Wait()

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 7)
	for _, u := range list {
		assert.NotEqual(t, "2", u.ID)
	}

	err = svc.Delete(ctx, "2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Len(t, svc.ListState().Data, 7)
}
