package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeslieKogi/sunrise-backend/internal/entity"
	"github.com/LeslieKogi/sunrise-backend/internal/event"
	"github.com/LeslieKogi/sunrise-backend/internal/repository"
)

type recordingPublisher struct {
	events []event.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt event.Event) error {
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	store     *repository.Store
	flavours  *FlavourService
	orders    *OrderService
	auth      *AuthService
	publisher *recordingPublisher
	clock     time.Time
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	store, err := repository.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx, 0))
	t.Cleanup(func() { _ = store.Close() })

	env := &testEnv{
		store:     store,
		publisher: &recordingPublisher{},
		clock:     time.Date(2025, 1, 30, 9, 30, 0, 0, time.UTC),
	}
	flavourRepo := repository.NewFlavourRepository(store)
	env.flavours = NewFlavourService(flavourRepo, nil, time.Minute)
	env.orders = NewOrderService(repository.NewOrderRepository(store), flavourRepo, env.publisher, nil, time.Hour)
	env.auth = NewAuthService(repository.NewAdminRepository(store), "test-secret", time.Hour)
	env.auth.hashCost = 4

	now := func() time.Time { return env.clock }
	env.flavours.now = now
	env.orders.now = now
	env.auth.now = now
	return env
}

func (e *testEnv) addFlavour(t *testing.T, name, price string) *entity.Flavour {
	t.Helper()
	p := decimal.RequireFromString(price)
	f, err := e.flavours.Create(context.Background(), entity.FlavourInput{Name: &name, Price: &p})
	require.NoError(t, err)
	return f
}

func (e *testEnv) countRows(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, e.store.DB.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func assertKind(t *testing.T, err error, kind error, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, kind)
	if msg != "" {
		assert.Equal(t, msg, err.Error())
	}
}

func strPtr(s string) *string { return &s }
