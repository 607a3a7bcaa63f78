package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeslieKogi/sunrise-backend/internal/entity"
)

func newTestOrder(number string, createdAt time.Time, items ...entity.OrderItem) *entity.Order {
	order := &entity.Order{
		OrderNumber:     number,
		CustomerName:    "Wanjiru",
		CustomerPhone:   "0712345678",
		DeliveryAddress: "Kilimani, Nairobi",
		OrderStatus:     entity.OrderStatusPending,
		PaymentStatus:   entity.PaymentStatusPending,
		PaymentMethod:   entity.PaymentMethodCashOnDelivery,
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
		Items:           items,
	}
	order.TotalAmount = order.ComputeTotal()
	return order
}

func TestOrderCreateAndGetByNumber(t *testing.T) {
	store := setupTestStore(t)
	flavours := NewFlavourRepository(store)
	orders := NewOrderRepository(store)
	ctx := context.Background()

	strawberry := seedFlavour(t, flavours, "Strawberry", "150.00", true)
	mango := seedFlavour(t, flavours, "Mango", "170.00", true)

	order := newTestOrder("ORD-20250130-ABC123", testNow,
		entity.NewOrderItem(strawberry, 2),
		entity.NewOrderItem(mango, 1),
	)
	created, err := orders.Create(ctx, order)
	require.NoError(t, err)
	assert.Greater(t, created.ID, 0)
	for _, item := range created.Items {
		assert.Greater(t, item.ID, 0)
		assert.Equal(t, created.ID, item.OrderID)
	}

	got, err := orders.GetByNumber(ctx, "ORD-20250130-ABC123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assertDecimal(t, "470", got.TotalAmount)
	assert.Equal(t, entity.OrderStatusPending, got.OrderStatus)
	assert.Equal(t, entity.PaymentStatusPending, got.PaymentStatus)
	assert.Equal(t, entity.PaymentMethodCashOnDelivery, got.PaymentMethod)
	assert.Nil(t, got.CustomerEmail)
	assert.True(t, testNow.Equal(got.CreatedAt))

	require.Len(t, got.Items, 2)
	assert.Equal(t, strawberry.ID, got.Items[0].FlavourID)
	require.NotNil(t, got.Items[0].Flavour)
	assert.Equal(t, "Strawberry", got.Items[0].Flavour.Name)
	assertDecimal(t, "300", got.Items[0].Subtotal)
	assertDecimal(t, "170", got.Items[1].Subtotal)

	byID, err := orders.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, got.OrderNumber, byID.OrderNumber)
	assert.Len(t, byID.Items, 2)
}

func TestOrderGet_NotFound(t *testing.T) {
	orders := NewOrderRepository(setupTestStore(t))
	_, err := orders.GetByNumber(context.Background(), "ORD-20250130-ZZZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = orders.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderCreate_DuplicateNumber(t *testing.T) {
	store := setupTestStore(t)
	flavours := NewFlavourRepository(store)
	orders := NewOrderRepository(store)
	ctx := context.Background()
	lemon := seedFlavour(t, flavours, "Lemon", "150", true)

	_, err := orders.Create(ctx, newTestOrder("ORD-20250130-AAAAAA", testNow, entity.NewOrderItem(lemon, 1)))
	require.NoError(t, err)

	_, err = orders.Create(ctx, newTestOrder("ORD-20250130-AAAAAA", testNow, entity.NewOrderItem(lemon, 3)))
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, 1, countRows(t, store, "orders"))
	assert.Equal(t, 1, countRows(t, store, "order_items"))
}

func TestOrderCreate_RollsBackWhenAnItemFails(t *testing.T) {
	store := setupTestStore(t)
	flavours := NewFlavourRepository(store)
	orders := NewOrderRepository(store)
	lemon := seedFlavour(t, flavours, "Lemon", "150", true)

	good := entity.NewOrderItem(lemon, 1)
	bad := entity.NewOrderItem(lemon, 1)
	bad.Quantity = 0 // violates the quantity check

	_, err := orders.Create(context.Background(), newTestOrder("ORD-20250130-BBBBBB", testNow, good, bad))
	require.Error(t, err)
	assert.Equal(t, 0, countRows(t, store, "orders"))
	assert.Equal(t, 0, countRows(t, store, "order_items"))
}

func TestOrderItems_SurviveFlavourDeletion(t *testing.T) {
	store := setupTestStore(t)
	flavours := NewFlavourRepository(store)
	orders := NewOrderRepository(store)
	ctx := context.Background()
	coconut := seedFlavour(t, flavours, "Coconut", "180", true)

	_, err := orders.Create(ctx, newTestOrder("ORD-20250130-CCCCCC", testNow, entity.NewOrderItem(coconut, 2)))
	require.NoError(t, err)
	require.NoError(t, flavours.Delete(ctx, coconut.ID))

	got, err := orders.GetByNumber(ctx, "ORD-20250130-CCCCCC")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Nil(t, got.Items[0].Flavour)
	assert.Equal(t, coconut.ID, got.Items[0].FlavourID)
	assertDecimal(t, "180", got.Items[0].PriceAtTime)
	assertDecimal(t, "360", got.Items[0].Subtotal)
}

func TestOrderList_NewestFirstWithoutItems(t *testing.T) {
	store := setupTestStore(t)
	flavours := NewFlavourRepository(store)
	orders := NewOrderRepository(store)
	ctx := context.Background()
	vanilla := seedFlavour(t, flavours, "Vanilla", "140", true)

	_, err := orders.Create(ctx, newTestOrder("ORD-20250130-OLDOLD", testNow, entity.NewOrderItem(vanilla, 1)))
	require.NoError(t, err)
	_, err = orders.Create(ctx, newTestOrder("ORD-20250130-NEWNEW", testNow.Add(time.Hour), entity.NewOrderItem(vanilla, 1)))
	require.NoError(t, err)

	list, err := orders.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ORD-20250130-NEWNEW", list[0].OrderNumber)
	assert.Equal(t, "ORD-20250130-OLDOLD", list[1].OrderNumber)
	assert.Nil(t, list[0].Items)
}

func TestOrderUpdate(t *testing.T) {
	store := setupTestStore(t)
	flavours := NewFlavourRepository(store)
	orders := NewOrderRepository(store)
	ctx := context.Background()
	mango := seedFlavour(t, flavours, "Mango", "170", true)

	created, err := orders.Create(ctx, newTestOrder("ORD-20250130-UPDATE", testNow, entity.NewOrderItem(mango, 1)))
	require.NoError(t, err)

	later := testNow.Add(30 * time.Minute)
	err = orders.Update(ctx, created.ID, entity.OrderPatch{
		PaymentStatus:      entity.Some(entity.PaymentStatusPaid),
		AdminNotes:         entity.Some("paid at the door"),
		MpesaTransactionID: entity.Some("QWE123RTY"),
	}, later)
	require.NoError(t, err)

	got, err := orders.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPending, got.OrderStatus)
	assert.Equal(t, entity.PaymentStatusPaid, got.PaymentStatus)
	require.NotNil(t, got.AdminNotes)
	assert.Equal(t, "paid at the door", *got.AdminNotes)
	require.NotNil(t, got.MpesaTransactionID)
	assert.True(t, later.Equal(got.UpdatedAt))
	assert.True(t, testNow.Equal(got.CreatedAt))

	err = orders.Update(ctx, created.ID, entity.OrderPatch{AdminNotes: entity.Null[string]()}, later)
	require.NoError(t, err)
	got, err = orders.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AdminNotes)
}

func TestOrderUpdate_NotFound(t *testing.T) {
	orders := NewOrderRepository(setupTestStore(t))
	err := orders.Update(context.Background(), 5, entity.OrderPatch{OrderStatus: entity.Some(entity.OrderStatusConfirmed)}, testNow)
	assert.ErrorIs(t, err, ErrNotFound)

	err = orders.Update(context.Background(), 5, entity.OrderPatch{OrderStatus: entity.Some(entity.OrderStatusCancelled)}, testNow)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOrderUpdate_CancelGuard(t *testing.T) {
	store := setupTestStore(t)
	flavours := NewFlavourRepository(store)
	orders := NewOrderRepository(store)
	ctx := context.Background()
	mango := seedFlavour(t, flavours, "Mango", "170", true)
	created, err := orders.Create(ctx, newTestOrder("ORD-20250130-GUARDS", testNow, entity.NewOrderItem(mango, 1)))
	require.NoError(t, err)

	cancel := entity.OrderPatch{OrderStatus: entity.Some(entity.OrderStatusCancelled)}

	// Cancelling twice is fine.
	require.NoError(t, orders.Update(ctx, created.ID, cancel, testNow))
	require.NoError(t, orders.Update(ctx, created.ID, cancel, testNow))

	deliver := entity.OrderPatch{OrderStatus: entity.Some(entity.OrderStatusDelivered)}
	require.NoError(t, orders.Update(ctx, created.ID, deliver, testNow))

	err = orders.Update(ctx, created.ID, cancel, testNow.Add(time.Minute))
	assert.ErrorIs(t, err, ErrGuardRejected)

	got, err := orders.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusDelivered, got.OrderStatus)
	assert.True(t, testNow.Equal(got.UpdatedAt))
}

func TestOrderStats(t *testing.T) {
	store := setupTestStore(t)
	flavours := NewFlavourRepository(store)
	orders := NewOrderRepository(store)
	ctx := context.Background()

	stats, err := orders.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalOrders)
	assertDecimal(t, "0", stats.TotalRevenue)

	blueberry := seedFlavour(t, flavours, "Blueberry", "160", true)
	a, err := orders.Create(ctx, newTestOrder("ORD-20250130-STAT01", testNow, entity.NewOrderItem(blueberry, 2)))
	require.NoError(t, err)
	b, err := orders.Create(ctx, newTestOrder("ORD-20250130-STAT02", testNow, entity.NewOrderItem(blueberry, 1)))
	require.NoError(t, err)
	_, err = orders.Create(ctx, newTestOrder("ORD-20250130-STAT03", testNow, entity.NewOrderItem(blueberry, 5)))
	require.NoError(t, err)

	stats, err = orders.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalOrders)
	assert.Equal(t, 3, stats.PendingOrders)
	assertDecimal(t, "0", stats.TotalRevenue)

	paid := entity.OrderPatch{PaymentStatus: entity.Some(entity.PaymentStatusPaid)}
	require.NoError(t, orders.Update(ctx, a.ID, paid, testNow))
	require.NoError(t, orders.Update(ctx, b.ID, entity.OrderPatch{
		PaymentStatus: entity.Some(entity.PaymentStatusPaid),
		OrderStatus:   entity.Some(entity.OrderStatusDelivered),
	}, testNow))

	stats, err = orders.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalOrders)
	assert.Equal(t, 2, stats.PendingOrders)
	assert.Equal(t, 1, stats.CompletedOrders)
	assertDecimal(t, "480", stats.TotalRevenue)
	assert.True(t, decimal.NewFromInt(480).Equal(stats.TotalRevenue))
}

func TestOrderCreate_FractionalPricesRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	flavours := NewFlavourRepository(store)
	orders := NewOrderRepository(store)
	ctx := context.Background()

	passion := seedFlavour(t, flavours, "Passion", "150.10", true)
	premium := seedFlavour(t, flavours, "Premium", "1234567890123456.78", true)

	created, err := orders.Create(ctx, newTestOrder("ORD-20250130-CENTS1", testNow,
		entity.NewOrderItem(passion, 3),
		entity.NewOrderItem(premium, 1),
	))
	require.NoError(t, err)

	got, err := orders.GetByNumber(ctx, created.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, "1234567890123907.08", got.TotalAmount.String())
	require.Len(t, got.Items, 2)
	assert.Equal(t, "150.1", got.Items[0].PriceAtTime.String())
	assert.Equal(t, "450.3", got.Items[0].Subtotal.String())
	assert.Equal(t, "1234567890123456.78", got.Items[1].PriceAtTime.String())
	assert.Equal(t, "1234567890123456.78", got.Items[1].Flavour.Price.String())

	stored, err := flavours.GetByID(ctx, passion.ID)
	require.NoError(t, err)
	assert.Equal(t, "150.1", stored.Price.String())
}

func TestOrderStats_FractionalRevenueIsExact(t *testing.T) {
	store := setupTestStore(t)
	flavours := NewFlavourRepository(store)
	orders := NewOrderRepository(store)
	ctx := context.Background()

	dime := seedFlavour(t, flavours, "Dime", "0.10", true)
	twenty := seedFlavour(t, flavours, "Twenty", "0.20", true)
	a, err := orders.Create(ctx, newTestOrder("ORD-20250130-CENTS2", testNow, entity.NewOrderItem(dime, 1)))
	require.NoError(t, err)
	b, err := orders.Create(ctx, newTestOrder("ORD-20250130-CENTS3", testNow, entity.NewOrderItem(twenty, 1)))
	require.NoError(t, err)

	paid := entity.OrderPatch{PaymentStatus: entity.Some(entity.PaymentStatusPaid)}
	require.NoError(t, orders.Update(ctx, a.ID, paid, testNow))
	require.NoError(t, orders.Update(ctx, b.ID, paid, testNow))

	stats, err := orders.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.3", stats.TotalRevenue.String())
	assert.True(t, decimal.RequireFromString("0.30").Equal(stats.TotalRevenue))
}
