package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/LeslieKogi/sunrise-backend/internal/entity"
	"github.com/LeslieKogi/sunrise-backend/internal/event"
	"github.com/LeslieKogi/sunrise-backend/internal/repository"
)

// maxOrderNumberAttempts bounds how often Create picks a fresh order number
// after a uniqueness clash.
const maxOrderNumberAttempts = 5

const idempotencyPending = "pending"

// idempotencyPendingTTL bounds how long a claimed key blocks retries when the
// order number could not be recorded against it.
const idempotencyPendingTTL = 30 * time.Second

type OrderStore interface {
	Create(ctx context.Context, order *entity.Order) (*entity.Order, error)
	GetByID(ctx context.Context, id int) (*entity.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*entity.Order, error)
	List(ctx context.Context) ([]*entity.Order, error)
	Update(ctx context.Context, id int, patch entity.OrderPatch, updatedAt time.Time) error
	Stats(ctx context.Context) (*entity.OrderStats, error)
}

// FlavourReader is the slice of the catalog that order creation needs.
type FlavourReader interface {
	GetByID(ctx context.Context, id int) (*entity.Flavour, error)
}

// OrderService is a service that provides order-related operations
type OrderService struct {
	orderRepo      OrderStore
	flavourRepo    FlavourReader
	publisher      event.Publisher
	rdb            *redis.Client
	idempotencyTTL time.Duration

	now            func() time.Time
	newOrderNumber func(time.Time) string
}

// NewOrderService creates a new instance of OrderService. rdb may be nil to
// disable idempotency keys; publisher may be event.Nop{}.
func NewOrderService(orderRepo OrderStore, flavourRepo FlavourReader, publisher event.Publisher, rdb *redis.Client, idempotencyTTL time.Duration) *OrderService {
	if publisher == nil {
		publisher = event.Nop{}
	}
	return &OrderService{
		orderRepo:      orderRepo,
		flavourRepo:    flavourRepo,
		publisher:      publisher,
		rdb:            rdb,
		idempotencyTTL: idempotencyTTL,
		now:            func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		newOrderNumber: entity.GenerateOrderNumber,
	}
}

func validateOrderInput(in *entity.CreateOrderInput) error {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.DeliveryAddress = strings.TrimSpace(in.DeliveryAddress)

	switch {
	case in.CustomerName == "":
		return newError(ErrInvalidInput, "Missing required field: customer_name")
	case in.CustomerPhone == "":
		return newError(ErrInvalidInput, "Missing required field: customer_phone")
	case in.DeliveryAddress == "":
		return newError(ErrInvalidInput, "Missing required field: delivery_address")
	case in.Items == nil:
		return newError(ErrInvalidInput, "Missing required field: items")
	case len(in.Items) == 0:
		return newError(ErrInvalidInput, "Order must contain at least one item")
	}

	for _, item := range in.Items {
		if item.FlavourID <= 0 {
			return newError(ErrInvalidInput, "Each item requires a flavour_id")
		}
		if item.Quantity <= 0 {
			return newError(ErrInvalidInput, "Quantity for flavour %d must be a positive integer", item.FlavourID)
		}
	}

	if in.PaymentMethod != nil && !in.PaymentMethod.Valid() {
		return newError(ErrInvalidInput, "Invalid payment_method: %s", *in.PaymentMethod)
	}
	return nil
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

// resolveItems looks every requested flavour up in the store and snapshots its
// current price. A flavour listed twice is read once so both lines carry the
// same snapshot.
func (s *OrderService) resolveItems(ctx context.Context, requests []entity.OrderItemRequest) ([]entity.OrderItem, error) {
	seen := make(map[int]*entity.Flavour, len(requests))
	items := make([]entity.OrderItem, 0, len(requests))
	for _, req := range requests {
		flavour, ok := seen[req.FlavourID]
		if !ok {
			var err error
			flavour, err = s.flavourRepo.GetByID(ctx, req.FlavourID)
			if errors.Is(err, repository.ErrNotFound) {
				return nil, newError(ErrNotFound, "Flavour %d not found", req.FlavourID)
			}
			if err != nil {
				logger.Error().Err(err).Msgf("Error getting flavour %d", req.FlavourID)
				return nil, err
			}
			seen[req.FlavourID] = flavour
		}

		if !flavour.IsAvailable {
			return nil, newError(ErrInvalidInput, "%s is not available", flavour.Name)
		}
		items = append(items, entity.NewOrderItem(flavour, req.Quantity))
	}
	return items, nil
}

// Create creates a new order
func (s *OrderService) Create(ctx context.Context, in entity.CreateOrderInput) (*entity.Order, error) {
	if err := validateOrderInput(&in); err != nil {
		return nil, err
	}

	items, err := s.resolveItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &entity.Order{
		CustomerName:    in.CustomerName,
		CustomerPhone:   in.CustomerPhone,
		CustomerEmail:   blankToNil(in.CustomerEmail),
		DeliveryAddress: in.DeliveryAddress,
		OrderStatus:     entity.OrderStatusPending,
		PaymentStatus:   entity.PaymentStatusPending,
		PaymentMethod:   entity.PaymentMethodCashOnDelivery,
		MpesaPhone:      blankToNil(in.MpesaPhone),
		CustomerNotes:   blankToNil(in.CustomerNotes),
		CreatedAt:       now,
		UpdatedAt:       now,
		Items:           items,
	}
	if in.PaymentMethod != nil {
		order.PaymentMethod = *in.PaymentMethod
	}
	order.TotalAmount = order.ComputeTotal()

	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		order.OrderNumber = s.newOrderNumber(now)

		created, err := s.orderRepo.Create(ctx, order)
		if err == nil {
			logger.Info().Str("order_number", created.OrderNumber).Str("total", created.TotalAmount.StringFixed(2)).Msg("Order created")
			s.publish(ctx, event.OrderCreated, created)
			return created, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			logger.Error().Err(err).Msg("Error creating order")
			return nil, err
		}
		logger.Warn().Str("order_number", order.OrderNumber).Int("attempt", attempt).Msg("Order number collision, retrying")
	}

	return nil, newError(ErrConflict, "Could not allocate a unique order number, please retry")
}

// CreateIdempotent creates the order once per idempotency key. A repeated key
// returns the order made by the first request with replayed set to true.
// Without redis or a key it is the same as Create.
func (s *OrderService) CreateIdempotent(ctx context.Context, key string, in entity.CreateOrderInput) (order *entity.Order, replayed bool, err error) {
	key = strings.TrimSpace(key)
	if s.rdb == nil || key == "" {
		order, err = s.Create(ctx, in)
		return order, false, err
	}

	redisKey := "idempotency-key:" + key
	pendingTTL := idempotencyPendingTTL
	if s.idempotencyTTL > 0 && s.idempotencyTTL < pendingTTL {
		pendingTTL = s.idempotencyTTL
	}
	claimed, err := s.rdb.SetNX(ctx, redisKey, idempotencyPending, pendingTTL).Result()
	if err != nil {
		logger.Error().Err(err).Msg("Error claiming idempotency key")
		return nil, false, err
	}

	if !claimed {
		orderNumber, err := s.rdb.Get(ctx, redisKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, false, err
		}
		if orderNumber == "" || orderNumber == idempotencyPending {
			return nil, false, newError(ErrConflict, "A request with this idempotency key is already in progress")
		}
		order, err := s.GetByNumber(ctx, orderNumber)
		if err != nil {
			return nil, false, err
		}
		return order, true, nil
	}

	order, err = s.Create(ctx, in)
	if err != nil {
		if delErr := s.rdb.Del(ctx, redisKey).Err(); delErr != nil {
			logger.Error().Err(delErr).Msg("Error releasing idempotency key")
		}
		return nil, false, err
	}

	if err := s.rdb.Set(ctx, redisKey, order.OrderNumber, s.idempotencyTTL).Err(); err != nil {
		logger.Error().Err(err).Str("order_number", order.OrderNumber).Msg("Error recording idempotency key")
		if delErr := s.rdb.Del(ctx, redisKey).Err(); delErr != nil {
			logger.Error().Err(delErr).Msg("Error releasing idempotency key")
		}
	}
	return order, false, nil
}

// GetByNumber is the customer-facing lookup.
func (s *OrderService) GetByNumber(ctx context.Context, orderNumber string) (*entity.Order, error) {
	order, err := s.orderRepo.GetByNumber(ctx, orderNumber)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrNotFound, "Order %s not found", orderNumber)
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting order %s", orderNumber)
		return nil, err
	}
	return order, nil
}

// List returns all orders, newest first, without items.
func (s *OrderService) List(ctx context.Context) ([]*entity.Order, error) {
	orders, err := s.orderRepo.List(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing orders")
		return nil, err
	}
	return orders, nil
}

// Update applies an admin patch to the status, payment and note fields.
func (s *OrderService) Update(ctx context.Context, id int, patch entity.OrderPatch) (*entity.Order, error) {
	if patch.OrderStatus.Set && (patch.OrderStatus.Null || !patch.OrderStatus.Value.Valid()) {
		return nil, newError(ErrInvalidInput, "Invalid order_status: %s", patch.OrderStatus.Value)
	}
	if patch.PaymentStatus.Set && (patch.PaymentStatus.Null || !patch.PaymentStatus.Value.Valid()) {
		return nil, newError(ErrInvalidInput, "Invalid payment_status: %s", patch.PaymentStatus.Value)
	}

	order, err := s.apply(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event.OrderUpdated, order)
	return order, nil
}

// Cancel moves the order to cancelled. Delivered orders cannot be cancelled;
// cancelling a cancelled order succeeds.
func (s *OrderService) Cancel(ctx context.Context, id int) (*entity.Order, error) {
	order, err := s.apply(ctx, id, entity.OrderPatch{OrderStatus: entity.Some(entity.OrderStatusCancelled)})
	if err != nil {
		return nil, err
	}
	logger.Info().Str("order_number", order.OrderNumber).Msg("Order cancelled")
	s.publish(ctx, event.OrderCancelled, order)
	return order, nil
}

func (s *OrderService) apply(ctx context.Context, id int, patch entity.OrderPatch) (*entity.Order, error) {
	err := s.orderRepo.Update(ctx, id, patch, s.now())
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, newError(ErrNotFound, "Order %d not found", id)
	case errors.Is(err, repository.ErrGuardRejected):
		return nil, newError(ErrInvalidTransition, "Cannot cancel delivered order")
	case err != nil:
		logger.Error().Err(err).Msgf("Error updating order %d", id)
		return nil, err
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(ErrNotFound, "Order %d not found", id)
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting order %d", id)
		return nil, err
	}
	return order, nil
}

// Stats returns the dashboard counters.
func (s *OrderService) Stats(ctx context.Context) (*entity.OrderStats, error) {
	stats, err := s.orderRepo.Stats(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error computing order stats")
		return nil, err
	}
	return stats, nil
}

// publish never fails the request: the order is already committed.
func (s *OrderService) publish(ctx context.Context, eventType string, order *entity.Order) {
	if err := s.publisher.Publish(ctx, event.New(eventType, order, s.now())); err != nil {
		logger.Error().Err(err).Str("order_number", order.OrderNumber).Msgf("Error publishing %s event", eventType)
	}
}
