package entity

import (
	"math/rand/v2"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodMpesa          PaymentMethod = "mpesa"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodMpesa || m == PaymentMethodCashOnDelivery
}

type Order struct {
	ID                 int             `json:"id"`
	OrderNumber        string          `json:"order_number"`
	CustomerName       string          `json:"customer_name"`
	CustomerPhone      string          `json:"customer_phone"`
	CustomerEmail      *string         `json:"customer_email"`
	DeliveryAddress    string          `json:"delivery_address"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	OrderStatus        OrderStatus     `json:"order_status"`
	PaymentStatus      PaymentStatus   `json:"payment_status"`
	PaymentMethod      PaymentMethod   `json:"payment_method"`
	MpesaTransactionID *string         `json:"mpesa_transaction_id"`
	MpesaPhone         *string         `json:"mpesa_phone"`
	CustomerNotes      *string         `json:"customer_notes"`
	AdminNotes         *string         `json:"admin_notes"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	Items              []OrderItem     `json:"items,omitempty"`
}

type OrderItem struct {
	ID          int             `json:"id"`
	OrderID     int             `json:"-"`
	FlavourID   int             `json:"flavour_id"`
	Flavour     *Flavour        `json:"flavour"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"price_at_time"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// NewOrderItem snapshots the flavour's current price into the item.
func NewOrderItem(flavour *Flavour, quantity int) OrderItem {
	item := OrderItem{
		FlavourID:   flavour.ID,
		Flavour:     flavour,
		Quantity:    quantity,
		PriceAtTime: flavour.Price,
	}
	item.Subtotal = item.ComputeSubtotal()
	return item
}

func (i OrderItem) ComputeSubtotal() decimal.Decimal {
	return i.PriceAtTime.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ComputeTotal sums the item subtotals.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.ComputeSubtotal())
	}
	return total
}

// OrderItemRequest is one requested line of a new order.
type OrderItemRequest struct {
	FlavourID int `json:"flavour_id"`
	Quantity  int `json:"quantity"`
}

// CreateOrderInput is what a customer submits. There is deliberately no total
// field: the total is always computed from the catalog.
type CreateOrderInput struct {
	CustomerName    string             `json:"customer_name"`
	CustomerPhone   string             `json:"customer_phone"`
	CustomerEmail   *string            `json:"customer_email"`
	DeliveryAddress string             `json:"delivery_address"`
	CustomerNotes   *string            `json:"customer_notes"`
	MpesaPhone      *string            `json:"mpesa_phone"`
	PaymentMethod   *PaymentMethod     `json:"payment_method"`
	Items           []OrderItemRequest `json:"items"`
}

// OrderPatch carries an admin update of the mutable order fields.
type OrderPatch struct {
	OrderStatus        Optional[OrderStatus]   `json:"order_status"`
	PaymentStatus      Optional[PaymentStatus] `json:"payment_status"`
	AdminNotes         Optional[string]        `json:"admin_notes"`
	MpesaTransactionID Optional[string]        `json:"mpesa_transaction_id"`
}

func (p OrderPatch) Empty() bool {
	return !p.OrderStatus.Set && !p.PaymentStatus.Set && !p.AdminNotes.Set && !p.MpesaTransactionID.Set
}

type OrderStats struct {
	TotalOrders     int             `json:"total_orders"`
	PendingOrders   int             `json:"pending_orders"`
	CompletedOrders int             `json:"completed_orders"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
}

const orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var orderNumberPattern = regexp.MustCompile(`^ORD-\d{8}-[A-Z0-9]{6}$`)

// GenerateOrderNumber returns a number like ORD-20250130-ABC123 for the given
// instant. Uniqueness is not guaranteed; the store rejects duplicates.
func GenerateOrderNumber(now time.Time) string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = orderNumberAlphabet[rand.IntN(len(orderNumberAlphabet))]
	}
	return "ORD-" + now.UTC().Format("20060102") + "-" + string(suffix)
}

func ValidOrderNumber(s string) bool {
	return orderNumberPattern.MatchString(s)
}

/*
Schema:

CREATE TABLE orders (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	order_number VARCHAR(50) NOT NULL UNIQUE,
	...
);

CREATE TABLE order_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	flavour_id INTEGER NOT NULL,
	quantity INTEGER NOT NULL,
	price_at_time DECIMAL(10,2) NOT NULL
);

flavour_id has no foreign key: deleting a flavour must not touch order history.
*/
