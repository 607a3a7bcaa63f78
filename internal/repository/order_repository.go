package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LeslieKogi/sunrise-backend/internal/entity"
	"github.com/LeslieKogi/sunrise-backend/migrations"
)

const orderColumns = `id, order_number, customer_name, customer_phone, customer_email, delivery_address,
	total_amount, order_status, payment_status, payment_method, mpesa_transaction_id, mpesa_phone,
	customer_notes, admin_notes, created_at, updated_at`

type OrderRepository struct {
	db      *sql.DB
	dialect migrations.Dialect
}

func NewOrderRepository(store *Store) *OrderRepository {
	return &OrderRepository{db: store.DB, dialect: store.Dialect}
}

func scanOrder(row scanner) (*entity.Order, error) {
	o := &entity.Order{}
	var orderStatus, paymentStatus, paymentMethod string
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerName, &o.CustomerPhone, &o.CustomerEmail, &o.DeliveryAddress,
		&o.TotalAmount, &orderStatus, &paymentStatus, &paymentMethod, &o.MpesaTransactionID, &o.MpesaPhone,
		&o.CustomerNotes, &o.AdminNotes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.OrderStatus = entity.OrderStatus(orderStatus)
	o.PaymentStatus = entity.PaymentStatus(paymentStatus)
	o.PaymentMethod = entity.PaymentMethod(paymentMethod)
	return o, nil
}

// Create writes the order and all of its items in one transaction. Either
// everything is committed or nothing is. A clash on order_number comes back
// as ErrDuplicate so the caller can pick a new number.
func (r *OrderRepository) Create(ctx context.Context, order *entity.Order) (*entity.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer rollback(tx)

	orderQuery := `INSERT INTO orders (order_number, customer_name, customer_phone, customer_email, delivery_address,
		total_amount, order_status, payment_status, payment_method, mpesa_transaction_id, mpesa_phone,
		customer_notes, admin_notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, orderQuery, order.OrderNumber, order.CustomerName, order.CustomerPhone,
		nullable(order.CustomerEmail), order.DeliveryAddress, order.TotalAmount.String(), string(order.OrderStatus),
		string(order.PaymentStatus), string(order.PaymentMethod), nullable(order.MpesaTransactionID),
		nullable(order.MpesaPhone), nullable(order.CustomerNotes), nullable(order.AdminNotes),
		order.CreatedAt, order.UpdatedAt)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}

	orderID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	itemStmt, err := tx.PrepareContext(ctx, `INSERT INTO order_items (order_id, flavour_id, quantity, price_at_time) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer itemStmt.Close()

	for i := range order.Items {
		item := &order.Items[i]
		res, err := itemStmt.ExecContext(ctx, orderID, item.FlavourID, item.Quantity, item.PriceAtTime.String())
		if err != nil {
			return nil, err
		}
		itemID, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		item.ID = int(itemID)
		item.OrderID = int(orderID)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	order.ID = int(orderID)
	return order, nil
}

// loadItems fetches an order's items with their flavours joined in. A flavour
// that has since been deleted leaves Flavour nil.
func (r *OrderRepository) loadItems(ctx context.Context, q querier, order *entity.Order) error {
	query := `SELECT oi.id, oi.flavour_id, oi.quantity, oi.price_at_time,
			f.id, f.name, f.description, f.price, f.image_url, f.is_available
		FROM order_items oi
		LEFT JOIN flavours f ON f.id = oi.flavour_id
		WHERE oi.order_id = ?
		ORDER BY oi.id`
	rows, err := q.QueryContext(ctx, query, order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	order.Items = []entity.OrderItem{}
	for rows.Next() {
		item := entity.OrderItem{OrderID: order.ID}
		var (
			flavourID   sql.NullInt64
			name        sql.NullString
			description sql.NullString
			price       decimal.NullDecimal
			imageURL    sql.NullString
			available   sql.NullBool
		)
		err := rows.Scan(&item.ID, &item.FlavourID, &item.Quantity, &item.PriceAtTime,
			&flavourID, &name, &description, &price, &imageURL, &available)
		if err != nil {
			return err
		}
		if flavourID.Valid {
			item.Flavour = &entity.Flavour{
				ID:          int(flavourID.Int64),
				Name:        name.String,
				Description: stringPtr(description),
				Price:       price.Decimal,
				ImageURL:    stringPtr(imageURL),
				IsAvailable: available.Bool,
			}
		}
		item.Subtotal = item.ComputeSubtotal()
		order.Items = append(order.Items, item)
	}
	return rows.Err()
}

func (r *OrderRepository) getOne(ctx context.Context, where string, arg any) (*entity.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+where, arg)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, r.db, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetByID returns the order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id int) (*entity.Order, error) {
	return r.getOne(ctx, `id = ?`, id)
}

// GetByNumber returns the order with its items, looked up by the customer
// facing order number.
func (r *OrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*entity.Order, error) {
	return r.getOne(ctx, `order_number = ?`, orderNumber)
}

// List returns every order, newest first, without items.
func (r *OrderRepository) List(ctx context.Context) ([]*entity.Order, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []*entity.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// Update applies the fields present in patch and stamps updated_at. Moving an
// order to cancelled only matches rows that are not delivered; when that guard
// blocks the write ErrGuardRejected is returned and nothing changes.
func (r *OrderRepository) Update(ctx context.Context, id int, patch entity.OrderPatch, updatedAt time.Time) error {
	sets := []string{"updated_at = ?"}
	args := []any{updatedAt}
	if patch.OrderStatus.Set {
		sets = append(sets, "order_status = ?")
		args = append(args, string(patch.OrderStatus.Value))
	}
	if patch.PaymentStatus.Set {
		sets = append(sets, "payment_status = ?")
		args = append(args, string(patch.PaymentStatus.Value))
	}
	if patch.AdminNotes.Set {
		sets = append(sets, "admin_notes = ?")
		args = append(args, nullable(patch.AdminNotes.Ptr()))
	}
	if patch.MpesaTransactionID.Set {
		sets = append(sets, "mpesa_transaction_id = ?")
		args = append(args, nullable(patch.MpesaTransactionID.Ptr()))
	}

	where := "id = ?"
	args = append(args, id)
	guarded := patch.OrderStatus.Set && patch.OrderStatus.Value == entity.OrderStatusCancelled
	if guarded {
		where += " AND order_status <> ?"
		args = append(args, string(entity.OrderStatusDelivered))
	}

	res, err := r.db.ExecContext(ctx, `UPDATE orders SET `+strings.Join(sets, ", ")+` WHERE `+where, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if guarded {
		return ErrGuardRejected
	}
	return ErrNotFound
}

// Stats aggregates the order counts in one pass and adds up paid revenue.
func (r *OrderRepository) Stats(ctx context.Context) (*entity.OrderStats, error) {
	query := `SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN order_status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN order_status = ? THEN 1 ELSE 0 END), 0)
		FROM orders`
	stats := &entity.OrderStats{}
	err := r.db.QueryRowContext(ctx, query,
		string(entity.OrderStatusPending), string(entity.OrderStatusDelivered),
	).Scan(&stats.TotalOrders, &stats.PendingOrders, &stats.CompletedOrders)
	if err != nil {
		return nil, err
	}

	if stats.TotalRevenue, err = r.paidRevenue(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}

// paidRevenue sums total_amount over paid orders. MySQL sums DECIMAL exactly;
// sqlite would add the TEXT amounts as REAL, so there the rows are summed here.
func (r *OrderRepository) paidRevenue(ctx context.Context) (decimal.Decimal, error) {
	paid := string(entity.PaymentStatusPaid)
	if r.dialect == migrations.DialectMySQL {
		var total decimal.Decimal
		err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE payment_status = ?`, paid).Scan(&total)
		return total, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT total_amount FROM orders WHERE payment_status = ?`, paid)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(amount)
	}
	return total, rows.Err()
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
