package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Dialect string

const (
	DialectSQLite Dialect = "sqlite"
	DialectMySQL  Dialect = "mysql"
)

// sqlite gives DECIMAL columns NUMERIC affinity and would store money as REAL.
// Money columns are TEXT there and hold the exact decimal string.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS flavours (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name VARCHAR(100) NOT NULL UNIQUE,
		description TEXT,
		price TEXT NOT NULL,
		image_url VARCHAR(500),
		is_available BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_number VARCHAR(50) NOT NULL UNIQUE,
		customer_name VARCHAR(100) NOT NULL,
		customer_phone VARCHAR(20) NOT NULL,
		customer_email VARCHAR(120),
		delivery_address TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		order_status VARCHAR(20) NOT NULL DEFAULT 'pending',
		payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
		payment_method VARCHAR(30) NOT NULL DEFAULT 'cash_on_delivery',
		mpesa_transaction_id VARCHAR(100),
		mpesa_phone VARCHAR(20),
		customer_notes TEXT,
		admin_notes TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id INTEGER NOT NULL,
		flavour_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		price_at_time TEXT NOT NULL,
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)`,
	`CREATE TABLE IF NOT EXISTS admins (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username VARCHAR(80) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL
	)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS flavours (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL UNIQUE,
		description TEXT,
		price DECIMAL(10,2) NOT NULL,
		image_url VARCHAR(500),
		is_available BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME(6) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS orders (
		id INT AUTO_INCREMENT PRIMARY KEY,
		order_number VARCHAR(50) NOT NULL UNIQUE,
		customer_name VARCHAR(100) NOT NULL,
		customer_phone VARCHAR(20) NOT NULL,
		customer_email VARCHAR(120),
		delivery_address TEXT NOT NULL,
		total_amount DECIMAL(12,2) NOT NULL,
		order_status VARCHAR(20) NOT NULL DEFAULT 'pending',
		payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
		payment_method VARCHAR(30) NOT NULL DEFAULT 'cash_on_delivery',
		mpesa_transaction_id VARCHAR(100),
		mpesa_phone VARCHAR(20),
		customer_notes TEXT,
		admin_notes TEXT,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		INDEX idx_orders_created_at (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id INT AUTO_INCREMENT PRIMARY KEY,
		order_id INT NOT NULL,
		flavour_id INT NOT NULL,
		quantity INT NOT NULL CHECK (quantity > 0),
		price_at_time DECIMAL(10,2) NOT NULL,
		FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS admins (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(80) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// AutoMigrate creates every table that does not exist yet. Each statement is
// retried up to retries times, one second apart, to ride out a database that
// is still starting.
func AutoMigrate(ctx context.Context, db *sql.DB, dialect Dialect, retries int) error {
	var schema []string
	switch dialect {
	case DialectSQLite:
		schema = sqliteSchema
	case DialectMySQL:
		schema = mysqlSchema
	default:
		return fmt.Errorf("unsupported dialect %q", dialect)
	}

	for _, query := range schema {
		_, err := db.ExecContext(ctx, query)
		for i := 0; err != nil && i < retries; i++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(1 * time.Second):
			}
			_, err = db.ExecContext(ctx, query)
		}
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
