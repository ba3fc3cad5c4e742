package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL,
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		seller_id BIGINT NOT NULL,
		buyer_id BIGINT NULL,
		title VARCHAR(100) NOT NULL,
		description VARCHAR(500) NOT NULL,
		category VARCHAR(50) NOT NULL,
		price DECIMAL(12,2) NOT NULL,
		image VARCHAR(512) NOT NULL DEFAULT '/no-image.svg',
		images JSON NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'available',
		item_condition VARCHAR(20) NOT NULL,
		location VARCHAR(255) NOT NULL,
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL,
		KEY idx_products_status_created (status, created_at),
		KEY idx_products_seller (seller_id),
		KEY idx_products_buyer (buyer_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS carts (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		total_amount DECIMAL(12,2) NOT NULL DEFAULT 0,
		item_count INT NOT NULL DEFAULT 0,
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL,
		UNIQUE KEY uq_carts_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS cart_items (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		cart_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		quantity INT NOT NULL,
		added_at DATETIME(3) NOT NULL,
		UNIQUE KEY uq_cart_items_product (cart_id, product_id),
		CONSTRAINT fk_cart_items_cart FOREIGN KEY (cart_id) REFERENCES carts(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS orders (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_number VARCHAR(32) NOT NULL,
		user_id BIGINT NOT NULL,
		total_amount DECIMAL(12,2) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		shipping_street VARCHAR(255) NOT NULL DEFAULT '',
		shipping_city VARCHAR(100) NOT NULL DEFAULT '',
		shipping_state VARCHAR(100) NOT NULL DEFAULT '',
		shipping_zip_code VARCHAR(20) NOT NULL DEFAULT '',
		shipping_country VARCHAR(100) NOT NULL DEFAULT '',
		tracking_number VARCHAR(32) NULL,
		estimated_delivery DATETIME(3) NULL,
		notes TEXT NOT NULL,
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL,
		UNIQUE KEY uq_orders_number (order_number),
		KEY idx_orders_user_created (user_id, created_at),
		KEY idx_orders_status (status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	// Lines keep their own copy of the product, so there is no FK to products.
	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		quantity INT NOT NULL,
		price DECIMAL(12,2) NOT NULL,
		title VARCHAR(100) NOT NULL,
		image VARCHAR(512) NOT NULL,
		KEY idx_order_items_order (order_id),
		CONSTRAINT fk_order_items_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i+1, err)
		}
	}
	log.Printf("Database schema is up to date (%d tables)", len(schema))
	return nil
}
