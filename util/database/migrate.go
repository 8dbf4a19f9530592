package database

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	is_staff      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS categories (
	id   BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS products (
	id             BIGSERIAL PRIMARY KEY,
	user_id        BIGINT REFERENCES users(id),
	name           TEXT NOT NULL,
	image          TEXT NOT NULL DEFAULT '',
	brand          TEXT NOT NULL DEFAULT '',
	category_id    BIGINT NOT NULL REFERENCES categories(id),
	description    TEXT NOT NULL DEFAULT '',
	rating         DOUBLE PRECISION NOT NULL DEFAULT 0,
	num_reviews    BIGINT NOT NULL DEFAULT 0,
	count_in_stock BIGINT NOT NULL DEFAULT 0 CHECK (count_in_stock >= 0),
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS product_reviews (
	id         BIGSERIAL PRIMARY KEY,
	product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	user_id    BIGINT NOT NULL REFERENCES users(id),
	name       TEXT NOT NULL,
	rating     INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
	comment    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (product_id, user_id)
);

CREATE TABLE IF NOT EXISTS orders (
	id         BIGSERIAL PRIMARY KEY,
	user_id    BIGINT NOT NULL REFERENCES users(id),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS order_items (
	id                BIGSERIAL PRIMARY KEY,
	item_id           TEXT NOT NULL UNIQUE,
	order_id          BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	product_id        BIGINT NOT NULL REFERENCES products(id),
	category_id       BIGINT NOT NULL REFERENCES categories(id),
	name              TEXT NOT NULL,
	image             TEXT NOT NULL DEFAULT '',
	qty               BIGINT NOT NULL CHECK (qty > 0),
	status            TEXT NOT NULL DEFAULT 'Pending',
	borrowing_date    TIMESTAMPTZ,
	return_date       TIMESTAMPTZ,
	returned_date     TIMESTAMPTZ,
	canceled_date     TIMESTAMPTZ,
	reason            TEXT NOT NULL DEFAULT 'No reason provided',
	notification_sent BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);
CREATE INDEX IF NOT EXISTS idx_order_items_due
	ON order_items(return_date) WHERE status = 'Borrowing' AND NOT notification_sent;

CREATE TABLE IF NOT EXISTS contact_messages (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	message    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'unread',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Bootstrap creates the schema if it does not exist yet.
func (db *DB) Bootstrap(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}
	return nil
}
