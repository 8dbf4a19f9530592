package orderrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/6431503106/brselab/model"
	"github.com/6431503106/brselab/util/database"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrItemNotFound      = errors.New("order item not found")
	ErrStatusChanged     = errors.New("item status changed concurrently")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ItemState is the full set of lifecycle columns written by a
// transition. Nil date pointers clear the column.
type ItemState struct {
	Status           model.ItemStatus
	BorrowingDate    *time.Time
	ReturnDate       *time.Time
	ReturnedDate     *time.Time
	CanceledDate     *time.Time
	NotificationSent bool
}

// Transition is one state-machine step applied atomically: the item row
// is locked, the stock delta applied under a non-negative guard, and the
// lifecycle columns rewritten. From is the expected current status; a
// mismatch means a concurrent transition won and the step is rejected.
type Transition struct {
	OrderID    int64
	ItemID     string
	From       model.ItemStatus
	ProductID  int64
	StockDelta int64
	State      ItemState
}

// DueItem is one borrowed item whose return date falls inside the
// reminder window.
type DueItem struct {
	ItemRowID  int64
	OrderID    int64
	ItemName   string
	ReturnDate time.Time
	UserName   string
	UserEmail  string
}

type Repo interface {
	Create(ctx context.Context, o *model.Order) error
	ByID(ctx context.Context, id int64) (*model.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	Delete(ctx context.Context, id int64) error

	ApplyTransition(ctx context.Context, t Transition) error
	RemoveItem(ctx context.Context, orderID int64, itemID string) (orderDeleted bool, err error)
	StampBorrowingDates(ctx context.Context, orderID int64, at time.Time) error
	UpdateReturnDate(ctx context.Context, orderID int64, itemID string, at time.Time) error

	DueForReminder(ctx context.Context, cutoff time.Time) ([]DueItem, error)
	MarkNotified(ctx context.Context, itemRowID int64) error
}

type repo struct{ db *database.DB }

func New(db *database.DB) Repo { return &repo{db} }

func (r *repo) Create(ctx context.Context, o *model.Order) error {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx,
		`INSERT INTO orders(user_id) VALUES ($1) RETURNING id, created_at`,
		o.UserID,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return err
	}

	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items(item_id, order_id, product_id, category_id,
				name, image, qty, status, borrowing_date, return_date, reason)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			RETURNING id`,
			it.ItemID, o.ID, it.ProductID, it.CategoryID,
			it.Name, it.Image, it.Qty, it.Status, it.BorrowingDate, it.ReturnDate, it.Reason,
		).Scan(&it.ID)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

const itemCols = `
	id, item_id, order_id, product_id, category_id, name, image, qty, status,
	borrowing_date, return_date, returned_date, canceled_date, reason, notification_sent`

func scanItem(row pgx.Row, it *model.OrderItem) error {
	return row.Scan(&it.ID, &it.ItemID, &it.OrderID, &it.ProductID, &it.CategoryID,
		&it.Name, &it.Image, &it.Qty, &it.Status,
		&it.BorrowingDate, &it.ReturnDate, &it.ReturnedDate, &it.CanceledDate,
		&it.Reason, &it.NotificationSent)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Order, error) {
	o := &model.Order{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT o.id, o.user_id, u.name, u.email, o.created_at
		FROM orders o JOIN users u ON u.id = o.user_id
		WHERE o.id = $1`, id,
	).Scan(&o.ID, &o.UserID, &o.UserName, &o.UserEmail, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+itemCols+` FROM order_items WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it model.OrderItem
		if err := scanItem(rows, &it); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

func (r *repo) list(ctx context.Context, where string, args ...any) ([]model.Order, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT o.id, o.user_id, u.name, u.email, o.created_at
		FROM orders o JOIN users u ON u.id = o.user_id `+where+`
		ORDER BY o.created_at DESC, o.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Order
	byID := map[int64]int{}
	var ids []any
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.UserName, &o.UserEmail, &o.CreatedAt); err != nil {
			return nil, err
		}
		byID[o.ID] = len(out)
		ids = append(ids, o.ID)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	params := ""
	for i := range ids {
		if i > 0 {
			params += ","
		}
		params += fmt.Sprintf("$%d", i+1)
	}
	irows, err := r.db.Pool.Query(ctx,
		`SELECT `+itemCols+` FROM order_items WHERE order_id IN (`+params+`) ORDER BY id`, ids...)
	if err != nil {
		return nil, err
	}
	defer irows.Close()
	for irows.Next() {
		var it model.OrderItem
		if err := scanItem(irows, &it); err != nil {
			return nil, err
		}
		if idx, ok := byID[it.OrderID]; ok {
			out[idx].Items = append(out[idx].Items, it)
		}
	}
	return out, irows.Err()
}

func (r *repo) ListByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return r.list(ctx, `WHERE o.user_id = $1`, userID)
}

func (r *repo) ListAll(ctx context.Context) ([]model.Order, error) {
	return r.list(ctx, ``)
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	ct, err := r.db.Pool.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) ApplyTransition(ctx context.Context, t Transition) error {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serialize transitions on the same item.
	var cur model.ItemStatus
	err = tx.QueryRow(ctx, `
		SELECT status FROM order_items
		WHERE order_id = $1 AND item_id = $2
		FOR UPDATE`, t.OrderID, t.ItemID,
	).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrItemNotFound
	}
	if err != nil {
		return err
	}
	if cur != t.From {
		return ErrStatusChanged
	}

	if t.StockDelta != 0 {
		// Conditional adjust: no separate read-check-write window.
		ct, err := tx.Exec(ctx, `
			UPDATE products
			SET count_in_stock = count_in_stock + $2, updated_at = NOW()
			WHERE id = $1 AND count_in_stock + $2 >= 0`,
			t.ProductID, t.StockDelta)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return ErrInsufficientStock
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE order_items
		SET status=$3, borrowing_date=$4, return_date=$5, returned_date=$6,
			canceled_date=$7, notification_sent=$8
		WHERE order_id=$1 AND item_id=$2`,
		t.OrderID, t.ItemID,
		t.State.Status, t.State.BorrowingDate, t.State.ReturnDate,
		t.State.ReturnedDate, t.State.CanceledDate, t.State.NotificationSent,
	)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RemoveItem deletes one item and, when it was the last one, the whole
// order. No empty orders persist.
func (r *repo) RemoveItem(ctx context.Context, orderID int64, itemID string) (bool, error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx,
		`DELETE FROM order_items WHERE order_id=$1 AND item_id=$2`, orderID, itemID)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM orders WHERE id=$1)`, orderID).Scan(&exists); err != nil {
			return false, err
		}
		if !exists {
			return false, ErrNotFound
		}
		return false, ErrItemNotFound
	}

	var remaining int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM order_items WHERE order_id=$1`, orderID).Scan(&remaining); err != nil {
		return false, err
	}

	orderDeleted := false
	if remaining == 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, orderID); err != nil {
			return false, err
		}
		orderDeleted = true
	}
	return orderDeleted, tx.Commit(ctx)
}

func (r *repo) StampBorrowingDates(ctx context.Context, orderID int64, at time.Time) error {
	ct, err := r.db.Pool.Exec(ctx,
		`UPDATE order_items SET borrowing_date=$2 WHERE order_id=$1`, orderID, at)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) UpdateReturnDate(ctx context.Context, orderID int64, itemID string, at time.Time) error {
	ct, err := r.db.Pool.Exec(ctx, `
		UPDATE order_items
		SET return_date=$3, notification_sent=FALSE
		WHERE order_id=$1 AND item_id=$2`, orderID, itemID, at)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *repo) DueForReminder(ctx context.Context, cutoff time.Time) ([]DueItem, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.name, oi.return_date, u.name, u.email
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN users u ON u.id = o.user_id
		WHERE oi.status = 'Borrowing'
		AND NOT oi.notification_sent
		AND oi.return_date IS NOT NULL
		AND oi.return_date <= $1
		ORDER BY oi.return_date`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DueItem
	for rows.Next() {
		var d DueItem
		if err := rows.Scan(&d.ItemRowID, &d.OrderID, &d.ItemName, &d.ReturnDate,
			&d.UserName, &d.UserEmail); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repo) MarkNotified(ctx context.Context, itemRowID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE order_items SET notification_sent=TRUE WHERE id=$1`, itemRowID)
	return err
}
