// model/order.go
package model

import "time"

type ItemStatus string

const (
	StatusPending       ItemStatus = "Pending"
	StatusConfirm       ItemStatus = "Confirm"
	StatusBorrowing     ItemStatus = "Borrowing"
	StatusReturn        ItemStatus = "Return"
	StatusCancel        ItemStatus = "Cancel"
	StatusNonReturnable ItemStatus = "Non-returnable"
)

func ValidItemStatus(s ItemStatus) bool {
	switch s {
	case StatusPending, StatusConfirm, StatusBorrowing,
		StatusReturn, StatusCancel, StatusNonReturnable:
		return true
	}
	return false
}

type Order struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"user_id"`
	UserName  string      `json:"user_name,omitempty"`
	UserEmail string      `json:"user_email,omitempty"`
	Items     []OrderItem `json:"order_items"`
	CreatedAt time.Time   `json:"created_at"`
}

// OrderItem is one requested product line inside an order. ItemID is the
// caller-facing identifier; ID is the store-assigned row id.
type OrderItem struct {
	ID               int64      `json:"-"`
	ItemID           string     `json:"item_id"`
	OrderID          int64      `json:"order_id"`
	ProductID        int64      `json:"product_id"`
	CategoryID       int64      `json:"category_id"`
	Name             string     `json:"name"`
	Image            string     `json:"image"`
	Qty              int64      `json:"qty"`
	Status           ItemStatus `json:"status"`
	BorrowingDate    *time.Time `json:"borrowing_date,omitempty"`
	ReturnDate       *time.Time `json:"return_date,omitempty"`
	ReturnedDate     *time.Time `json:"returned_date,omitempty"`
	CanceledDate     *time.Time `json:"canceled_date,omitempty"`
	Reason           string     `json:"reason"`
	NotificationSent bool       `json:"notification_sent"`
}
