package order

import "time"

type SubmitItemReq struct {
	ProductID     int64      `json:"product_id" validate:"required,gt=0"`
	Qty           int64      `json:"qty" validate:"required,gt=0"`
	Reason        string     `json:"reason"`
	BorrowingDate *time.Time `json:"borrowing_date"`
	ReturnDate    *time.Time `json:"return_date"`
}

type SubmitOrderReq struct {
	Items []SubmitItemReq `json:"order_items" validate:"required,min=1,dive"`
}

type UpdateStatusReq struct {
	Status     string     `json:"status" validate:"required"`
	ReturnDate *time.Time `json:"return_date"`
}

type ChangeReturnDateReq struct {
	ReturnDate time.Time `json:"return_date" validate:"required"`
}
