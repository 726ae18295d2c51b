package model

import "time"

// Loan is an open borrow record. ItemName and ItemImage are copied from the
// item when the loan is created and are not updated afterwards.
type Loan struct {
	ID         string    `json:"id"`
	ItemID     string    `json:"itemId"`
	ItemName   string    `json:"itemName"`
	ItemImage  string    `json:"itemImage"`
	ClassName  string    `json:"className"`
	BorrowDate time.Time `json:"borrowDate"`
	Reason     string    `json:"reason"`
}
