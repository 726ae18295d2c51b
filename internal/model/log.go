package model

import "time"

// LogEntry is an immutable audit record of a state-changing action.
type LogEntry struct {
	ID       string    `json:"id"`
	Date     time.Time `json:"date"`
	UserName string    `json:"userName"`
	UserRole string    `json:"userRole"`
	Action   string    `json:"action"`
	ItemName string    `json:"itemName"`
	Note     string    `json:"note"`
	ImageURL string    `json:"imageUrl"`
}

// Log actions.
const (
	ActionAddInventory = "add_inventory"
	ActionEditItem     = "edit_item"
	ActionDeleteItem   = "delete_item"
	ActionBorrow       = "borrow"
	ActionReturn       = "return"
	ActionUnknown      = "unknown"
)
