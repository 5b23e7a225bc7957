package inventory

import "time"

const (
	EventStockSet      = "StockSet"
	EventStockDeducted = "StockDeducted"
	EventStockRestored = "StockRestored"
)

type StockSet struct {
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	SetAt     time.Time `json:"set_at"`
}

type StockDeducted struct {
	ProductID  string    `json:"product_id"`
	OrderID    string    `json:"order_id"`
	Quantity   int       `json:"quantity"`
	DeductedAt time.Time `json:"deducted_at"`
}

// StockRestored returns units to stock after an order is deleted or a
// checkout fails partway through.
type StockRestored struct {
	ProductID  string    `json:"product_id"`
	OrderID    string    `json:"order_id"`
	Quantity   int       `json:"quantity"`
	RestoredAt time.Time `json:"restored_at"`
}
