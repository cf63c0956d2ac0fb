package ledger

type StockStatus string

const (
	InStock    StockStatus = "in_stock"
	LowStock   StockStatus = "low_stock"
	OutOfStock StockStatus = "out_of_stock"
)

func Status(quantity, reorderLevel int) StockStatus {
	switch {
	case quantity <= 0:
		return OutOfStock
	case quantity <= reorderLevel:
		return LowStock
	default:
		return InStock
	}
}

func (s StockStatus) Valid() bool {
	return s == InStock || s == LowStock || s == OutOfStock
}
