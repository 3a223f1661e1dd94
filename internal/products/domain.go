package products

import (
	"errors"
	"time"

	"github.com/abasto-pos/abasto-pos/internal/money"
)

// Product carries the catalogue data the sale ledger needs: both sell prices
// and the stock lots a sale draws from.
type Product struct {
	ID              int64
	Name            string
	Code            string
	SellPriceCash   money.Money
	SellPriceCredit money.Money
	IsActive        bool
	Lots            []StockLot
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StockLot is one inventory entrance of a product. Sales reference the lot
// they draw stock from so that cost and utility stay attributable.
type StockLot struct {
	ID             int64
	ProductID      int64
	BuyPrice       money.Money
	UnitsAvailable int
	UnitsSold      int
	// Utility accumulates the cash-sale margin on this lot. Credit margin
	// is recognised on payment, not on sale, so credit sales do not touch it.
	Utility      money.Money
	RegisteredAt time.Time
}

// SoldItem describes one sold line applied against a stock lot.
type SoldItem struct {
	ProductID  int64
	StockLotID int64
	Quantity   int
	SalePrice  money.Money
}

var (
	// ErrNotFound indicates a missing product.
	ErrNotFound = errors.New("products: not found")
	// ErrLotNotFound indicates a stock lot reference that does not belong
	// to the product.
	ErrLotNotFound = errors.New("products: stock lot not found")
	// ErrInvalidQuantity indicates a non-positive quantity.
	ErrInvalidQuantity = errors.New("products: quantity must be positive")
)
