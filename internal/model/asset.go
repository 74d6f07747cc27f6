package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset is the stored position of one symbol for one user. Quantity and
// AverageCost are a projection of the asset's full transaction history.
type Asset struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Symbol      string          `json:"symbol"`
	Class       AssetClass      `json:"assetClass"`
	Quantity    decimal.Decimal `json:"quantity"`
	AverageCost decimal.Decimal `json:"averageCost"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Position is the result of replaying a transaction history.
type Position struct {
	Quantity       decimal.Decimal `json:"quantity"`
	AverageCost    decimal.Decimal `json:"averageCost"`
	TotalCost      decimal.Decimal `json:"totalCost"`
	BoughtQuantity decimal.Decimal `json:"boughtQuantity"`
	SoldQuantity   decimal.Decimal `json:"soldQuantity"`
}
