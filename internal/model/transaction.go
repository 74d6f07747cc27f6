package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is an immutable buy or sell execution recorded by a user.
// Asset class and symbol are denormalised from the owning asset for reads.
type Transaction struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	AssetID         string          `json:"assetId"`
	Symbol          string          `json:"symbol"`
	AssetClass      AssetClass      `json:"assetClass"`
	Side            Side            `json:"side"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	Fees            decimal.Decimal `json:"fees"`
	ExecutedAt      time.Time       `json:"executedAt"`
	OperationType   OperationType   `json:"operationType,omitempty"`
	RetentionPeriod RetentionPeriod `json:"retentionPeriod,omitempty"`
	ForeignCustody  bool            `json:"foreignCustody"`
	CreatedAt       time.Time       `json:"createdAt,omitempty"`
}

// IsDayTrade reports whether the transaction was declared a same-day trade.
func (t Transaction) IsDayTrade() bool {
	return t.OperationType == OperationDayTrade
}

// Gross is quantity times unit price, before fees.
func (t Transaction) Gross() decimal.Decimal {
	return t.Quantity.Mul(t.UnitPrice)
}

// Sale is a SELL transaction paired with the current average cost of its asset.
type Sale struct {
	Transaction
	AverageCost decimal.Decimal
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	UserID  string
	AssetID string
	From    time.Time
	To      time.Time
}
