package request

import "github.com/shopspring/decimal"

// CreateTransactionRequest records a buy or sell. The asset is looked up by
// symbol and created on first use.
type CreateTransactionRequest struct {
	Symbol          string          `json:"symbol" validate:"required,max=32"`
	AssetClass      string          `json:"assetClass" validate:"required,oneof=EQUITY REALESTATE_FUND CRYPTO"`
	Side            string          `json:"side" validate:"required,oneof=BUY SELL"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	Fees            decimal.Decimal `json:"fees"`
	ExecutedAt      string          `json:"executedAt" validate:"required"`
	OperationType   string          `json:"operationType" validate:"omitempty,oneof=SWING_TRADE DAY_TRADE"`
	RetentionPeriod string          `json:"retentionPeriod" validate:"omitempty,oneof=SHORT_TERM LONG_TERM"`
	ForeignCustody  bool            `json:"foreignCustody"`
}

// UpdateTransactionRequest changes any subset of a transaction's fields.
// Changing symbol or asset class moves the transaction to that asset.
type UpdateTransactionRequest struct {
	Symbol          *string          `json:"symbol,omitempty" validate:"omitempty,min=1,max=32"`
	AssetClass      *string          `json:"assetClass,omitempty" validate:"omitempty,oneof=EQUITY REALESTATE_FUND CRYPTO"`
	Side            *string          `json:"side,omitempty" validate:"omitempty,oneof=BUY SELL"`
	Quantity        *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice       *decimal.Decimal `json:"unitPrice,omitempty"`
	Fees            *decimal.Decimal `json:"fees,omitempty"`
	ExecutedAt      *string          `json:"executedAt,omitempty"`
	OperationType   *string          `json:"operationType,omitempty" validate:"omitempty,oneof=SWING_TRADE DAY_TRADE"`
	RetentionPeriod *string          `json:"retentionPeriod,omitempty" validate:"omitempty,oneof=SHORT_TERM LONG_TERM"`
	ForeignCustody  *bool            `json:"foreignCustody,omitempty"`
}
