package model

import "github.com/shopspring/decimal"

// DashboardSummary is the read-only overview for a range of months.
// Market values come from spot prices and never feed tax computation.
type DashboardSummary struct {
	From             Period                         `json:"from"`
	To               Period                         `json:"to"`
	TotalTaxDue      decimal.Decimal                `json:"totalTaxDue"`
	TotalSold        decimal.Decimal                `json:"totalSold"`
	TotalNetProfit   decimal.Decimal                `json:"totalNetProfit"`
	ProfitByClass    map[AssetClass]decimal.Decimal `json:"profitByClass"`
	InvestedCost     decimal.Decimal                `json:"investedCost"`
	MarketValue      decimal.Decimal                `json:"marketValue"`
	UnrealizedResult decimal.Decimal                `json:"unrealizedResult"`
	Positions        []PositionValuation            `json:"positions"`
}

// PositionValuation is one open position valued at the latest spot price.
// When no price is available the position is valued at cost.
type PositionValuation struct {
	AssetID        string          `json:"assetId"`
	Symbol         string          `json:"symbol"`
	Class          AssetClass      `json:"assetClass"`
	Quantity       decimal.Decimal `json:"quantity"`
	AverageCost    decimal.Decimal `json:"averageCost"`
	Invested       decimal.Decimal `json:"invested"`
	Price          decimal.Decimal `json:"price"`
	MarketValue    decimal.Decimal `json:"marketValue"`
	PriceAvailable bool            `json:"priceAvailable"`
}
