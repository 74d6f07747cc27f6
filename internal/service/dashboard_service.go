package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/quote"
)

// DashboardService builds the read-only overview. It reads stored results and
// positions only; it never triggers a recompute.
type DashboardService struct {
	taxService      *TaxService
	positionService *PositionService
	quotes          quote.Provider
	log             logrus.FieldLogger
}

// NewDashboardService creates a new DashboardService. quotes may be nil, in
// which case every position is valued at cost.
func NewDashboardService(taxService *TaxService, positionService *PositionService, quotes quote.Provider, log logrus.FieldLogger) *DashboardService {
	return &DashboardService{
		taxService:      taxService,
		positionService: positionService,
		quotes:          quotes,
		log:             log,
	}
}

// Summary totals the stored monthly results of from..to and values the
// user's open positions at spot.
func (s *DashboardService) Summary(ctx context.Context, userID string, from, to model.Period) (model.DashboardSummary, error) {
	results, err := s.taxService.ListResults(ctx, userID, from, to)
	if err != nil {
		return model.DashboardSummary{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToGetDashboard, err)
	}
	assets, err := s.positionService.ListAssets(ctx, userID)
	if err != nil {
		return model.DashboardSummary{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToGetDashboard, err)
	}

	summary := model.DashboardSummary{
		From:          from,
		To:            to,
		ProfitByClass: make(map[model.AssetClass]decimal.Decimal),
		Positions:     []model.PositionValuation{},
	}

	for _, r := range results {
		summary.TotalTaxDue = summary.TotalTaxDue.Add(r.TaxDue)
		summary.TotalSold = summary.TotalSold.Add(r.TotalSold)
		summary.TotalNetProfit = summary.TotalNetProfit.Add(r.NetProfit)
		class := r.Category.AssetClass()
		summary.ProfitByClass[class] = summary.ProfitByClass[class].Add(r.NetProfit)
	}

	for _, a := range assets {
		if !a.Quantity.IsPositive() {
			continue
		}
		v := s.value(ctx, a)
		summary.Positions = append(summary.Positions, v)
		summary.InvestedCost = summary.InvestedCost.Add(v.Invested)
		summary.MarketValue = summary.MarketValue.Add(v.MarketValue)
	}
	summary.UnrealizedResult = summary.MarketValue.Sub(summary.InvestedCost)

	return summary, nil
}

func (s *DashboardService) value(ctx context.Context, a model.Asset) model.PositionValuation {
	invested := a.Quantity.Mul(a.AverageCost).Round(2)
	v := model.PositionValuation{
		AssetID:     a.ID,
		Symbol:      a.Symbol,
		Class:       a.Class,
		Quantity:    a.Quantity,
		AverageCost: a.AverageCost,
		Invested:    invested,
		Price:       a.AverageCost,
		MarketValue: invested,
	}
	if s.quotes == nil {
		return v
	}

	price, err := s.quotes.Price(ctx, a.Symbol, a.Class)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"symbol": a.Symbol,
			"class":  string(a.Class),
		}).WithError(err).Debug("no spot price, valuing position at cost")
		return v
	}
	v.Price = price
	v.MarketValue = a.Quantity.Mul(price).Round(2)
	v.PriceAvailable = true
	return v
}
