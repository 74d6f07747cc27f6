package model

import (
	"fmt"
	"strings"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
)

// AssetClass identifies the kind of instrument an asset position holds.
type AssetClass string

// Supported asset classes.
const (
	AssetClassEquity         AssetClass = "EQUITY"
	AssetClassRealEstateFund AssetClass = "REALESTATE_FUND"
	AssetClassCrypto         AssetClass = "CRYPTO"
)

// AssetClasses returns every supported asset class in display order.
func AssetClasses() []AssetClass {
	return []AssetClass{AssetClassEquity, AssetClassRealEstateFund, AssetClassCrypto}
}

// Valid reports whether c is one of the supported asset classes.
func (c AssetClass) Valid() bool {
	switch c {
	case AssetClassEquity, AssetClassRealEstateFund, AssetClassCrypto:
		return true
	}
	return false
}

// Side is the direction of a transaction.
type Side string

// Transaction sides.
const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Valid reports whether s is BUY or SELL.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// OperationType distinguishes swing trades from same-day trades for equity and crypto.
type OperationType string

// Operation types.
const (
	OperationSwingTrade OperationType = "SWING_TRADE"
	OperationDayTrade   OperationType = "DAY_TRADE"
)

// RetentionPeriod is the holding horizon declared for real-estate fund transactions.
type RetentionPeriod string

// Retention periods.
const (
	RetentionShortTerm RetentionPeriod = "SHORT_TERM"
	RetentionLongTerm  RetentionPeriod = "LONG_TERM"
)

// Category is the tax category a sale is classified into. The set is closed:
// every switch over Category must handle exactly these five values.
type Category uint8

// Tax categories.
const (
	CategoryEquitySwing Category = iota + 1
	CategoryEquityDayTrade
	CategoryRealEstateFund
	CategoryCryptoDomestic
	CategoryCryptoForeign
)

var categoryNames = map[Category]string{
	CategoryEquitySwing:    "EQUITY_SWING",
	CategoryEquityDayTrade: "EQUITY_DAYTRADE",
	CategoryRealEstateFund: "REALESTATE_FUND",
	CategoryCryptoDomestic: "CRYPTO_DOMESTIC",
	CategoryCryptoForeign:  "CRYPTO_FOREIGN",
}

// Categories returns all tax categories in a stable order.
func Categories() []Category {
	return []Category{
		CategoryEquitySwing,
		CategoryEquityDayTrade,
		CategoryRealEstateFund,
		CategoryCryptoDomestic,
		CategoryCryptoForeign,
	}
}

// Valid reports whether c is one of the five tax categories.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", uint8(c))
}

// ParseCategory converts the textual form (e.g. "EQUITY_SWING") back to a Category.
func ParseCategory(s string) (Category, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for c, name := range categoryNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", apperrors.ErrInvalidCategory, s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", apperrors.ErrInvalidCategory, uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// AssetClass returns the asset class the category belongs to.
func (c Category) AssetClass() AssetClass {
	switch c {
	case CategoryEquitySwing, CategoryEquityDayTrade:
		return AssetClassEquity
	case CategoryRealEstateFund:
		return AssetClassRealEstateFund
	case CategoryCryptoDomestic, CategoryCryptoForeign:
		return AssetClassCrypto
	default:
		return ""
	}
}

// ReportScope groups categories into the documents a user receives for a period.
type ReportScope string

// Report scopes. The three primary scopes map onto asset classes; the
// consolidated scope covers all of them.
const (
	ScopeEquity         ReportScope = "EQUITY"
	ScopeRealEstateFund ReportScope = "REALESTATE_FUND"
	ScopeCrypto         ReportScope = "CRYPTO"
	ScopeConsolidated   ReportScope = "CONSOLIDATED"
)

// PrimaryScopes returns the per-asset-class scopes in document order.
func PrimaryScopes() []ReportScope {
	return []ReportScope{ScopeEquity, ScopeRealEstateFund, ScopeCrypto}
}

// ParseReportScope accepts the scope name in any case.
func ParseReportScope(s string) (ReportScope, error) {
	scope := ReportScope(strings.ToUpper(strings.TrimSpace(s)))
	switch scope {
	case ScopeEquity, ScopeRealEstateFund, ScopeCrypto, ScopeConsolidated:
		return scope, nil
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidReportScope, s)
}

// Categories returns the tax categories reported under the scope.
func (s ReportScope) Categories() []Category {
	switch s {
	case ScopeEquity:
		return []Category{CategoryEquitySwing, CategoryEquityDayTrade}
	case ScopeRealEstateFund:
		return []Category{CategoryRealEstateFund}
	case ScopeCrypto:
		return []Category{CategoryCryptoDomestic, CategoryCryptoForeign}
	case ScopeConsolidated:
		return Categories()
	default:
		return nil
	}
}

// Title is the human-readable section heading used on rendered documents.
func (s ReportScope) Title() string {
	switch s {
	case ScopeEquity:
		return "Equities"
	case ScopeRealEstateFund:
		return "Real-estate funds"
	case ScopeCrypto:
		return "Crypto-assets"
	case ScopeConsolidated:
		return "Consolidated"
	default:
		return string(s)
	}
}

// ScopeOf returns the primary report scope a category is reported under.
func ScopeOf(c Category) ReportScope {
	switch c.AssetClass() {
	case AssetClassEquity:
		return ScopeEquity
	case AssetClassRealEstateFund:
		return ScopeRealEstateFund
	case AssetClassCrypto:
		return ScopeCrypto
	default:
		return ""
	}
}
