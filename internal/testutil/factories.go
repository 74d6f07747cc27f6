package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/repository"
)

// UserBuilder provides a fluent interface for creating test taxpayers.
//
// Example usage:
//
//	// Simple creation with defaults
//	user := testutil.NewUser().Build(t, db)
//
//	// Customized user
//	user := testutil.NewUser().
//	    WithEmail("ana@example.com").
//	    Notifiable().
//	    Build(t, db)
type UserBuilder struct {
	ID                   string
	Name                 string
	Email                string
	TaxIDToken           string
	NotificationsEnabled bool
}

// NewUser creates a UserBuilder with sensible defaults.
func NewUser() *UserBuilder {
	return &UserBuilder{
		ID:    MakeUserID(),
		Name:  MakeName("Taxpayer"),
		Email: "",
	}
}

// WithID sets a custom ID.
func (b *UserBuilder) WithID(id string) *UserBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.Name = name
	return b
}

// WithEmail sets the contact email.
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.Email = email
	return b
}

// WithTaxIDToken stores an already encrypted tax ID.
func (b *UserBuilder) WithTaxIDToken(token string) *UserBuilder {
	b.TaxIDToken = token
	return b
}

// Notifiable opts the user in to notifications, filling in an email if unset.
func (b *UserBuilder) Notifiable() *UserBuilder {
	b.NotificationsEnabled = true
	if b.Email == "" {
		b.Email = b.ID + "@example.com"
	}
	return b
}

// Build creates the user in the database and returns it.
func (b *UserBuilder) Build(t *testing.T, db *sql.DB) model.User {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	query := `
		INSERT INTO taxpayer (id, name, email, tax_id_encrypted, notifications_enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query,
		b.ID, b.Name, b.Email, b.TaxIDToken, b.NotificationsEnabled,
		repository.FormatTime(now), repository.FormatTime(now))
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return model.User{
		ID:                   b.ID,
		Name:                 b.Name,
		Email:                b.Email,
		TaxID:                b.TaxIDToken,
		NotificationsEnabled: b.NotificationsEnabled,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// AssetBuilder provides a fluent interface for creating test assets.
// The stored position is taken as given; it is not derived from transactions.
//
// Example usage:
//
//	asset := testutil.NewAsset(user.ID).
//	    WithSymbol("PETR4").
//	    WithPosition("100", "20").
//	    Build(t, db)
type AssetBuilder struct {
	ID          string
	UserID      string
	Symbol      string
	Class       model.AssetClass
	Quantity    decimal.Decimal
	AverageCost decimal.Decimal
}

// NewAsset creates an empty equity AssetBuilder for userID.
func NewAsset(userID string) *AssetBuilder {
	return &AssetBuilder{
		ID:          MakeID(),
		UserID:      userID,
		Symbol:      MakeSymbol("TST"),
		Class:       model.AssetClassEquity,
		Quantity:    decimal.Zero,
		AverageCost: decimal.Zero,
	}
}

// WithSymbol sets the ticker.
func (b *AssetBuilder) WithSymbol(symbol string) *AssetBuilder {
	b.Symbol = symbol
	return b
}

// WithClass sets the asset class.
func (b *AssetBuilder) WithClass(class model.AssetClass) *AssetBuilder {
	b.Class = class
	return b
}

// WithPosition sets quantity and average cost.
func (b *AssetBuilder) WithPosition(quantity, averageCost string) *AssetBuilder {
	b.Quantity = decimal.RequireFromString(quantity)
	b.AverageCost = decimal.RequireFromString(averageCost)
	return b
}

// Build creates the asset in the database and returns it.
func (b *AssetBuilder) Build(t *testing.T, db *sql.DB) model.Asset {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	query := `
		INSERT INTO asset (id, user_id, symbol, asset_class, quantity, average_cost, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query,
		b.ID, b.UserID, b.Symbol, string(b.Class),
		b.Quantity.String(), b.AverageCost.String(), repository.FormatTime(now))
	if err != nil {
		t.Fatalf("Failed to create test asset: %v", err)
	}

	return model.Asset{
		ID:          b.ID,
		UserID:      b.UserID,
		Symbol:      b.Symbol,
		Class:       b.Class,
		Quantity:    b.Quantity,
		AverageCost: b.AverageCost,
		UpdatedAt:   now,
	}
}

// TransactionBuilder provides a fluent interface for creating test transactions.
// It writes the row only; positions and monthly results are not touched.
//
// Example usage:
//
//	tx := testutil.NewTransaction(asset).
//	    Sell("100", "250").
//	    WithDate(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)).
//	    Build(t, db)
type TransactionBuilder struct {
	ID              string
	Asset           model.Asset
	Side            model.Side
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	Fees            decimal.Decimal
	ExecutedAt      time.Time
	OperationType   model.OperationType
	RetentionPeriod model.RetentionPeriod
	ForeignCustody  bool
}

// NewTransaction creates a TransactionBuilder for a buy of one unit at 10.
func NewTransaction(asset model.Asset) *TransactionBuilder {
	return &TransactionBuilder{
		ID:         MakeID(),
		Asset:      asset,
		Side:       model.SideBuy,
		Quantity:   decimal.NewFromInt(1),
		UnitPrice:  decimal.NewFromInt(10),
		Fees:       decimal.Zero,
		ExecutedAt: time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC),
	}
}

// Buy sets the side to BUY with the given quantity and unit price.
func (b *TransactionBuilder) Buy(quantity, unitPrice string) *TransactionBuilder {
	b.Side = model.SideBuy
	b.Quantity = decimal.RequireFromString(quantity)
	b.UnitPrice = decimal.RequireFromString(unitPrice)
	return b
}

// Sell sets the side to SELL with the given quantity and unit price.
func (b *TransactionBuilder) Sell(quantity, unitPrice string) *TransactionBuilder {
	b.Side = model.SideSell
	b.Quantity = decimal.RequireFromString(quantity)
	b.UnitPrice = decimal.RequireFromString(unitPrice)
	return b
}

// WithFees sets the transaction fees.
func (b *TransactionBuilder) WithFees(fees string) *TransactionBuilder {
	b.Fees = decimal.RequireFromString(fees)
	return b
}

// WithDate sets the execution time.
func (b *TransactionBuilder) WithDate(at time.Time) *TransactionBuilder {
	b.ExecutedAt = at
	return b
}

// DayTrade marks the transaction as a same-day trade.
func (b *TransactionBuilder) DayTrade() *TransactionBuilder {
	b.OperationType = model.OperationDayTrade
	return b
}

// ForeignCustodied marks a crypto transaction as held abroad.
func (b *TransactionBuilder) ForeignCustodied() *TransactionBuilder {
	b.ForeignCustody = true
	return b
}

// Build creates the transaction in the database and returns it.
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.Transaction {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	query := `
		INSERT INTO "transaction" (
			id, user_id, asset_id, side, quantity, unit_price, fees, executed_at,
			operation_type, retention_period, foreign_custody, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query,
		b.ID, b.Asset.UserID, b.Asset.ID, string(b.Side),
		b.Quantity.String(), b.UnitPrice.String(), b.Fees.String(),
		repository.FormatTime(b.ExecutedAt),
		string(b.OperationType), string(b.RetentionPeriod), b.ForeignCustody,
		repository.FormatTime(now))
	if err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}

	return model.Transaction{
		ID:              b.ID,
		UserID:          b.Asset.UserID,
		AssetID:         b.Asset.ID,
		Symbol:          b.Asset.Symbol,
		AssetClass:      b.Asset.Class,
		Side:            b.Side,
		Quantity:        b.Quantity,
		UnitPrice:       b.UnitPrice,
		Fees:            b.Fees,
		ExecutedAt:      b.ExecutedAt.UTC(),
		OperationType:   b.OperationType,
		RetentionPeriod: b.RetentionPeriod,
		ForeignCustody:  b.ForeignCustody,
		CreatedAt:       now,
	}
}

// Convenience functions

// CreateUser creates a user with default values.
//
// Example usage:
//
//	user := testutil.CreateUser(t, db)
func CreateUser(t *testing.T, db *sql.DB) model.User {
	t.Helper()
	return NewUser().Build(t, db)
}

// CreateAsset creates an empty asset of class for userID.
func CreateAsset(t *testing.T, db *sql.DB, userID, symbol string, class model.AssetClass) model.Asset {
	t.Helper()
	return NewAsset(userID).WithSymbol(symbol).WithClass(class).Build(t, db)
}
