package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/notify"
)

// MockQuoteProvider is a quote.Provider returning fixed prices.
// Symbols without a configured price yield ErrQuoteUnavailable.
type MockQuoteProvider struct {
	mu     sync.Mutex
	Prices map[string]decimal.Decimal
	// QueryCount tracks how many times Price was called
	QueryCount int
}

// NewMockQuoteProvider creates a provider with no prices.
func NewMockQuoteProvider() *MockQuoteProvider {
	return &MockQuoteProvider{Prices: make(map[string]decimal.Decimal)}
}

// WithPrice configures the price of symbol.
func (m *MockQuoteProvider) WithPrice(symbol, price string) *MockQuoteProvider {
	m.Prices[symbol] = decimal.RequireFromString(price)
	return m
}

// Price returns the configured price of symbol.
func (m *MockQuoteProvider) Price(_ context.Context, symbol string, _ model.AssetClass) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryCount++

	p, ok := m.Prices[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", apperrors.ErrQuoteUnavailable, symbol)
	}
	return p, nil
}

// MockRenderer is a render.Renderer producing a small text body.
// The first FailTimes calls fail with MockError.
type MockRenderer struct {
	mu        sync.Mutex
	FailTimes int
	MockError error
	Calls     int
	Rendered  []model.LiabilityDescriptor
}

// NewMockRenderer creates a renderer that always succeeds.
func NewMockRenderer() *MockRenderer {
	return &MockRenderer{MockError: fmt.Errorf("renderer unavailable")}
}

// Failing makes the next n calls fail.
func (m *MockRenderer) Failing(n int) *MockRenderer {
	m.FailTimes = n
	return m
}

// Render records d and returns its total as the document body.
func (m *MockRenderer) Render(_ context.Context, d model.LiabilityDescriptor) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Calls <= m.FailTimes {
		return nil, m.MockError
	}
	m.Rendered = append(m.Rendered, d)
	return []byte(string(d.Scope) + " " + d.Total.StringFixed(2)), nil
}

// ContentType returns text/plain.
func (m *MockRenderer) ContentType() string { return "text/plain" }

// Extension returns ".txt".
func (m *MockRenderer) Extension() string { return ".txt" }

// MockStore is an in-memory artifact.Store that records every call in order.
type MockStore struct {
	mu        sync.Mutex
	Objects   map[string][]byte
	Ops       []string // "put:<locator>" and "release:<locator>" in call order
	FailPuts  bool
	MockError error
}

// NewMockStore creates an empty store.
func NewMockStore() *MockStore {
	return &MockStore{
		Objects:   make(map[string][]byte),
		MockError: fmt.Errorf("bucket unavailable"),
	}
}

// Put stores data under "mem://<key>".
func (m *MockStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPuts {
		return "", m.MockError
	}
	locator := "mem://" + key
	m.Objects[locator] = data
	m.Ops = append(m.Ops, "put:"+locator)
	return locator, nil
}

// Release drops the object behind locator.
func (m *MockStore) Release(_ context.Context, locator string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if locator == "" {
		return nil
	}
	delete(m.Objects, locator)
	m.Ops = append(m.Ops, "release:"+locator)
	return nil
}

// Locators returns the stored locators, sorted.
func (m *MockStore) Locators() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	locators := make([]string, 0, len(m.Objects))
	for l := range m.Objects {
		locators = append(locators, l)
	}
	sort.Strings(locators)
	return locators
}

// MockNotifier is a notify.Notifier that records notices. Users whose ID is
// in FailFor get an error.
type MockNotifier struct {
	mu      sync.Mutex
	Sent    map[string]notify.Notice
	FailFor map[string]bool
}

// NewMockNotifier creates a notifier that accepts every notice.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{
		Sent:    make(map[string]notify.Notice),
		FailFor: make(map[string]bool),
	}
}

// Notify records notice for user.
func (m *MockNotifier) Notify(_ context.Context, user model.User, notice notify.Notice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailFor[user.ID] {
		return fmt.Errorf("mailbox of %s is full", user.ID)
	}
	if !strings.Contains(user.Email, "@") {
		return fmt.Errorf("user %s has no email", user.ID)
	}
	m.Sent[user.ID] = notice
	return nil
}

// SentCount returns the number of recorded notices.
func (m *MockNotifier) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
