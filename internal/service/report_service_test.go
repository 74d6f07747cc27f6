package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/lock"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/service"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/testutil"
)

// TestReportService_GenerateConsolidatedReport tests the consolidated run.
//
// WHY: The consolidated document is what taxpayers pay from. Its amount must
// equal the sum of the primary scopes and it must only exist when tax is due.
func TestReportService_GenerateConsolidatedReport(t *testing.T) {
	ctx := context.Background()
	feb := period(2024, time.February)

	t.Run("sums equity and crypto tax into one document", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)
		record(t, svc, "user-1", equitySwingTrades...)
		record(t, svc, "user-1", cryptoCarryTrades...)

		// Execute
		out, err := svc.Report.GenerateConsolidatedReport(ctx, "user-1", feb)

		// Assert
		if err != nil {
			t.Fatalf("GenerateConsolidatedReport() returned unexpected error: %v", err)
		}
		if !out.Success() {
			t.Fatalf("Expected success, got %+v", out.Consolidated)
		}
		if !out.Consolidated.TaxDue.Equal(dec("825")) {
			t.Errorf("Expected consolidated tax 825.00, got %s", out.Consolidated.TaxDue)
		}
		if len(out.Scopes) != len(model.PrimaryScopes()) {
			t.Errorf("Expected %d scope outcomes, got %d", len(model.PrimaryScopes()), len(out.Scopes))
		}

		docs, err := svc.Report.ListDocuments(ctx, "user-1", 2024)
		if err != nil {
			t.Fatalf("ListDocuments() returned unexpected error: %v", err)
		}
		scopes := map[model.ReportScope]model.LiabilityDocument{}
		for _, d := range docs {
			scopes[d.Scope] = d
		}
		if len(scopes) != 3 {
			t.Errorf("Expected equity, crypto and consolidated documents, got %d", len(scopes))
		}
		if _, ok := scopes[model.ScopeRealEstateFund]; ok {
			t.Error("Expected no fund document without fund tax")
		}
		if d := scopes[model.ScopeConsolidated]; len(d.Lines) != 2 || d.Locator == "" {
			t.Errorf("Expected 2 lines and a locator on the consolidated document, got %+v", d)
		}
		if got := len(svc.Store.Locators()); got != 3 {
			t.Errorf("Expected 3 stored artifacts, got %d", got)
		}
	})

	t.Run("no document when nothing is due", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)

		out, err := svc.Report.GenerateConsolidatedReport(ctx, "user-1", feb)
		if err != nil {
			t.Fatalf("GenerateConsolidatedReport() returned unexpected error: %v", err)
		}
		if !out.Success() || !out.Consolidated.TaxDue.IsZero() || out.Consolidated.Locator != "" {
			t.Errorf("Expected successful empty outcome, got %+v", out.Consolidated)
		}
		testutil.AssertRowCount(t, db, "liability_document", 0)
	})

	t.Run("lock conflict is returned as an error", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)

		release, err := svc.Locker.TryLock(ctx, lock.UserKey("user-1"))
		if err != nil {
			t.Fatalf("TryLock() returned unexpected error: %v", err)
		}
		defer release(ctx)

		_, err = svc.Report.GenerateConsolidatedReport(ctx, "user-1", feb)
		if !errors.Is(err, apperrors.ErrConcurrentRecompute) {
			t.Errorf("Expected ErrConcurrentRecompute, got %v", err)
		}
	})
}

// TestReportService_GenerateScopeReport tests the artifact lifecycle of a
// single scope.
//
// WHY: A stored record must never point at a missing artifact. Old artifacts
// are released before new ones are stored, and a failed store leaves no
// record behind.
func TestReportService_GenerateScopeReport(t *testing.T) {
	ctx := context.Background()
	feb := period(2024, time.February)

	t.Run("regenerating releases the old artifact first", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)
		record(t, svc, "user-1", equitySwingTrades...)

		// Execute
		first, err := svc.Report.GenerateScopeReport(ctx, "user-1", feb, model.ScopeEquity)
		if err != nil || !first.Success {
			t.Fatalf("Expected first generation to succeed, got %+v (%v)", first, err)
		}
		second, err := svc.Report.GenerateScopeReport(ctx, "user-1", feb, model.ScopeEquity)
		if err != nil || !second.Success {
			t.Fatalf("Expected second generation to succeed, got %+v (%v)", second, err)
		}

		// Assert
		want := []string{"put:" + first.Locator, "release:" + first.Locator, "put:" + second.Locator}
		if strings.Join(svc.Store.Ops, ",") != strings.Join(want, ",") {
			t.Errorf("Expected ops %v, got %v", want, svc.Store.Ops)
		}
		doc, err := svc.Report.GetDocument(ctx, "user-1", feb, model.ScopeEquity)
		if err != nil {
			t.Fatalf("GetDocument() returned unexpected error: %v", err)
		}
		if doc.Locator != second.Locator {
			t.Errorf("Expected record to point at %s, got %s", second.Locator, doc.Locator)
		}
		if !doc.TaxDue.Equal(dec("750")) || len(doc.Lines) != 1 || doc.Lines[0].RevenueCode != "6015" {
			t.Errorf("Expected one 6015 line of 750, got %+v", doc)
		}
		testutil.AssertRowCount(t, db, "liability_document", 1)
	})

	t.Run("store failure removes the existing record", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)
		record(t, svc, "user-1", equitySwingTrades...)

		if out, _ := svc.Report.GenerateScopeReport(ctx, "user-1", feb, model.ScopeEquity); !out.Success {
			t.Fatalf("Expected first generation to succeed, got %+v", out)
		}

		svc.Store.FailPuts = true
		out, err := svc.Report.GenerateScopeReport(ctx, "user-1", feb, model.ScopeEquity)

		if err != nil {
			t.Fatalf("GenerateScopeReport() returned unexpected error: %v", err)
		}
		if out.Success {
			t.Error("Expected failed outcome")
		}
		if !strings.Contains(out.Message, apperrors.ErrArtifactStoreFailed.Error()) {
			t.Errorf("Expected store failure message, got %q", out.Message)
		}
		if _, err := svc.Report.GetDocument(ctx, "user-1", feb, model.ScopeEquity); !errors.Is(err, apperrors.ErrLiabilityNotFound) {
			t.Errorf("Expected record to be removed, got %v", err)
		}
		if got := len(svc.Store.Locators()); got != 0 {
			t.Errorf("Expected no artifacts left, got %d", got)
		}
		// Results are committed before the document step.
		if r, ok := resultFor(t, svc, "user-1", feb, model.CategoryEquitySwing); !ok || !r.TaxDue.Equal(dec("750")) {
			t.Errorf("Expected stored result to survive the failure, got %+v", r)
		}
	})

	t.Run("render failures are retried", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)
		record(t, svc, "user-1", equitySwingTrades...)
		svc.Renderer.Failing(2)

		out, err := svc.Report.GenerateScopeReport(ctx, "user-1", feb, model.ScopeEquity)

		if err != nil || !out.Success {
			t.Fatalf("Expected success after retries, got %+v (%v)", out, err)
		}
		if svc.Renderer.Calls != 3 {
			t.Errorf("Expected 3 render attempts, got %d", svc.Renderer.Calls)
		}
	})

	t.Run("render failure beyond the retry budget fails the scope", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)
		record(t, svc, "user-1", equitySwingTrades...)
		svc.Renderer.Failing(10)

		out, err := svc.Report.GenerateScopeReport(ctx, "user-1", feb, model.ScopeEquity)

		if err != nil {
			t.Fatalf("GenerateScopeReport() returned unexpected error: %v", err)
		}
		if out.Success || !strings.Contains(out.Message, apperrors.ErrRenderFailed.Error()) {
			t.Errorf("Expected render failure, got %+v", out)
		}
		testutil.AssertRowCount(t, db, "liability_document", 0)
	})

	t.Run("document is removed once the tax disappears", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)
		txs := record(t, svc, "user-1", equitySwingTrades...)

		first, _ := svc.Report.GenerateScopeReport(ctx, "user-1", feb, model.ScopeEquity)
		if !first.Success {
			t.Fatalf("Expected first generation to succeed, got %+v", first)
		}
		if err := svc.Transaction.DeleteTransaction(ctx, "user-1", txs[1].ID); err != nil {
			t.Fatalf("DeleteTransaction() returned unexpected error: %v", err)
		}

		out, err := svc.Report.GenerateScopeReport(ctx, "user-1", feb, model.ScopeEquity)

		if err != nil || !out.Success || !out.TaxDue.IsZero() {
			t.Errorf("Expected successful zero outcome, got %+v (%v)", out, err)
		}
		testutil.AssertRowCount(t, db, "liability_document", 0)
		if got := len(svc.Store.Locators()); got != 0 {
			t.Errorf("Expected artifact to be released, got %d left", got)
		}
	})

	t.Run("consolidated scope is routed to the consolidated run", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)
		record(t, svc, "user-1", equitySwingTrades...)

		out, err := svc.Report.GenerateScopeReport(ctx, "user-1", feb, model.ScopeConsolidated)

		if err != nil || !out.Success || out.Scope != model.ScopeConsolidated {
			t.Errorf("Expected consolidated outcome, got %+v (%v)", out, err)
		}
		testutil.AssertRowCount(t, db, "liability_document", 2)
	})
}

// TestReportService_Defaults tests option defaults.
func TestReportService_Defaults(t *testing.T) {
	if service.DefaultReportOptions.Retries == 0 || service.DefaultReportOptions.AttemptTimeout == 0 {
		t.Errorf("Expected non-zero defaults, got %+v", service.DefaultReportOptions)
	}
}
