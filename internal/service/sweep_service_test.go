package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/testutil"
)

// TestSweepService_Run tests the monthly batch.
//
// WHY: The sweep runs unattended for every opted-in user. One user's failure
// must not stop the batch, and only users who owe tax get a notice.
func TestSweepService_Run(t *testing.T) {
	ctx := context.Background()
	feb := period(2024, time.February)

	t.Run("processes opted-in users and isolates failures", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)

		owing := testutil.NewUser().WithID("user-a").Notifiable().Build(t, db)
		nothingDue := testutil.NewUser().WithID("user-b").Notifiable().Build(t, db)
		bouncing := testutil.NewUser().WithID("user-c").Notifiable().Build(t, db)
		optedOut := testutil.NewUser().WithID("user-d").Build(t, db)

		record(t, svc, owing.ID, equitySwingTrades...)
		record(t, svc, bouncing.ID, equitySwingTrades...)
		record(t, svc, optedOut.ID, equitySwingTrades...)
		svc.Notifier.FailFor[bouncing.ID] = true

		// Execute
		summary, err := svc.Sweep.Run(ctx, feb)

		// Assert
		if err != nil {
			t.Fatalf("Run() returned unexpected error: %v", err)
		}
		if summary.Processed != 3 {
			t.Fatalf("Expected 3 processed users, got %d", summary.Processed)
		}
		if summary.Succeeded != 2 || summary.Failed != 1 {
			t.Errorf("Expected 2 succeeded and 1 failed, got %d and %d", summary.Succeeded, summary.Failed)
		}

		byUser := map[string]bool{}
		for _, r := range summary.Results {
			byUser[r.UserID] = r.Notified
		}
		if !byUser[owing.ID] {
			t.Error("Expected owing user to be notified")
		}
		if byUser[nothingDue.ID] {
			t.Error("Expected user with nothing due not to be notified")
		}
		if _, ok := byUser[optedOut.ID]; ok {
			t.Error("Expected opted-out user to be skipped")
		}

		notice, ok := svc.Notifier.Sent[owing.ID]
		if !ok {
			t.Fatal("Expected a notice for the owing user")
		}
		if notice.TaxDue != "750.00" || notice.PeriodLabel != feb.Label() {
			t.Errorf("Unexpected notice: %+v", notice)
		}

		// The bouncing user's document still exists; only the notice failed.
		testutil.AssertRowCount(t, db, "liability_document", 4)
	})

	t.Run("empty user list yields an empty summary", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestServices(t, db)

		summary, err := svc.Sweep.Run(ctx, feb)
		if err != nil {
			t.Fatalf("Run() returned unexpected error: %v", err)
		}
		if summary.Processed != 0 || len(summary.Results) != 0 {
			t.Errorf("Expected empty summary, got %+v", summary)
		}
	})
}
