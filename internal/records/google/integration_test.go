//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tally/internal/core"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/records/google

func TestIntegration_GoogleSheetsFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	if os.Getenv("GOOGLE_SPREADSHEET_ID") == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := NewFromEnv(ctx)
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	r := core.Record{
		ID:                uuid.NewString(),
		SaleDate:          time.Now().UTC().Truncate(time.Second),
		CompanyName:       "INTEGRATION TEST",
		AggregateType:     core.TypeMix,
		AggregateQuantity: decimal.NewFromInt(1),
		Amount:            decimal.NewFromInt(1),
		PaymentType:       core.Cash,
	}
	if err := c.Insert(ctx, []core.Record{r}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	defer func() {
		if err := c.Delete(context.Background(), r.ID); err != nil {
			t.Errorf("cleanup delete: %v", err)
		}
	}()

	list, err := c.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	found := false
	for _, got := range list {
		if got.ID == r.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("inserted record %s not listed", r.ID)
	}
}
