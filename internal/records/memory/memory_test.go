package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
	"tally/internal/records"
)

var _ records.Store = (*Store)(nil)

func rec(id string, amount int64) core.Record {
	return core.Record{
		ID:          id,
		SaleDate:    time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		CompanyName: "FOUR N",
		Amount:      decimal.NewFromInt(amount),
		PaymentType: core.Cash,
	}
}

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := New(rec("a", 100))

	if err := s.Insert(ctx, []core.Record{rec("b", 200), rec("c", 300)}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	list, err := s.List(ctx)
	if err != nil || len(list) != 3 {
		t.Fatalf("unexpected list: %v err=%v", list, err)
	}

	d := core.DraftOf(list[1])
	d.Amount = decimal.NewFromInt(250)
	if err := s.Update(ctx, "b", d); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, _ = s.List(ctx)
	if !list[1].Amount.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("update not applied: %+v", list[1])
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ = s.List(ctx)
	if len(list) != 2 || list[0].ID != "b" {
		t.Fatalf("unexpected list after delete: %+v", list)
	}
}

func TestMemoryStoreUnknownID(t *testing.T) {
	s := New()
	if err := s.Update(context.Background(), "x", core.Draft{}); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(context.Background(), "x"); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreInsertIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := New(rec("a", 1))
	err := s.Insert(ctx, []core.Record{rec("b", 1), rec("a", 1)})
	if err == nil {
		t.Fatalf("expected duplicate id error")
	}
	list, _ := s.List(ctx)
	if len(list) != 1 {
		t.Fatalf("partial insert happened: %+v", list)
	}
}

func TestMemoryStoreListIsACopy(t *testing.T) {
	s := New(rec("a", 1))
	list, _ := s.List(context.Background())
	list[0].CompanyName = "changed"
	again, _ := s.List(context.Background())
	if again[0].CompanyName != "FOUR N" {
		t.Fatalf("store mutated through list")
	}
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir)
	if list, _ := s.List(context.Background()); len(list) != 0 {
		t.Fatalf("expected empty store without seed file")
	}

	content := `[
		{"id": 1, "sale_date": "2024-01-10", "company_name": "RA ROQUE", "amount": 1400, "payment_type": "CASH"},
		{"saleDate": "2024-01-11", "companyName": "AUSTRIA", "amount": "2,400.00", "paymentType": "ACCOUNTS_RECEIVABLE"}
	]`
	if err := os.WriteFile(filepath.Join(dir, "seed_records.json"), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s = NewFromFiles(dir)
	list, _ := s.List(context.Background())
	if len(list) != 2 {
		t.Fatalf("expected 2 seeded records, got %d", len(list))
	}
	if list[0].ID != "1" || list[1].ID != "seed-2" {
		t.Fatalf("unexpected ids: %q %q", list[0].ID, list[1].ID)
	}
	if !list[1].Amount.Equal(decimal.NewFromInt(2400)) || list[1].PaymentType != core.AccountsReceivable {
		t.Fatalf("unexpected second record: %+v", list[1])
	}
}
