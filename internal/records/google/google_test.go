package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tally/internal/core"
	"tally/internal/records"
)

// fakeSheets serves the handful of Sheets endpoints the client uses over
// an in-memory grid.
type fakeSheets struct {
	mu      sync.Mutex
	grid    [][]any
	deletes int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		rng := req.Requests[0].DeleteDimension.Range
		start := int(rng.StartIndex)
		f.grid = append(f.grid[:start], f.grid[start+1:]...)
		f.deletes++
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
	case strings.Contains(path, "/values/") && strings.HasSuffix(path, ":append"):
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.grid = append(f.grid, vr.Values...)
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
	case strings.Contains(path, "/values/") && r.Method == http.MethodPut:
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		row := rowNumber(path)
		for len(f.grid) < row {
			f.grid = append(f.grid, []any{})
		}
		f.grid[row-1] = vr.Values[0]
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
	case strings.Contains(path, "/values/"):
		_ = json.NewEncoder(w).Encode(map[string]any{"range": "x", "majorDimension": "ROWS", "values": f.grid})
	default:
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1","sheets":[{"properties":{"sheetId":0,"title":"Sales Records"}}]}`))
	}
}

// rowNumber extracts 5 from ".../values/'Sales Records'!A5:M5".
func rowNumber(path string) int {
	i := strings.LastIndex(path, "!A")
	rest := path[i+2:]
	n, _ := strconv.Atoi(rest[:strings.IndexByte(rest, ':')])
	return n
}

func newTestClient(t *testing.T) (*Client, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return New(svc, "sheet-1", ""), fake
}

func sale(id, company string, amount int64) core.Record {
	return core.Record{
		ID:                id,
		SaleDate:          time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		CompanyName:       company,
		AggregateType:     core.TypeS1,
		AggregateQuantity: decimal.NewFromInt(2),
		Amount:            decimal.NewFromInt(amount),
		PaymentType:       core.Cash,
	}
}

func TestClient_InsertWritesHeaderAndRows(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	if err := c.Insert(ctx, []core.Record{sale("a", "FOUR N", 1400), sale("b", "RA ROQUE", 2100)}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if len(fake.grid) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(fake.grid))
	}
	if fake.grid[0][0] != "id" || fake.grid[0][2] != "company_name" {
		t.Fatalf("unexpected header: %v", fake.grid[0])
	}

	list, err := c.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[1].CompanyName != "RA ROQUE" || !list[1].Amount.Equal(decimal.NewFromInt(2100)) {
		t.Fatalf("unexpected list: %+v", list)
	}
	if !list[0].SaleDate.Equal(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("sale date not preserved: %v", list[0].SaleDate)
	}
}

func TestClient_ReadsCamelCaseHeader(t *testing.T) {
	c, fake := newTestClient(t)
	fake.grid = [][]any{
		{"id", "saleDate", "companyName", "amount", "paymentType"},
		{"7", "2024-02-01", "AUSTRIA", "2,400.00", "ACCOUNTS_RECEIVABLE"},
		{"", "", "", "", ""},
	}
	list, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected blank row skipped, got %d rows", len(list))
	}
	if list[0].CompanyName != "AUSTRIA" || !list[0].Amount.Equal(decimal.NewFromInt(2400)) || list[0].PaymentType != core.AccountsReceivable {
		t.Fatalf("unexpected record: %+v", list[0])
	}
}

func TestClient_UpdateAndDelete(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()
	if err := c.Insert(ctx, []core.Record{sale("a", "FOUR N", 100), sale("b", "RA ROQUE", 200)}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	d := core.DraftOf(sale("b", "RA ROQUE", 200))
	d.Amount = decimal.NewFromInt(150)
	if err := c.Update(ctx, "b", d); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, _ := c.List(ctx)
	if !list[1].Amount.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("update not written: %+v", list[1])
	}

	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ = c.List(ctx)
	if len(list) != 1 || list[0].ID != "b" || fake.deletes != 1 {
		t.Fatalf("unexpected list after delete: %+v", list)
	}

	if err := c.Delete(ctx, "missing"); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := c.Update(ctx, "missing", d); !errors.Is(err, records.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_Upsert(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	if err := c.Upsert(ctx, sale("a", "FOUR N", 100)); err != nil {
		t.Fatalf("upsert new: %v", err)
	}
	if err := c.Upsert(ctx, sale("a", "FOUR N TRUCKING", 100)); err != nil {
		t.Fatalf("upsert existing: %v", err)
	}
	list, _ := c.List(ctx)
	if len(list) != 1 || list[0].CompanyName != "FOUR N TRUCKING" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	oldID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	defer os.Setenv("GOOGLE_SPREADSHEET_ID", oldID)
	os.Unsetenv("GOOGLE_SPREADSHEET_ID")

	_, err := NewFromEnv(context.Background())
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNilServiceFails(t *testing.T) {
	c := &Client{sheet: "x"}
	if _, err := c.List(context.Background()); err == nil {
		t.Fatal("expected error with nil service")
	}
}
