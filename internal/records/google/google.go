// Package google stores sales records in a Google Sheets tab laid out like
// the sales_records table: a header row of column names, one record per row.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tally/internal/core"
	"tally/internal/records"
)

const defaultSheetName = "Sales Records"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string

	mu      sync.Mutex
	sheetID *int64
}

// Ensure interface conformance
var _ records.Store = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Sales Records"),
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS for auth.
func NewFromEnv(ctx context.Context) (*Client, error) {
	file := os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")
	if strings.TrimSpace(file) == "" {
		file = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	return Open(ctx, Settings{
		SpreadsheetID:      os.Getenv("GOOGLE_SPREADSHEET_ID"),
		SheetName:          os.Getenv("GOOGLE_SHEET_NAME"),
		ServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		ServiceAccountFile: file,
	})
}

// Settings locates the spreadsheet and the service account used to reach it.
type Settings struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Open authenticates with the service account and returns a client.
func Open(ctx context.Context, s Settings) (*Client, error) {
	spreadsheetID := strings.TrimSpace(s.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, strings.TrimSpace(s.ServiceAccountJSON), strings.TrimSpace(s.ServiceAccountFile))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return New(svc, spreadsheetID, s.SheetName), nil
}

// New wraps an existing service. An empty sheet name uses "Sales Records".
func New(svc *gsheet.Service, spreadsheetID, sheet string) *Client {
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		sheet = defaultSheetName
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}
}

// newSheetsService initializes a Sheets service with service account
// credentials, inline JSON first.
func newSheetsService(ctx context.Context, serviceAccountJSON, serviceAccountFile string) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service", "credentials_size", len(credentialsJSON))
	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) fullRange() string {
	return fmt.Sprintf("'%s'!A:%s", c.sheet, lastColumn())
}

func (c *Client) rowRange(row int) string {
	return fmt.Sprintf("'%s'!A%d:%s%d", c.sheet, row, lastColumn(), row)
}

func lastColumn() string {
	return string(rune('A' + len(records.Columns) - 1))
}

// sheetRow is a decoded row and its 1-based position in the tab.
type sheetRow struct {
	number int
	record core.Record
}

// readAll returns the header and every non-blank data row.
func (c *Client) readAll(ctx context.Context) ([]string, []sheetRow, error) {
	if c.svc == nil {
		return nil, nil, errors.New("sheets service not initialized")
	}
	rng := c.fullRange()
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil, nil
	}
	header := toStrings(resp.Values[0])
	var rows []sheetRow
	for i := 1; i < len(resp.Values); i++ {
		cells := resp.Values[i]
		if blank(cells) {
			continue
		}
		m := make(map[string]any, len(header))
		for col, name := range header {
			if col < len(cells) && name != "" {
				m[name] = cells[col]
			}
		}
		rows = append(rows, sheetRow{number: i + 1, record: records.Decode(m)})
	}
	return header, rows, nil
}

func (c *Client) List(ctx context.Context) ([]core.Record, error) {
	_, rows, err := c.readAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record)
	}
	return out, nil
}

// Insert appends the rows after the last data row, writing the header first
// on an empty tab.
func (c *Client) Insert(ctx context.Context, rows []core.Record) error {
	if len(rows) == 0 {
		return nil
	}
	header, _, err := c.readAll(ctx)
	if err != nil {
		return err
	}
	if len(header) == 0 {
		header = records.WireNames()
		if err := c.writeRow(ctx, 1, headerCells(header)); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	values := make([][]any, 0, len(rows))
	for _, r := range rows {
		values = append(values, toCells(header, records.Encode(r)))
	}
	// RAW keeps ISO dates as text so they read back unchanged.
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.fullRange(), &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", c.sheet, err)
	}
	return nil
}

func (c *Client) Update(ctx context.Context, id string, d core.Draft) error {
	header, rows, err := c.readAll(ctx)
	if err != nil {
		return err
	}
	row, ok := find(rows, id)
	if !ok {
		return records.ErrNotFound
	}
	updated := d.ApplyTo(row.record)
	return c.writeRow(ctx, row.number, toCells(header, records.Encode(updated)))
}

// Upsert overwrites the row holding r.ID, or appends r when there is none.
func (c *Client) Upsert(ctx context.Context, r core.Record) error {
	header, rows, err := c.readAll(ctx)
	if err != nil {
		return err
	}
	row, ok := find(rows, r.ID)
	if !ok {
		return c.Insert(ctx, []core.Record{r})
	}
	return c.writeRow(ctx, row.number, toCells(header, records.Encode(r)))
}

// Delete removes the whole sheet row so later rows shift up.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, rows, err := c.readAll(ctx)
	if err != nil {
		return err
	}
	row, ok := find(rows, id)
	if !ok {
		return records.ErrNotFound
	}
	sheetID, err := c.resolveSheetID(ctx)
	if err != nil {
		return err
	}
	// The first tab has id 0, which would otherwise be omitted from the request.
	rng := &gsheet.DimensionRange{
		SheetId:         sheetID,
		Dimension:       "ROWS",
		StartIndex:      int64(row.number - 1),
		EndIndex:        int64(row.number),
		ForceSendFields: []string{"SheetId", "StartIndex"},
	}
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{DeleteDimension: &gsheet.DeleteDimensionRequest{Range: rng}}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d in %s: %w", row.number, c.sheet, err)
	}
	return nil
}

func (c *Client) writeRow(ctx context.Context, number int, cells []any) error {
	rng := c.rowRange(number)
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{cells}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	return nil
}

// resolveSheetID looks up the numeric id of the tab, needed for row
// deletion, and caches it.
func (c *Client) resolveSheetID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sheetID != nil {
		return *c.sheetID, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheet {
			id := s.Properties.SheetId
			c.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.sheet)
}

func find(rows []sheetRow, id string) (sheetRow, bool) {
	for _, r := range rows {
		if r.record.ID == id {
			return r, true
		}
	}
	return sheetRow{}, false
}

func headerCells(header []string) []any {
	out := make([]any, len(header))
	for i, h := range header {
		out[i] = h
	}
	return out
}

// toCells orders an encoded record by the tab's header. Unknown header
// columns are left blank.
func toCells(header []string, encoded map[string]any) []any {
	out := make([]any, len(header))
	for i, name := range header {
		if v, ok := encoded[records.WireName(name)]; ok {
			out[i] = v
		} else {
			out[i] = ""
		}
	}
	return out
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func blank(cells []any) bool {
	for _, c := range cells {
		if strings.TrimSpace(fmt.Sprint(c)) != "" {
			return false
		}
	}
	return true
}
