package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// WriteCSV emits the header, one line per row and the totals line.
func WriteCSV(w io.Writer, s Sheet, loc *time.Location) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header()); err != nil {
		return err
	}
	for _, r := range s.Rows {
		if err := writer.Write(csvLine(cells(r, loc))); err != nil {
			return fmt.Errorf("write row %s: %w", r.ID, err)
		}
	}
	if err := writer.Write(csvLine(footer(s))); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func csvLine(cells []any) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		switch v := c.(type) {
		case decimal.Decimal:
			out[i] = v.StringFixed(2)
		case string:
			out[i] = v
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}
