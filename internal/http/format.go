package http

import (
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"tally/internal/core"
	"tally/internal/report"
)

var printer = message.NewPrinter(language.English)

// formatPeso renders an amount as "₱1,234.50".
func formatPeso(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-₱" + printer.Sprintf("%.2f", d.Neg().InexactFloat64())
	}
	return "₱" + printer.Sprintf("%.2f", d.InexactFloat64())
}

// formatQuantity renders a cubic-meter quantity with two decimals and
// thousands separators.
func formatQuantity(d decimal.Decimal) string {
	return printer.Sprintf("%.2f", d.InexactFloat64())
}

func templateFuncs(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"peso":     formatPeso,
		"qty":      formatQuantity,
		"percent":  func(d decimal.Decimal) string { return d.StringFixed(1) + "%" },
		"saleDate": func(t time.Time) string { return t.In(loc).Format("Jan 2, 2006") },
		"isoDate":  func(t time.Time) string { return t.In(loc).Format(time.DateOnly) },
		"payment":  func(p core.PaymentType) string { return p.Label() },
		"quantityFor": func(r core.Record, column string) decimal.Decimal {
			return report.QuantityFor(r, column)
		},
		"barWidth": barWidth,
		"viewURL":  viewURL,
		"tabURL": func(v ViewParams, tab string) template.URL {
			v.Tab = tab
			return viewURL("/", v, 0)
		},
		"add":      func(a, b int) int { return a + b },
		"sub":      func(a, b int) int { return a - b },
	}
}

// barWidth scales v against max into a CSS percentage. Non-zero values get
// at least 2% so they stay visible.
func barWidth(v, max decimal.Decimal) int {
	if !max.IsPositive() || !v.IsPositive() {
		return 0
	}
	w := int(v.Mul(decimal.NewFromInt(100)).Div(max).Round(0).IntPart())
	if w < 2 {
		w = 2
	}
	if w > 100 {
		w = 100
	}
	return w
}

// viewURL links path to the view v. Query values are already encoded.
func viewURL(path string, v ViewParams, page int) template.URL {
	return template.URL(path + "?" + v.Query(page))
}
