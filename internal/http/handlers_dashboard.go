package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"tally/internal/core"
	"tally/internal/export"
	"tally/internal/log"
	"tally/internal/records"
	"tally/internal/report"
	"tally/internal/session"
)

const pagerWidth = 5

type tab struct {
	ID    string
	Label string
}

type pageData struct {
	View      ViewParams
	Periods   []core.Period
	Tabs      []tab
	Admin     bool
	Flash     string
	LoadError string
	Summary   report.Summary
	Charts    chartScale
	Tally     tallyData
	Form      deliveryForm
}

// chartScale holds the maxima the bar charts are scaled against.
type chartScale struct {
	Day       decimal.Decimal
	Volume    decimal.Decimal
	Breakdown decimal.Decimal
	Revenue   decimal.Decimal
}

type tallyData struct {
	View      ViewParams
	Label     string
	Page      report.Page
	Window    []int
	Rows      []tallyRow
	Columns   []string
	Footer    []report.ColumnTotal
	Amount    decimal.Decimal
	Admin     bool
	Types     []string
	Error     string
	LoadError string
}

type tallyRow struct {
	core.Record
	Editing bool
}

// deliveryForm is the admin entry form with what the user typed.
type deliveryForm struct {
	Values  url.Values
	Error   string
	Success string
	Types   []string
}

func (f deliveryForm) Value(name string) string {
	if f.Values == nil {
		return ""
	}
	return f.Values.Get(name)
}

func tabsFor(admin bool) []tab {
	out := []tab{
		{TabOverview, "Overview"},
		{TabAnalytics, "Analytics"},
		{TabReports, "Reports"},
	}
	if admin {
		out = append(out, tab{TabAdmin, "Admin"})
	}
	return out
}

// ensureLoaded performs the first reload on demand. The returned message
// is shown instead of failing the page.
func (s *Server) ensureLoaded(r *http.Request) string {
	if s.dash.Loaded() {
		return ""
	}
	ctx, cancel := s.storeContext(r)
	defer cancel()
	if err := s.dash.Reload(ctx); err != nil {
		return "Failed to load records. Showing no data."
	}
	return ""
}

func (s *Server) tallyData(view ViewParams, sess *session.Session) tallyData {
	summary := s.dash.Summary(view.Period, view.Date)
	page := s.dash.Page(view.Period, view.Date, view.Page)
	view.Page = page.Page

	rows := make([]tallyRow, len(page.Records))
	for i, r := range page.Records {
		rows[i] = tallyRow{Record: r, Editing: sess.Admin && sess.Editing(r.ID)}
	}
	return tallyData{
		View:    view,
		Label:   summary.Label,
		Page:    page,
		Window:  report.PageWindow(page.Page, page.TotalPages, pagerWidth),
		Rows:    rows,
		Columns: report.TallyColumns,
		Footer:  summary.Columns,
		Amount:  summary.Totals.Total,
		Admin:   sess.Admin,
		Types:   core.AggregateTypes,
	}
}

func scaleFor(s report.Summary) chartScale {
	var c chartScale
	for _, d := range s.Days {
		c.Day = decimal.Max(c.Day, d.Total)
		c.Volume = decimal.Max(c.Volume, d.Volume)
	}
	for _, b := range s.Breakdown {
		c.Breakdown = decimal.Max(c.Breakdown, b.Quantity)
	}
	for _, t := range s.TopCompanies {
		c.Revenue = decimal.Max(c.Revenue, t.Revenue)
	}
	return c
}

func (s *Server) pageData(r *http.Request, sess *session.Session, view ViewParams) pageData {
	loadErr := s.ensureLoaded(r)
	if view.Tab == TabAdmin && !sess.Admin {
		view.Tab = TabOverview
	}
	summary := s.dash.Summary(view.Period, view.Date)
	tally := s.tallyData(view, sess)
	tally.LoadError = loadErr
	return pageData{
		View:      tally.View,
		Periods:   core.Periods,
		Tabs:      tabsFor(sess.Admin),
		Admin:     sess.Admin,
		LoadError: loadErr,
		Summary:   summary,
		Charts:    scaleFor(summary),
		Tally:     tally,
		Form:      deliveryForm{Types: core.AggregateTypes},
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	view := ParseViewParams(r.URL.Query(), s.dash.Now())
	data := s.pageData(r, sess, view)

	if data.Flash = sess.PopFlash(); data.Flash != "" {
		if err := s.sessions.Save(r.Context(), w, sess); err != nil {
			s.logger.WarnContext(r.Context(), "Failed to save session", log.FieldError, err)
		}
	}
	s.render(w, r, http.StatusOK, "index.html", data)
}

// handleTallyPartial renders the tally sheet for htmx swaps.
func (s *Server) handleTallyPartial(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	view := ParseViewParams(r.URL.Query(), s.dash.Now())
	view.Tab = TabReports
	loadErr := s.ensureLoaded(r)
	data := s.tallyData(view, sess)
	data.LoadError = loadErr
	s.render(w, r, http.StatusOK, "tally", data)
}

// handleSummaryPartial renders the metric cards and charts.
func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	view := ParseViewParams(r.URL.Query(), s.dash.Now())
	s.render(w, r, http.StatusOK, "summary", s.pageData(r, sess, view))
}

func (s *Server) handleReportJSON(w http.ResponseWriter, r *http.Request) {
	view := ParseViewParams(r.URL.Query(), s.dash.Now())
	if msg := s.ensureLoaded(r); msg != "" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": msg})
		return
	}
	writeJSON(w, http.StatusOK, s.dash.Summary(view.Period, view.Date))
}

type recordsResponse struct {
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
	Total      int              `json:"total"`
	From       int              `json:"from"`
	To         int              `json:"to"`
	Records    []map[string]any `json:"records"`
}

func (s *Server) handleRecordsJSON(w http.ResponseWriter, r *http.Request) {
	view := ParseViewParams(r.URL.Query(), s.dash.Now())
	if msg := s.ensureLoaded(r); msg != "" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": msg})
		return
	}
	page := s.dash.Page(view.Period, view.Date, view.Page)
	resp := recordsResponse{
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
		Total:      page.Total,
		From:       page.From,
		To:         page.To,
		Records:    make([]map[string]any, 0, len(page.Records)),
	}
	for _, rec := range page.Records {
		resp.Records = append(resp.Records, records.Encode(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "csv", "text/csv; charset=utf-8")
}

func (s *Server) export(w http.ResponseWriter, r *http.Request, format, contentType string) {
	view := ParseViewParams(r.URL.Query(), s.dash.Now())
	if msg := s.ensureLoaded(r); msg != "" {
		InternalServerError(msg).Write(w)
		return
	}
	summary := s.dash.Summary(view.Period, view.Date)
	sheet := export.NewSheet("Tally - "+summary.Label, s.dash.Filtered(view.Period, view.Date))

	var buf bytes.Buffer
	var err error
	if format == "xlsx" {
		err = export.WriteXLSX(&buf, sheet, s.dash.Location())
	} else {
		err = export.WriteCSV(&buf, sheet, s.dash.Location())
	}
	if err != nil {
		s.logger.LogFields(r.Context(), slog.LevelError, "Export failed", log.NewFields().
			WithComponent(log.ComponentExport).WithOperation(log.OpExport).WithError(err))
		InternalServerError("Failed to export the tally sheet.").Write(w)
		return
	}

	name := fmt.Sprintf("tally-%s-%s.%s", view.Period, view.DateValue(), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// render executes a template into a buffer so a failure can still become
// a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed",
			log.FieldComponent, log.ComponentTemplate, "template", name, log.FieldError, err)
		InternalServerError("Failed to render the page.").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) renderString(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
