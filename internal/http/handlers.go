package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"ledgerbook/internal/core"
	"ledgerbook/internal/export"
	"ledgerbook/internal/ledger"
	applog "ledgerbook/internal/log"
	"ledgerbook/internal/report"
)

const (
	msgMissingFields = "All fields are required!"
	msgNotNumber     = "Amount must be a number!"
	msgNoData        = "No data available!"
	msgNoChartData   = "No expense data!"
	msgExported      = "Excel Saved Successfully"
	msgReadFailed    = "Could not read the expenses"
	msgInvalidField  = "Fields cannot contain commas or line breaks!"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// chartPalette colours pie wedges in order; it wraps for many categories.
var chartPalette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f",
	"#edc948", "#b07aa1", "#ff9da7", "#9c755f", "#bab0ac",
}

type (
	entryRow struct {
		Index       int
		Date        string
		Amount      string
		Category    string
		Description string
	}

	entriesView struct {
		Rows  []entryRow
		Error string
	}

	flashView struct {
		Message string
		Hint    string
	}

	indexPage struct {
		Today      string
		Categories []string
		Entries    entriesView
		Flash      *flashView
	}

	categoryRow struct {
		Name   string
		Amount string
	}

	summaryView struct {
		Message string
		Count   int
		Total   string
		Rows    []categoryRow
	}

	sliceRow struct {
		Name   string
		Amount string
		Label  string
		Color  template.CSS
	}

	chartView struct {
		Message  string
		Gradient template.CSS
		Slices   []sliceRow
	}
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	entries, err := s.loadEntries(r.Context())
	page := indexPage{
		Today:      s.now().Format(pickerDateLayout),
		Categories: core.DefaultCategories,
		Entries:    s.entriesView(r.Context(), entries, err),
	}
	if v := r.URL.Query().Get("added"); v != "" {
		if i, convErr := strconv.Atoi(v); convErr == nil && i >= 0 && i < len(entries) {
			page.Flash = s.addedFlash(entries[i])
		}
	}
	s.render(w, r, http.StatusOK, "index.html", page)
}

// handleEntries renders the entries table alone, for htmx refreshes.
func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.loadEntries(r.Context())
	s.render(w, r, http.StatusOK, "entries", s.entriesView(r.Context(), entries, err))
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	rawAmount := sanitizeInput(r.PostForm.Get("amount"))
	category := sanitizeInput(r.PostForm.Get("category"))
	description := sanitizeInput(r.PostForm.Get("description"))

	if err := core.ValidateForm(rawAmount, category, description); err != nil {
		UnprocessableEntityError(msgMissingFields).TriggerErrorNotification(msgMissingFields).Write(w)
		return
	}
	e, err := core.NewEntry(formDate(r.PostForm.Get("date"), s.now()), rawAmount, category, description)
	if err != nil {
		UnprocessableEntityError(msgNotNumber).TriggerErrorNotification(msgNotNumber).Write(w)
		return
	}

	index, err := s.svc.Add(ctx, e)
	if errors.Is(err, ledger.ErrInvalidField) {
		UnprocessableEntityError(msgInvalidField).TriggerErrorNotification(msgInvalidField).Write(w)
		return
	}
	if err != nil {
		applog.LogError(ctx, "Failed to add expense", err, applog.ComponentHTTP, applog.OpAppend,
			applog.NewFields().WithEntry(-1, e.Amount.String(), e.Category))
		InternalServerError("Could not save the expense").Write(w)
		return
	}

	if !isHTMX(r) {
		target := "/"
		if index >= 0 {
			target = "/?added=" + strconv.Itoa(index)
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	flash := s.addedFlash(e)
	body, err := s.renderString("flash", flash)
	if err != nil {
		applog.LogError(ctx, "Template execution failed", err, applog.ComponentHTTP, applog.OpRender, nil)
		body = `<div class="success">` + template.HTMLEscapeString(flash.Message) + `</div>`
	}
	NewHTMXResponse().
		BodyHTML(body).
		TriggerEntriesChanged(index + 1).
		TriggerFormReset().
		TriggerSuccessNotification(flash.Message).
		Write(w)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		BadRequestError("Invalid entry index").Write(w)
		return
	}

	removed, err := s.svc.Delete(ctx, index)
	switch {
	case errors.Is(err, ledger.ErrIndexOutOfRange), errors.Is(err, ledger.ErrNotFound):
		NotFoundError("Expense not found").Write(w)
		return
	case err != nil:
		applog.LogError(ctx, "Failed to delete expense", err, applog.ComponentHTTP, applog.OpDelete,
			applog.NewFields().WithEntry(index, "", ""))
		InternalServerError("Could not delete the expense").Write(w)
		return
	}

	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	entries, listErr := s.loadEntries(ctx)
	body, err := s.renderString("entries", s.entriesView(ctx, entries, listErr))
	if err != nil {
		applog.LogError(ctx, "Template execution failed", err, applog.ComponentHTTP, applog.OpRender, nil)
		InternalServerError("Could not render the expenses").Write(w)
		return
	}
	NewHTMXResponse().
		BodyHTML(body).
		TriggerSuccessNotification("Expense Deleted: " + core.FormatAmount(s.currency, removed.Amount)).
		Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, ok := s.summary(w, r)
	if !ok {
		return
	}
	view := summaryView{}
	if sum.Count == 0 {
		view.Message = msgNoData
	} else {
		view.Count = sum.Count
		view.Total = core.FormatAmount(s.currency, sum.Total)
		for _, c := range sum.ByCategory {
			view.Rows = append(view.Rows, categoryRow{Name: c.Name, Amount: core.FormatAmount(s.currency, c.Amount)})
		}
	}
	s.render(w, r, http.StatusOK, "summary", view)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	sum, ok := s.summary(w, r)
	if !ok {
		return
	}
	slices := report.PieSlices(sum)
	if len(slices) == 0 {
		s.render(w, r, http.StatusOK, "chart", chartView{Message: msgNoChartData})
		return
	}
	s.render(w, r, http.StatusOK, "chart", s.chartView(slices))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := s.loadEntries(ctx)
	if err != nil {
		applog.LogError(ctx, "Failed to read ledger for export", err, applog.ComponentExport, applog.OpExport, nil)
		InternalServerError(msgReadFailed).Write(w)
		return
	}
	if err := export.SaveWorkbook(s.exportPath, entries, export.Options{}); err != nil {
		applog.LogError(ctx, "Failed to save workbook", err, applog.ComponentExport, applog.OpExport,
			applog.LogFields{"path": s.exportPath})
		InternalServerError("Could not save the workbook").Write(w)
		return
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentExport).InfoContext(ctx, "Workbook saved",
		"path", s.exportPath,
		"entries", len(entries))
	SuccessResponse(msgExported + ": " + filepath.Base(s.exportPath)).TriggerSuccessNotification(msgExported).Write(w)
}

// handleDownload streams the workbook instead of writing it next to the ledger.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := s.loadEntries(ctx)
	if err != nil {
		applog.LogError(ctx, "Failed to read ledger for download", err, applog.ComponentExport, applog.OpExport, nil)
		InternalServerError(msgReadFailed).Write(w)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, entries, export.Options{}); err != nil {
		applog.LogError(ctx, "Failed to build workbook", err, applog.ComponentExport, applog.OpExport, nil)
		InternalServerError("Could not build the workbook").Write(w)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": filepath.Base(s.exportPath),
	}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks that templates are loaded and the ledger can be read.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if entries, err := s.loadEntries(ctx); err != nil {
		checks["ledger"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["ledger"] = map[string]interface{}{"status": "ok", "entries": len(entries)}
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.activeClients(),
		"status":         "ok",
	}
	checks["security"] = map[string]interface{}{
		"rate_limit_hits":     atomic.LoadInt64(&s.metrics.rateLimitHits),
		"suspicious_requests": atomic.LoadInt64(&s.metrics.suspiciousRequests),
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// loadEntries reads the ledger; a ledger file that does not exist yet is empty.
func (s *Server) loadEntries(ctx context.Context) ([]core.Entry, error) {
	entries, err := s.svc.List(ctx)
	if errors.Is(err, ledger.ErrNotFound) {
		return nil, nil
	}
	return entries, err
}

// summary aggregates the ledger, writing a 500 itself when the ledger cannot be read.
// An empty ledger yields a zero Summary.
func (s *Server) summary(w http.ResponseWriter, r *http.Request) (core.Summary, bool) {
	sum, err := s.svc.Summary(r.Context())
	switch {
	case errors.Is(err, report.ErrNoData), errors.Is(err, ledger.ErrNotFound):
		return core.Summary{}, true
	case err != nil:
		applog.LogError(r.Context(), "Failed to summarize ledger", err, applog.ComponentHTTP, applog.OpSummary, nil)
		InternalServerError(msgReadFailed).Write(w)
		return core.Summary{}, false
	}
	return sum, true
}

func (s *Server) entriesView(ctx context.Context, entries []core.Entry, err error) entriesView {
	if err != nil {
		applog.LogError(ctx, "Failed to read ledger", err, applog.ComponentHTTP, applog.OpList, nil)
		return entriesView{Error: msgReadFailed}
	}
	rows := make([]entryRow, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, entryRow{
			Index:       i,
			Date:        e.Date,
			Amount:      core.FormatAmount(s.currency, e.Amount),
			Category:    e.Category,
			Description: e.Description,
		})
	}
	return entriesView{Rows: rows}
}

func (s *Server) addedFlash(e core.Entry) *flashView {
	f := &flashView{Message: "Expense Added: " + core.FormatAmount(s.currency, e.Amount)}
	if suggestion, ok := core.SuggestCategory(e.Category, core.DefaultCategories); ok {
		f.Hint = fmt.Sprintf("Category %q is new. Did you mean %q?", e.Category, suggestion)
	}
	return f
}

// chartView lays the wedges out clockwise as one conic-gradient.
func (s *Server) chartView(slices []report.Slice) chartView {
	view := chartView{Slices: make([]sliceRow, 0, len(slices))}
	stops := make([]string, 0, len(slices))
	from := 0.0
	for i, sl := range slices {
		color := chartPalette[i%len(chartPalette)]
		to := from + sl.Percent
		if i == len(slices)-1 {
			to = 100
		}
		stops = append(stops, fmt.Sprintf("%s %.2f%% %.2f%%", color, from, to))
		from = to

		view.Slices = append(view.Slices, sliceRow{
			Name:   sl.Name,
			Amount: core.FormatAmount(s.currency, sl.Amount),
			Label:  sl.Label,
			Color:  template.CSS(color),
		})
	}
	// Built only from palette colours and formatted numbers.
	view.Gradient = template.CSS("conic-gradient(" + strings.Join(stops, ", ") + ")")
	return view
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	body, err := s.renderString(name, data)
	if err != nil {
		applog.LogError(r.Context(), "Template execution failed", err, applog.ComponentHTTP, applog.OpRender,
			applog.LogFields{"template": name})
		InternalServerError("Could not render the page").Write(w)
		return
	}
	NewHTMXResponse().Status(status).BodyHTML(body).Write(w)
}

func (s *Server) renderString(name string, data interface{}) (string, error) {
	if s.templates == nil {
		return "", errors.New("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute %s: %w", name, err)
	}
	return buf.String(), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
