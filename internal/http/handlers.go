package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/csvio"
	"fintrack/internal/forecast"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

const maxBodyBytes = 1 << 20

// handleTransactions serves GET (list) and POST (create) on /api/transactions.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r, userID)
	case http.MethodPost:
		s.createTransaction(w, r, userID)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET or POST")
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	txs, err := s.store.List(r.Context(), userID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "List transactions failed",
			log.FieldUserID, userID, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal", "could not list transactions")
		return
	}

	q := r.URL.Query()
	filtered := ledger.FilterAndSort(txs, q.Get("search"), q.Get("type"), q.Get("sort"))

	views := make([]transactionView, len(filtered))
	for i, t := range filtered {
		views[i] = newTransactionView(t)
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": views})
}

// transactionView is the wire shape of a transaction: the stored record plus
// its display date, which renders as "Invalid Date" when the raw text does
// not parse.
type transactionView struct {
	core.Transaction
	DisplayDate string `json:"display_date"`
}

func newTransactionView(t core.Transaction) transactionView {
	return transactionView{Transaction: t, DisplayDate: core.DisplayDate(t.Date)}
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	var t core.Transaction
	if err := decodeBody(r, &t); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	t.ID = ""

	if err := t.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_transaction", err.Error())
		return
	}

	id, err := s.store.Create(r.Context(), userID, t)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Create transaction failed",
			log.FieldUserID, userID, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal", "could not save transaction")
		return
	}
	t.ID = id
	s.invalidateUserCaches(userID)

	writeJSON(w, http.StatusCreated, newTransactionView(t))
}

// handleTransactionByID serves PUT and DELETE on /api/transactions/{id}.
func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not_found", "no such transaction")
		return
	}

	switch r.Method {
	case http.MethodPut:
		s.updateTransaction(w, r, userID, id)
	case http.MethodDelete:
		s.deleteTransaction(w, r, userID, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use PUT or DELETE")
	}
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request, userID, id string) {
	var t core.Transaction
	if err := decodeBody(r, &t); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	t.ID = id

	if err := t.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_transaction", err.Error())
		return
	}

	if err := s.store.Update(r.Context(), userID, t); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "no such transaction")
			return
		}
		s.logger.ErrorContext(r.Context(), "Update transaction failed",
			log.FieldUserID, userID, log.FieldTxID, id, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal", "could not update transaction")
		return
	}
	s.invalidateUserCaches(userID)

	writeJSON(w, http.StatusOK, newTransactionView(t))
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request, userID, id string) {
	if err := s.store.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "no such transaction")
			return
		}
		s.logger.ErrorContext(r.Context(), "Delete transaction failed",
			log.FieldUserID, userID, log.FieldTxID, id, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal", "could not delete transaction")
		return
	}
	s.invalidateUserCaches(userID)

	w.WriteHeader(http.StatusNoContent)
}

// handleBalanceChart serves the running balance series for charting.
func (s *Server) handleBalanceChart(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}

	if points, hit := s.balanceCache.Get(userID); hit {
		writeJSON(w, http.StatusOK, map[string]any{"points": points})
		return
	}

	txs, err := s.store.List(r.Context(), userID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "List transactions failed",
			log.FieldUserID, userID, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal", "could not compute balance")
		return
	}

	points := ledger.RunningBalance(txs)
	s.balanceCache.Set(userID, points)
	writeJSON(w, http.StatusOK, map[string]any{"points": points})
}

// forecastRequest is the /api/forecast body. ForecastDays drives the
// user-scoped request; Days plus StartDate drives the unscoped one.
type forecastRequest struct {
	ForecastDays int    `json:"forecast_days,omitempty"`
	Days         int    `json:"days,omitempty"`
	StartDate    string `json:"start_date,omitempty"`
}

// ForecastPointView is a forecast point with its confidence score attached.
type ForecastPointView struct {
	forecast.Point
	Confidence decimal.Decimal `json:"confidence"`
}

// ForecastView is the shaped forecast handed to clients.
type ForecastView struct {
	Forecast     []ForecastPointView   `json:"forecast"`
	Weekly       []forecast.WeekBucket `json:"weekly"`
	Total        decimal.Decimal       `json:"total"`
	DailyAverage decimal.Decimal       `json:"daily_average"`
	Statistics   forecast.Statistics   `json:"statistics"`
	DataSource   string                `json:"data_source"`
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	var req forecastRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	cacheKey := fmt.Sprintf("%s|%d|%d|%s", userID, req.ForecastDays, req.Days, req.StartDate)
	if view, hit := s.forecastCache.Get(cacheKey); hit {
		writeJSON(w, http.StatusOK, view)
		return
	}

	var pred *forecast.Prediction
	var err error
	if req.Days > 0 || req.StartDate != "" {
		pred, err = s.predictor.PredictFrom(r.Context(), req.Days, req.StartDate)
	} else {
		pred, err = s.predictor.Predict(r.Context(), userID, req.ForecastDays)
	}
	if err != nil {
		s.writeForecastError(w, r, err)
		return
	}

	points := make([]ForecastPointView, len(pred.Forecast))
	for i, p := range pred.Forecast {
		points[i] = ForecastPointView{Point: p, Confidence: forecast.Confidence(p)}
	}
	total, average := forecast.Summary(pred.Forecast)

	view := ForecastView{
		Forecast:     points,
		Weekly:       forecast.WeeklyBuckets(pred.Forecast),
		Total:        total,
		DailyAverage: average,
		Statistics:   pred.Statistics,
		DataSource:   pred.DataSource,
	}
	s.forecastCache.Set(cacheKey, view)

	s.logger.InfoContext(r.Context(), "Forecast served",
		log.FieldUserID, userID,
		log.FieldDays, len(pred.Forecast),
		log.FieldDataSource, pred.DataSource)

	writeJSON(w, http.StatusOK, view)
}

// writeForecastError maps prediction failures onto the API's status codes.
func (s *Server) writeForecastError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, forecast.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
		return
	case errors.Is(err, forecast.ErrDaysOutOfRange), errors.Is(err, forecast.ErrBadStartDate):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	case errors.Is(err, forecast.ErrQuotaExceeded):
		w.Header().Set("Retry-After", "3600")
		writeError(w, http.StatusTooManyRequests, "quota_exceeded", err.Error())
		return
	}

	var reqErr *forecast.RequestError
	if errors.As(err, &reqErr) {
		s.logger.ErrorContext(r.Context(), "Forecast request failed",
			"kind", string(reqErr.Kind),
			log.FieldStatusCode, reqErr.Status,
			log.FieldError, err)
		switch reqErr.Kind {
		case forecast.KindNetwork:
			writeError(w, http.StatusGatewayTimeout, "prediction_unreachable", "prediction service did not respond")
		case forecast.KindRequestSetup:
			writeError(w, http.StatusInternalServerError, "internal", "could not build prediction request")
		default:
			writeError(w, http.StatusBadGateway, "prediction_failed", reqErr.Message)
		}
		return
	}

	s.logger.ErrorContext(r.Context(), "Forecast request failed", log.FieldError, err)
	writeError(w, http.StatusInternalServerError, "internal", "forecast failed")
}

// handleExport streams the user's ledger as a CSV download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}

	txs, err := s.store.List(r.Context(), userID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "List transactions failed",
			log.FieldUserID, userID, log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal", "could not export transactions")
		return
	}

	filename := fmt.Sprintf("transactions-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := csvio.ExportRows(w, txs); err != nil {
		s.logger.ErrorContext(r.Context(), "CSV export failed",
			log.FieldUserID, userID, log.FieldError, err)
	}
}

// handleImport accepts a CSV upload and persists its rows one by one,
// stopping at the first storage failure and reporting what made it in.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
		return
	}

	body, err := importBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	defer body.Close()

	rows, err := csvio.ReadRows(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_csv", err.Error())
		return
	}

	txs, skipped := csvio.ImportRows(rows)

	imported := 0
	for _, t := range txs {
		if _, err := s.store.Create(r.Context(), userID, t); err != nil {
			s.logger.ErrorContext(r.Context(), "Import write failed",
				log.FieldUserID, userID,
				log.FieldTxName, t.Name,
				log.FieldError, err)
			break
		}
		imported++
	}
	if imported > 0 {
		s.invalidateUserCaches(userID)
	}

	s.logger.InfoContext(r.Context(), "Import completed",
		log.FieldUserID, userID,
		log.FieldOperation, log.OpImport,
		log.FieldCount, imported,
		log.FieldSkipped, skipped)

	status := http.StatusOK
	if imported < len(txs) {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, map[string]int{"imported": imported, "skipped": skipped})
}

// importBody returns the CSV stream from a multipart "file" field or, when
// the request is not multipart, the raw body.
func importBody(r *http.Request) (io.ReadCloser, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return nil, fmt.Errorf("parse multipart form: %w", err)
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("missing file field: %w", err)
		}
		return f, nil
	}
	return io.NopCloser(io.LimitReader(r.Body, maxBodyBytes)), nil
}

func (s *Server) invalidateUserCaches(userID string) {
	s.balanceCache.Delete(userID)
	s.forecastCache.DeletePrefix(userID + "|")
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
