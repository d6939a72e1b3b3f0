package cli

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mchmarny/edupulse/pkg/classify"
	"github.com/mchmarny/edupulse/pkg/data"
	"github.com/mchmarny/edupulse/pkg/dataset"
	"github.com/mchmarny/edupulse/pkg/geo"
	"github.com/mchmarny/edupulse/pkg/stats"
)

var errBadParam = errors.New("invalid parameter")

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
		status = http.StatusInternalServerError
		buf.Reset()
		buf.WriteString(`{"error":"internal server error"}` + "\n")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadParam), errors.Is(err, stats.ErrUnknownColumn):
		return http.StatusBadRequest
	case errors.Is(err, dataset.ErrFileNotFound), errors.Is(err, errNoData):
		return http.StatusNotFound
	case errors.Is(err, dataset.ErrSheetRead), errors.Is(err, classify.ErrClassification):
		return http.StatusUnprocessableEntity
	case errors.Is(err, classify.ErrEmptyComparison):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(msg, "error", err)
		writeError(w, status, msg)
		return
	}
	slog.Debug(msg, "error", err)
	writeError(w, status, err.Error())
}

func queryParamInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Join(errBadParam, err)
	}
	return i, nil
}

func yearParam(r *http.Request) (*int, error) {
	if r.URL.Query().Get("y") == "" {
		return nil, nil
	}
	y, err := queryParamInt(r, "y", 0)
	if err != nil {
		return nil, err
	}
	return &y, nil
}

// loadTable reads the year filter and loads the table, writing the error
// response when either fails.
func loadTable(w http.ResponseWriter, r *http.Request, src tableSource) (*dataset.Table, bool) {
	year, err := yearParam(r)
	if err != nil {
		writeErr(w, "invalid year", err)
		return nil, false
	}
	t, err := src(year)
	if err != nil {
		writeErr(w, "failed to load data", err)
		return nil, false
	}
	return t, true
}

func stateAPIHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		counts, err := data.GetDataState(db)
		if err != nil {
			writeErr(w, "failed to get data state", err)
			return
		}
		imp, err := data.GetLastImport(db)
		if err != nil {
			writeErr(w, "failed to get last import", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"counts":      counts,
			"last_import": imp,
		})
	}
}

func describeAPIHandler(src tableSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := loadTable(w, r, src)
		if !ok {
			return
		}
		res, err := describeTable(t, "repasse", stats.TopDefault)
		if err != nil {
			writeErr(w, "failed to describe data", err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func byYearAPIHandler(src tableSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := loadTable(w, r, src)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, stats.ByYear(t))
	}
}

func topAPIHandler(src tableSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		by := r.URL.Query().Get("by")
		if by == "" {
			by = "repasse"
		}
		col, err := resolveColumn(by)
		if err != nil {
			writeErr(w, "invalid ranking column", err)
			return
		}
		n, err := queryParamInt(r, "n", stats.TopDefault)
		if err != nil {
			writeErr(w, "invalid ranking size", err)
			return
		}

		t, ok := loadTable(w, r, src)
		if !ok {
			return
		}

		list, err := stats.TopMunicipalities(t, col, n)
		if err != nil {
			writeErr(w, "failed to rank municipalities", err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func correlationAPIHandler(src tableSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := loadTable(w, r, src)
		if !ok {
			return
		}
		list, err := correlations(t)
		if err != nil {
			writeErr(w, "failed to correlate", err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func classifyAPIHandler(src tableSource, m *httpMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := loadTable(w, r, src)
		if !ok {
			return
		}
		res, err := classifyTable(t)
		if err != nil {
			writeErr(w, "failed to classify", err)
			return
		}
		m.observeClassification(res.Result.K)
		writeJSON(w, http.StatusOK, res)
	}
}

func mapAPIHandler(src tableSource, layer *mapLayer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if layer == nil {
			writeError(w, http.StatusNotFound, "geometry not configured")
			return
		}
		t, ok := loadTable(w, r, src)
		if !ok {
			return
		}
		fc, matched := geo.Join(layer.features, dataset.ByMunicipality(t), layer.codeProperty)
		slog.Debug("map joined", "features", len(fc.Features), "matched", matched)
		w.Header().Set("X-Matched-Features", strconv.Itoa(matched))
		writeJSON(w, http.StatusOK, fc)
	}
}
