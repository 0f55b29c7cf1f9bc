package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps an engine error kind onto an HTTP status. Untyped errors
// are treated as internal.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch core.KindOf(err) {
	case core.KindValidation:
		status = http.StatusUnprocessableEntity
	case core.KindConflict:
		status = http.StatusConflict
	case core.KindNotFound:
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed", "method", r.Method, "url", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func readJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return core.Validationf("invalid request body: %v", err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, core.Validationf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

// queryDate parses a required ?name=YYYY-MM-DD parameter.
func queryDate(r *http.Request, name string) (core.Date, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return core.Date{}, core.Validationf("missing %s parameter", name)
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, core.Validationf("invalid %s %q", name, v)
	}
	return d, nil
}

// queryDatePtr parses an optional ?name=YYYY-MM-DD parameter.
func queryDatePtr(r *http.Request, name string) (*core.Date, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return nil, core.Validationf("invalid %s %q", name, v)
	}
	return &d, nil
}

// queryInt parses an optional integer parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.Validationf("invalid %s %q", name, v)
	}
	return n, nil
}

// queryInt64Ptr parses an optional integer parameter.
func queryInt64Ptr(r *http.Request, name string) (*int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, core.Validationf("invalid %s %q", name, v)
	}
	return &n, nil
}

// queryBool parses an optional boolean parameter, treating absence as false.
func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

// refDate parses an optional ?date= parameter, defaulting to today.
func refDate(r *http.Request) (core.Date, error) {
	d, err := queryDatePtr(r, "date")
	if err != nil {
		return core.Date{}, err
	}
	if d == nil {
		return core.Today(), nil
	}
	return *d, nil
}
