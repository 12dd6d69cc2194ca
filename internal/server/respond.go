package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/TobiSchelling/TrendIntel/internal/logging"
)

// Error codes carried in the error envelope.
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeNotFound         = "NOT_FOUND"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeInternal         = "INTERNAL"
	CodeRateLimited      = "RATE_LIMITED"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

type message struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn().Err(err).Msg("Error encoding response")
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail, Code: code})
}

func notFound(w http.ResponseWriter, detail string) {
	writeError(w, http.StatusNotFound, CodeNotFound, detail)
}

func badRequest(w http.ResponseWriter, detail string) {
	writeError(w, http.StatusBadRequest, CodeBadRequest, detail)
}

// internalError logs err and replies 500 with detail, or a generic message
// when detail is empty.
func internalError(w http.ResponseWriter, r *http.Request, err error, detail string) {
	logging.Error().Err(err).Str("path", r.URL.Path).Str("request_id", requestID(r.Context())).Msg("Request failed")
	if detail == "" {
		detail = "Internal server error"
	}
	writeError(w, http.StatusInternalServerError, CodeInternal, detail)
}

// decode reads a JSON body into v and validates it. It writes the error reply
// and returns false on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusUnprocessableEntity, CodeValidationFailed, "Request body is required")
			return false
		}
		writeError(w, http.StatusUnprocessableEntity, CodeValidationFailed, "Invalid JSON: "+err.Error())
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, http.StatusUnprocessableEntity, CodeValidationFailed, validationDetail(err))
		return false
	}
	return true
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// pathID parses the {id} URL parameter.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusUnprocessableEntity, CodeValidationFailed, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// query reads and bounds-checks query parameters, collecting the first error.
type query struct {
	r   *http.Request
	err string
}

func newQuery(r *http.Request) *query {
	return &query{r: r}
}

func (q *query) str(name string) string {
	return strings.TrimSpace(q.r.URL.Query().Get(name))
}

// intRange returns the parameter or def when absent.
func (q *query) intRange(name string, def, lo, hi int) int {
	raw := q.str(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		q.fail("%s must be an integer", name)
		return def
	}
	if n < lo || n > hi {
		q.fail("%s must be between %d and %d", name, lo, hi)
		return def
	}
	return n
}

func (q *query) int64(name string) int64 {
	raw := q.str(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		q.fail("%s must be an integer", name)
	}
	return n
}

func (q *query) boolPtr(name string) *bool {
	raw := q.str(name)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		q.fail("%s must be a boolean", name)
		return nil
	}
	return &b
}

func (q *query) oneOf(name, def string, allowed ...string) string {
	v := q.str(name)
	if v == "" {
		return def
	}
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	q.fail("%s must be one of %s", name, strings.Join(allowed, ", "))
	return def
}

func (q *query) fail(format string, args ...any) {
	if q.err == "" {
		q.err = fmt.Sprintf(format, args...)
	}
}

// ok writes a 422 reply and returns false if any parameter was invalid.
func (q *query) ok(w http.ResponseWriter) bool {
	if q.err != "" {
		writeError(w, http.StatusUnprocessableEntity, CodeValidationFailed, q.err)
		return false
	}
	return true
}
