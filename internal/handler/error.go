package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/ordoflow/internal/domain"
)

// Client-facing messages of the public endpoints.
const (
	msgInvalidData     = "Niepoprawne dane"
	msgLeadSaveFailed  = "Wystąpił błąd podczas zapisywania danych."
	msgReportFailed    = "Wystąpił błąd podczas wysyłania raportu."
	msgNotFound        = "Nie znaleziono zasobu."
	msgUnauthorized    = "Wymagane uwierzytelnienie."
	msgInvalidJSON     = "Niepoprawny format danych."
	msgRequestTooLarge = "Przesłane dane są zbyt duże."
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

var statusByCode = map[string]int{
	domain.EINVALID:      http.StatusBadRequest,
	domain.EUNAUTHORIZED: http.StatusUnauthorized,
	domain.EFORBIDDEN:    http.StatusForbidden,
	domain.ENOTFOUND:     http.StatusNotFound,
	domain.ECONFLICT:     http.StatusConflict,
	domain.ERATELIMIT:    http.StatusTooManyRequests,
	domain.EUNAVAILABLE:  http.StatusServiceUnavailable,
}

// ErrorCodeToHTTPStatus maps a domain code to a status. Unknown codes and
// EINTERNAL are 500.
func ErrorCodeToHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorResponse writes err as JSON. Internal details stay in the log.
func ErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	writeError(w, r, logger, err, "")
}

// errorResponseWithMessage replaces the message of 5xx responses; the
// public forms show their own wording for server failures.
func errorResponseWithMessage(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, message string) {
	writeError(w, r, logger, err, message)
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, serverMessage string) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		ValidationErrorResponse(w, r, logger, err)
		return
	}

	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)
	logError(logger, r, err, code, domain.ErrorOp(err), status)

	message := domain.ErrorMessage(err)
	if serverMessage != "" && status >= http.StatusInternalServerError {
		message = serverMessage
	}
	writeJSON(w, status, ErrorBody{Error: message, Code: code})
}

// ValidationErrorResponse writes the field errors of err. Any other error
// goes through ErrorResponse.
func ValidationErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		ErrorResponse(w, r, logger, err)
		return
	}

	logger.Info("validation error", "op", ve.Op, "field_count", len(ve.Fields), "path", r.URL.Path)
	writeJSON(w, http.StatusBadRequest, ErrorBody{
		Error:   msgInvalidData,
		Code:    domain.EINVALID,
		Details: ve.Fields,
	})
}

func NotFoundResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	ErrorResponse(w, r, logger, domain.Errorf(domain.ENOTFOUND, "", msgNotFound))
}

func UnauthorizedResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	ErrorResponse(w, r, logger, domain.Errorf(domain.EUNAUTHORIZED, "", msgUnauthorized))
}

// logError logs 5xx at error level and 4xx at info. Aborted requests are
// EUNAVAILABLE and not failures of the server.
func logError(logger *slog.Logger, r *http.Request, err error, code, op string, status int) {
	attrs := []any{
		"error", err.Error(),
		"code", code,
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
	}
	if op != "" {
		attrs = append(attrs, "op", op)
	}

	switch {
	case code == domain.EUNAVAILABLE:
		logger.Info("request aborted", attrs...)
	case status >= 500:
		logger.Error("server error", attrs...)
	default:
		logger.Info("client error", attrs...)
	}
}
