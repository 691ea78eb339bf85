package http

import (
	"errors"
	"net/http"

	"faxina/internal/core"
	"faxina/internal/log"
)

// Error codes of the error body.
const (
	CodeInvalidAmount      = "invalid_amount"
	CodeInvalidDate        = "invalid_date"
	CodeInvalidFilter      = "invalid_filter"
	CodeValidationFailed   = "validation_failed"
	CodeNotFound           = "not_found"
	CodeStorageUnavailable = "storage_unavailable"
	CodeBadRequest         = "bad_request"
	CodeRateLimited        = "rate_limited"
	CodeInternal           = "internal_error"
)

var (
	errBadRequest  = errors.New("malformed request")
	errRateLimited = errors.New("rate limit exceeded")
)

type errorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorBody struct {
	Error   string        `json:"error"`
	Message string        `json:"message"`
	Details []errorDetail `json:"details,omitempty"`
}

// classify maps err to a status, an error code and a client-safe message.
// Storage failures are checked first: their wrapped causes may mention a
// date column and must never be reported as bad input.
func classify(err error) (int, errorBody) {
	switch {
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests, errorBody{Error: CodeRateLimited, Message: "too many requests, try again later"}
	case errors.Is(err, core.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, errorBody{Error: CodeStorageUnavailable, Message: "storage is unavailable, try again later"}
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: CodeNotFound, Message: "payment not found"}
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, errorBody{Error: CodeBadRequest, Message: err.Error()}
	}

	if details := validationDetails(err); len(details) > 0 {
		status, code := validationCode(err)
		return status, errorBody{Error: code, Message: err.Error(), Details: details}
	}

	switch {
	case errors.Is(err, core.ErrInvalidFilter):
		return http.StatusBadRequest, errorBody{Error: CodeInvalidFilter, Message: err.Error()}
	case errors.Is(err, core.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, errorBody{Error: CodeInvalidAmount, Message: err.Error()}
	case errors.Is(err, core.ErrInvalidDate):
		return http.StatusUnprocessableEntity, errorBody{Error: CodeInvalidDate, Message: err.Error()}
	case errors.Is(err, core.ErrInvalidStatus), errors.Is(err, core.ErrFieldTooLong):
		return http.StatusUnprocessableEntity, errorBody{Error: CodeValidationFailed, Message: err.Error()}
	}
	return http.StatusInternalServerError, errorBody{Error: CodeInternal, Message: "internal server error"}
}

func validationDetails(err error) []errorDetail {
	var batch core.ValidationErrors
	if !errors.As(err, &batch) {
		var single *core.ValidationError
		if !errors.As(err, &single) {
			return nil
		}
		batch = core.ValidationErrors{single}
	}
	details := make([]errorDetail, 0, len(batch))
	for _, fe := range batch {
		msg := fe.Message
		if msg == "" && fe.Err != nil {
			msg = fe.Err.Error()
		}
		details = append(details, errorDetail{Field: fe.Field, Message: msg})
	}
	return details
}

// validationCode picks the most specific code that covers every failure.
func validationCode(err error) (int, string) {
	var batch core.ValidationErrors
	if !errors.As(err, &batch) {
		var single *core.ValidationError
		if errors.As(err, &single) {
			batch = core.ValidationErrors{single}
		}
	}

	all := func(target error) bool {
		for _, fe := range batch {
			if !errors.Is(fe, target) {
				return false
			}
		}
		return len(batch) > 0
	}

	switch {
	case all(core.ErrInvalidFilter):
		return http.StatusBadRequest, CodeInvalidFilter
	case all(core.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, CodeInvalidAmount
	case all(core.ErrInvalidDate):
		return http.StatusUnprocessableEntity, CodeInvalidDate
	}
	return http.StatusUnprocessableEntity, CodeValidationFailed
}

// writeError logs server-side failures and writes the error body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).WithComponent(log.ComponentHTTP).ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, status,
			log.FieldError, err.Error())
	}
	_ = NewJSONResponse().Status(status).Body(body).Write(w)
}
