// Package apierrors translates the kernel's typed kernelerr.Error into the
// HTTP-facing {code, message, status} envelope handlers return.
package apierrors

import (
	"errors"
	"fmt"
	"net/http"

	"ledger-api/internal/ledger/kernelerr"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e APIError) Error() string {
	return e.Message
}

const (
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeInternalServer = "INTERNAL_SERVER_ERROR"
	ErrCodeRateLimit      = "RATE_LIMIT_EXCEEDED"
	ErrCodeConflict       = "CONFLICT"
	ErrCodeBookNotReady   = "BOOK_NOT_READY"
	ErrCodeRateUnavail    = "EXCHANGE_RATE_UNAVAILABLE"
)

func NewValidationError(message string) APIError {
	return APIError{Code: ErrCodeValidation, Message: message, Status: http.StatusBadRequest}
}

func NewNotFoundError(resource string) APIError {
	return APIError{Code: ErrCodeNotFound, Message: fmt.Sprintf("%s not found", resource), Status: http.StatusNotFound}
}

func NewInternalServerError() APIError {
	return APIError{Code: ErrCodeInternalServer, Message: "internal server error", Status: http.StatusInternalServerError}
}

func NewRateLimitError() APIError {
	return APIError{Code: ErrCodeRateLimit, Message: "rate limit exceeded, try again later", Status: http.StatusTooManyRequests}
}

// kinds maps each kernelerr.Kind to the HTTP status and API error code a
// handler should respond with. Kinds not listed fall through to a generic
// 500; a kernel error the host doesn't recognize is a host bug, not a
// client error.
var kinds = map[kernelerr.Kind]struct {
	code   string
	status int
}{
	kernelerr.DifferentAmountsInLocalAccount:     {ErrCodeValidation, http.StatusBadRequest},
	kernelerr.ForeignResultAccount:               {ErrCodeValidation, http.StatusBadRequest},
	kernelerr.DuplicateCode:                      {ErrCodeConflict, http.StatusConflict},
	kernelerr.ImbalancedTransaction:              {ErrCodeValidation, http.StatusUnprocessableEntity},
	kernelerr.UnsupportedMultipleForeignIncrease: {ErrCodeValidation, http.StatusUnprocessableEntity},
	kernelerr.UnsupportedAccountingMode:          {ErrCodeValidation, http.StatusBadRequest},
	kernelerr.NothingLeftForForeignDebit:         {ErrCodeValidation, http.StatusUnprocessableEntity},
	kernelerr.BookNotReady:                       {ErrCodeBookNotReady, http.StatusConflict},
	kernelerr.AlreadyProcessed:                   {ErrCodeConflict, http.StatusConflict},
	kernelerr.NotLinked:                          {ErrCodeNotFound, http.StatusNotFound},
	kernelerr.ExchangeRateUnavailable:            {ErrCodeRateUnavail, http.StatusServiceUnavailable},
	kernelerr.CrossBookSplit:                     {ErrCodeValidation, http.StatusBadRequest},
}

// FromKernel translates a kernel error into an APIError. Non-kernel errors
// (persistence failures, context cancellation) become a generic 500.
func FromKernel(err error) APIError {
	var kerr *kernelerr.Error
	if !errors.As(err, &kerr) {
		return NewInternalServerError()
	}
	if mapped, ok := kinds[kerr.Kind]; ok {
		return APIError{Code: mapped.code, Message: kerr.Message, Status: mapped.status}
	}
	return NewInternalServerError()
}
