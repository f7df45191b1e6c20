package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	clientdomain "github.com/smallbiznis/flowdesk/internal/client/domain"
	draftdomain "github.com/smallbiznis/flowdesk/internal/draft/domain"
	exportdomain "github.com/smallbiznis/flowdesk/internal/export/domain"
	invoicedomain "github.com/smallbiznis/flowdesk/internal/invoice/domain"
	profiledomain "github.com/smallbiznis/flowdesk/internal/profile/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var draftErr *draftdomain.ValidationError
	if errors.As(err, &draftErr) {
		fields := make([]ValidationError, 0, len(draftErr.Fields))
		for _, field := range draftErr.Fields {
			fields = append(fields, ValidationError{
				Field:   field,
				Code:    "required",
				Message: field + " is required",
			})
		}
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "validation_error",
			Message: draftErr.Error(),
			Errors:  fields,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	case isStoreError(err):
		return http.StatusBadGateway, errorPayload{
			Type:    "store_error",
			Message: "invoice could not be saved",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the error type and code recorded on request logs.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, draftdomain.ErrInvalidStatus):
		return true
	case isClientValidationError(err),
		isInvoiceValidationError(err),
		isProfileValidationError(err):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, clientdomain.ErrClientInUse),
		errors.Is(err, invoicedomain.ErrDuplicateNumber),
		errors.Is(err, exportdomain.ErrExportInFlight),
		errors.Is(err, draftdomain.ErrDecisionPending),
		errors.Is(err, draftdomain.ErrNoCandidate),
		errors.Is(err, draftdomain.ErrChoiceConflict),
		errors.Is(err, draftdomain.ErrSessionCommitted),
		errors.Is(err, draftdomain.ErrNotInitialized),
		errors.Is(err, draftdomain.ErrAlreadyStarted),
		errors.Is(err, draftdomain.ErrSessionClosed),
		errors.Is(err, draftdomain.ErrCommitInProgress):
		return true
	default:
		return false
	}
}

func conflictMessage(err error) string {
	return strings.ReplaceAll(leafError(err), "_", " ")
}

// leafError returns the message of the innermost wrapped error, which for
// domain failures is the sentinel code.
func leafError(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, clientdomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, profiledomain.ErrNotFound),
		errors.Is(err, profiledomain.ErrAssetNotFound),
		errors.Is(err, exportdomain.ErrJobNotFound),
		errors.Is(err, draftdomain.ErrNoSession),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isStoreError(err error) bool {
	var storeErr *draftdomain.StoreError
	return errors.As(err, &storeErr)
}

func isClientValidationError(err error) bool {
	switch {
	case errors.Is(err, clientdomain.ErrInvalidName),
		errors.Is(err, clientdomain.ErrInvalidEmail),
		errors.Is(err, clientdomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isInvoiceValidationError(err error) bool {
	switch {
	case errors.Is(err, invoicedomain.ErrInvalidID),
		errors.Is(err, invoicedomain.ErrInvalidClient),
		errors.Is(err, invoicedomain.ErrEmptyItems),
		errors.Is(err, invoicedomain.ErrInvalidQuantity),
		errors.Is(err, invoicedomain.ErrInvalidPrice),
		errors.Is(err, invoicedomain.ErrInvalidDate),
		errors.Is(err, invoicedomain.ErrInvalidDueDate),
		errors.Is(err, invoicedomain.ErrInvalidDiscount),
		errors.Is(err, invoicedomain.ErrInvalidCurrency),
		errors.Is(err, invoicedomain.ErrInvalidStatus):
		return true
	default:
		return false
	}
}

func isProfileValidationError(err error) bool {
	switch {
	case errors.Is(err, profiledomain.ErrInvalidName),
		errors.Is(err, profiledomain.ErrInvalidEmail),
		errors.Is(err, profiledomain.ErrInvalidCurrency),
		errors.Is(err, profiledomain.ErrInvalidTerms),
		errors.Is(err, profiledomain.ErrInvalidAsset):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return leafError(err)
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
