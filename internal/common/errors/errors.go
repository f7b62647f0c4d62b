// internal/common/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodePartnerNotFound     ErrorCode = "PARTNER_NOT_FOUND"
	ErrCodeUserNotFound        ErrorCode = "USER_NOT_FOUND"
	ErrCodeConnectionNotFound  ErrorCode = "CONNECTION_NOT_FOUND"
	ErrCodeAnalysisNotFound    ErrorCode = "ANALYSIS_NOT_FOUND"
	ErrCodeDuplicateConnection ErrorCode = "DUPLICATE_CONNECTION"
	ErrCodeDuplicateEmail      ErrorCode = "DUPLICATE_EMAIL"
	ErrCodeInvalidTransition   ErrorCode = "INVALID_STATUS_TRANSITION"
	ErrCodeInvalidWorkload     ErrorCode = "INVALID_WORKLOAD"
	ErrCodeInvalidInput        ErrorCode = "INVALID_INPUT"

	ErrCodeTaxIDInvalid       ErrorCode = "TAXID_INVALID"
	ErrCodeTaxIDLimitExceeded ErrorCode = "TAXID_LIMIT_EXCEEDED"
	ErrCodeTaxIDLookupFailed  ErrorCode = "TAXID_LOOKUP_FAILED"
	ErrCodeTaxIDUnavailable   ErrorCode = "TAXID_UNAVAILABLE"

	ErrCodeWebhookPayloadInvalid   ErrorCode = "WEBHOOK_PAYLOAD_INVALID"
	ErrCodeWebhookSignatureInvalid ErrorCode = "WEBHOOK_SIGNATURE_INVALID"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeCacheUnavailable         ErrorCode = "CACHE_UNAVAILABLE"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeProcessStartFailed     ErrorCode = "PROCESS_START_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError is the error shape shared by services, workers and the API.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error { return e.cause }

// WithMetadata attaches a key to the error metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithCause sets the wrapped error, usually a package sentinel.
func (e *StandardError) WithCause(err error) *StandardError {
	e.cause = err
	return e
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func detailsOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// --- Domain errors ---

func NewPartnerNotFoundError(partnerID string) *StandardError {
	return newError(ErrCodePartnerNotFound, "Partner not found", fmt.Sprintf("partnerId: %s", partnerID), false, nil)
}

func NewUserNotFoundError(userID string) *StandardError {
	return newError(ErrCodeUserNotFound, "User not found", fmt.Sprintf("userId: %s", userID), false, nil)
}

func NewConnectionNotFoundError(connectionID string) *StandardError {
	return newError(ErrCodeConnectionNotFound, "Connection not found", fmt.Sprintf("connectionId: %s", connectionID), false, nil)
}

func NewAnalysisNotFoundError(analysisID string) *StandardError {
	return newError(ErrCodeAnalysisNotFound, "Analysis result not found or expired", fmt.Sprintf("analysisId: %s", analysisID), false, nil)
}

func NewDuplicateConnectionError(connectionID string) *StandardError {
	return newError(ErrCodeDuplicateConnection, "Connection already exists", fmt.Sprintf("connectionId: %s", connectionID), false, nil)
}

func NewDuplicateEmailError(email string) *StandardError {
	return newError(ErrCodeDuplicateEmail, "Email already registered", fmt.Sprintf("email: %s", email), false, nil)
}

func NewInvalidTransitionError(from, to string) *StandardError {
	return newError(ErrCodeInvalidTransition, "Status transition not allowed", fmt.Sprintf("%s -> %s", from, to), false, nil)
}

func NewInvalidWorkloadError(workload int) *StandardError {
	return newError(ErrCodeInvalidWorkload, "Workload must be between 0 and 100", fmt.Sprintf("workload: %d", workload), false, nil)
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid input", details, false, nil)
}

func NewTaxIDInvalidError(inn string) *StandardError {
	return newError(ErrCodeTaxIDInvalid, "Tax ID failed checksum validation", fmt.Sprintf("inn: %s", inn), false, nil)
}

func NewTaxIDLimitExceededError(limit int) *StandardError {
	return newError(ErrCodeTaxIDLimitExceeded, "Daily tax ID lookup limit reached", fmt.Sprintf("limit: %d", limit), false, nil)
}

func NewTaxIDLookupFailedError(err error) *StandardError {
	return newError(ErrCodeTaxIDLookupFailed, "Tax registry lookup failed", detailsOf(err), true, err)
}

func NewTaxIDUnavailableError() *StandardError {
	return newError(ErrCodeTaxIDUnavailable, "Tax registry is not configured", "missing API key", false, nil)
}

func NewWebhookPayloadInvalidError(platform, details string) *StandardError {
	return newError(ErrCodeWebhookPayloadInvalid, "Webhook payload rejected", fmt.Sprintf("platform: %s, %s", platform, details), false, nil)
}

func NewWebhookSignatureInvalidError(platform string) *StandardError {
	return newError(ErrCodeWebhookSignatureInvalid, "Webhook signature mismatch", fmt.Sprintf("platform: %s", platform), false, nil)
}

// --- Infrastructure errors ---

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", detailsOf(err), true, err)
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, detailsOf(err)), true, err)
}

func NewQueryTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("queryType: %s", queryType), true, nil)
}

func NewCacheUnavailableError(err error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Cache unavailable", detailsOf(err), true, err)
}

func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeElasticsearchConnectionFailed, "Elasticsearch connection error", detailsOf(err), true, err)
}

func NewSearchQueryFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, detailsOf(err)), true, err)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, detailsOf(err)), true, err)
}

func NewProcessStartFailedError(processID string, err error) *StandardError {
	return newError(ErrCodeProcessStartFailed, "Workflow process could not be started",
		fmt.Sprintf("bpmnProcessId: %s, error: %s", processID, detailsOf(err)), true, err)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", detailsOf(err), false, err)
}

// AsStandardError unwraps err into a StandardError, wrapping unknown errors
// as internal errors.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == code
}

// HTTPStatus maps an error code onto the HTTP status returned by the API.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodePartnerNotFound, ErrCodeUserNotFound, ErrCodeConnectionNotFound, ErrCodeAnalysisNotFound:
		return http.StatusNotFound
	case ErrCodeDuplicateConnection, ErrCodeDuplicateEmail:
		return http.StatusConflict
	case ErrCodeInvalidTransition, ErrCodeInvalidWorkload, ErrCodeInvalidInput,
		ErrCodeTaxIDInvalid, ErrCodeWebhookPayloadInvalid:
		return http.StatusBadRequest
	case ErrCodeWebhookSignatureInvalid:
		return http.StatusUnauthorized
	case ErrCodeTaxIDLimitExceeded:
		return http.StatusTooManyRequests
	case ErrCodeTaxIDUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeTaxIDLookupFailed, ErrCodeSearchQueryFailed, ErrCodeElasticsearchConnectionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeCacheUnavailable,
		ErrCodeNotificationSendFailed,
		ErrCodeProcessStartFailed:
		return 3

	case ErrCodeQueryTimeout, ErrCodeTaxIDLookupFailed:
		return 2

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "TAXID"):
		return "TAXID"
	case strings.HasPrefix(codeStr, "WEBHOOK"):
		return "WEBHOOK"
	case strings.Contains(codeStr, "NOT_FOUND") || strings.HasPrefix(codeStr, "DUPLICATE"):
		return "RESOURCE"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "CACHE"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
