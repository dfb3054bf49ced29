// filename: internal/common/errors/errors.go
package errors

import (
	"fmt"
)

// ErrorCode представляет код ошибки
type ErrorCode string

const (
	// Общие ошибки
	ErrorCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrorCodeTimeout    ErrorCode = "TIMEOUT"

	// Ошибки поискового бэкенда
	ErrorCodeSearchConnection ErrorCode = "SEARCH_CONNECTION_ERROR"
	ErrorCodeSearchQuery      ErrorCode = "SEARCH_QUERY_ERROR"

	// Ошибки publish-канала
	ErrorCodeSinkConnection ErrorCode = "SINK_CONNECTION_ERROR"
	ErrorCodeSinkPublish    ErrorCode = "SINK_PUBLISH_ERROR"

	// Ошибки обработки событий
	ErrorCodeHitInvalid    ErrorCode = "HIT_INVALID"
	ErrorCodeSerialization ErrorCode = "SERIALIZATION_ERROR"
)

// DataServerError представляет типизированную ошибку data server
type DataServerError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details,omitempty"`
	Internal error                  `json:"-"`
}

// Error возвращает строковое представление ошибки // v1.0
func (e *DataServerError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap возвращает внутреннюю ошибку // v1.0
func (e *DataServerError) Unwrap() error {
	return e.Internal
}

// New создает новую ошибку // v1.0
func New(code ErrorCode, message string) *DataServerError {
	return &DataServerError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Wrap оборачивает существующую ошибку // v1.0
func Wrap(err error, code ErrorCode, message string) *DataServerError {
	return &DataServerError{
		Code:     code,
		Message:  message,
		Internal: err,
		Details:  make(map[string]interface{}),
	}
}

// AddDetail добавляет деталь к ошибке // v1.0
func (e *DataServerError) AddDetail(key string, value interface{}) *DataServerError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode проверяет, является ли ошибка ошибкой определенного кода // v1.0
func IsErrorCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}

// GetErrorCode возвращает код ошибки; для нетипизированных ошибок
// возвращается INTERNAL_ERROR // v1.0
func GetErrorCode(err error) ErrorCode {
	if dsErr, ok := err.(*DataServerError); ok {
		return dsErr.Code
	}
	return ErrorCodeInternal
}

// IsConnectivity проверяет, относится ли ошибка к потере соединения
// (такие ошибки уходят в supervisor на фиксированный retry) // v1.0
func IsConnectivity(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeSearchConnection || code == ErrorCodeSinkConnection
}
