package dispatch

import (
	"errors"
	"fmt"
)

// ErrorCode - код ошибки уровня протокола. Значения совпадают с JSON-RPC 2.0.
type ErrorCode int

// Коды ошибок диспетчеризации.
const (
	MethodNotFound ErrorCode = -32601
	InvalidParams  ErrorCode = -32602
)

// String возвращает имя кода.
func (c ErrorCode) String() string {
	switch c {
	case MethodNotFound:
		return "MethodNotFound"
	case InvalidParams:
		return "InvalidParams"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

// Error - ошибка диспетчеризации: неизвестная операция или отсутствующий
// Argument Bag. Доменные ошибки сюда не попадают, они возвращаются в Envelope.
type Error struct {
	Code    ErrorCode
	Message string
}

// Error реализует интерфейс error.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCode проверяет код ошибки диспетчеризации.
func IsCode(err error, code ErrorCode) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}
