package api

import (
	"errors"
	"fmt"
)

// Kind классифицирует причину неуспешного обращения к API.
type Kind int

const (
	// KindNetwork: ответ не получен (таймаут, DNS, отказ в соединении).
	KindNetwork Kind = iota
	// KindProtocol: статус вне диапазона 2xx или success:false в конверте.
	KindProtocol
	// KindMalformed: тело не является JSON или нормализатор отверг структуру.
	KindMalformed
	// KindConfiguration: базовый адрес API не является корректным HTTP(S) URL.
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindProtocol:
		return "protocol"
	case KindMalformed:
		return "malformed"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Error описывает неуспешный результат запроса. Status равен 0, если HTTP-ответ не был получен.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	URL     string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Malformed создаёт ошибку некорректного ответа, обнаруженную после успешного запроса.
func Malformed(message string) *Error {
	return &Error{Kind: KindMalformed, Message: message, Status: 500}
}

// AsError извлекает *Error из цепочки ошибок.
func AsError(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// KindOf возвращает класс ошибки; ошибки другого происхождения считаются сетевыми.
func KindOf(err error) Kind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return KindNetwork
}

// StatusOf возвращает HTTP-статус ошибки или 0.
func StatusOf(err error) int {
	if e, ok := AsError(err); ok {
		return e.Status
	}
	return 0
}
