package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Envelope содержит разобранное тело ответа API. Payload содержит произвольное JSON-значение:
// объект с полями success/error/message и полезной нагрузкой либо голый массив.
// Числа представлены как json.Number.
type Envelope struct {
	Payload any
}

// Field возвращает поле объекта верхнего уровня или nil.
func (e Envelope) Field(name string) any {
	obj, ok := e.Payload.(map[string]any)
	if !ok {
		return nil
	}
	return obj[name]
}

// explicitFailure сообщает, что конверт явно содержит success:false.
func (e Envelope) explicitFailure() bool {
	v, ok := e.Field("success").(bool)
	return ok && !v
}

// message возвращает текст ошибки из полей error или message.
func (e Envelope) message() string {
	for _, key := range []string{"error", "message"} {
		if s, ok := e.Field(key).(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func decodeBody(text []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode response: trailing data after JSON value")
	}
	return payload, nil
}
