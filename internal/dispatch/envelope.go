package dispatch

import (
	"encoding/json"
	"fmt"
)

// ContentTypeText - тип текстового элемента ответа.
const ContentTypeText = "text"

// Content - элемент ответа.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Envelope - единая форма ответа каждой операции.
type Envelope struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// TextEnvelope возвращает успешный ответ с одним текстовым элементом.
func TextEnvelope(text string) *Envelope {
	return &Envelope{Content: []Content{{Type: ContentTypeText, Text: text}}}
}

// ErrorEnvelope возвращает ответ с isError=true.
func ErrorEnvelope(message string) *Envelope {
	env := TextEnvelope(message)
	env.IsError = true
	return env
}

// Wrap приводит результат операции к Envelope ровно один раз:
// Envelope проходит без изменений, остальное сериализуется в JSON с отступом 2.
func Wrap(result any) (*Envelope, error) {
	switch r := result.(type) {
	case *Envelope:
		if r != nil {
			return r, nil
		}
	case Envelope:
		return &r, nil
	}

	text, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize result: %w", err)
	}
	return TextEnvelope(string(text)), nil
}
