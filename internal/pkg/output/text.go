package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// TextWriter форматирует Result в человекочитаемый текст.
type TextWriter struct{}

// NewTextWriter создаёт новый TextWriter.
func NewTextWriter() *TextWriter {
	return &TextWriter{}
}

// Write форматирует result в текст и записывает в w.
func (t *TextWriter) Write(w io.Writer, result *Result) error {
	if result == nil {
		return nil
	}

	if _, err := fmt.Fprintf(w, "%s: %s\n", result.Tool, result.Status); err != nil {
		return err
	}

	if result.Error != nil {
		if result.Error.Code != "" {
			if _, err := fmt.Fprintf(w, "Error [%s]: %s\n", result.Error.Code, result.Error.Message); err != nil {
				return err
			}
		} else if _, err := fmt.Fprintf(w, "Error: %s\n", result.Error.Message); err != nil {
			return err
		}
	}

	if result.Data != nil {
		data, err := formatData(result.Data)
		if err != nil {
			return fmt.Errorf("не удалось сериализовать Data: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return err
		}
	}

	if result.Metadata != nil && result.Metadata.DurationMs > 0 {
		if _, err := fmt.Fprintf(w, "Время выполнения: %s\n", formatDuration(result.Metadata.DurationMs)); err != nil {
			return err
		}
	}
	return nil
}

// formatData выводит JSON с отступом в 2 пробела, строку - как есть.
func formatData(data any) (string, error) {
	switch v := data.(type) {
	case string:
		return v, nil
	case json.RawMessage:
		var buf bytes.Buffer
		if err := json.Indent(&buf, v, "", "  "); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		b, err := json.MarshalIndent(v, "", "  ")
		return string(b), err
	}
}

// formatDuration форматирует duration в человекочитаемый вид.
// int64 для избежания overflow на 32-bit системах.
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dмс", ms)
	}
	sec := ms / 1000
	if sec < 60 {
		return fmt.Sprintf("%.1fс", float64(ms)/1000)
	}
	return fmt.Sprintf("%dм %dс", sec/60, sec%60)
}
