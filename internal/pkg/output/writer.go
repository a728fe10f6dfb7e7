package output

import "io"

// Writer определяет интерфейс для форматирования результатов вызова.
// Реализации: JSONWriter, TextWriter.
type Writer interface {
	// Write форматирует result и записывает в w.
	Write(w io.Writer, result *Result) error
}
