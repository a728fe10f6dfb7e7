package output

import "strings"

// FormatJSON и FormatText - поддерживаемые форматы вывода.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// NewWriter создаёт Writer по указанному формату (case-insensitive).
// Пустой или неизвестный формат даёт JSONWriter: call используется в скриптах.
func NewWriter(format string) Writer {
	if strings.EqualFold(format, FormatText) {
		return NewTextWriter()
	}
	return NewJSONWriter()
}
