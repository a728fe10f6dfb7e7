package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/stefanskiasan/azure-devops-mcp-server/internal/constants"
)

// NewLogger создаёт Logger с заданной конфигурацией.
//
// Поддерживаемые режимы вывода (config.Output):
//   - "stderr" или "" (default): логи пишутся в os.Stderr
//   - "file": логи пишутся в файл с ротацией через lumberjack
//   - "stdout": запрещён, так как stdout занят MCP транспортом; используется stderr
func NewLogger(config Config) Logger {
	var w io.Writer

	switch config.Output {
	case OutputFile:
		w = newLumberjackWriter(config)
	case OutputStderr, "":
		w = os.Stderr
	case OutputStdout:
		_, _ = os.Stderr.WriteString("WARNING: logging output stdout конфликтует с MCP stdio, используется stderr\n") //nolint:errcheck // bootstrap stderr
		w = os.Stderr
	default:
		_, _ = os.Stderr.WriteString(fmt.Sprintf( //nolint:errcheck // bootstrap stderr
			"WARNING: неизвестный logging output %q, falling back to stderr\n", config.Output))
		w = os.Stderr
	}

	return NewLoggerWithWriter(config, w)
}

// newLumberjackWriter создаёт io.Writer с ротацией на основе lumberjack.
// При пустом FilePath или ошибке создания директории возвращает os.Stderr.
func newLumberjackWriter(config Config) io.Writer {
	if config.FilePath == "" {
		_, _ = os.Stderr.WriteString("WARNING: logging output=file but filePath is empty, falling back to stderr\n") //nolint:errcheck // bootstrap stderr
		return os.Stderr
	}

	dir := filepath.Dir(config.FilePath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermLogs); err != nil {
			_, _ = os.Stderr.WriteString(fmt.Sprintf( //nolint:errcheck // bootstrap stderr
				"WARNING: не удалось создать директорию логов %q: %v, falling back to stderr\n", dir, err))
			return os.Stderr
		}
	}

	return &lumberjack.Logger{
		Filename:   config.FilePath,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	}
}

// NewLoggerWithWriter создаёт Logger с заданной конфигурацией и writer.
// Используется в тестах и там, где writer выбирается вызывающим кодом.
func NewLoggerWithWriter(config Config, w io.Writer) Logger {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(config.Level),
		ReplaceAttr: redactSecrets,
	}

	var handler slog.Handler
	switch config.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return NewSlogAdapter(slog.New(handler))
}

// redactSecrets заменяет значения атрибутов с секретными ключами.
func redactSecrets(_ []string, a slog.Attr) slog.Attr {
	if _, ok := redactedKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, RedactedValue)
	}
	return a
}

// parseLevel конвертирует строковый уровень в slog.Level.
// При неизвестном значении возвращает slog.LevelInfo.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
