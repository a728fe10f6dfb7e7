package logging

// Поддерживаемые форматы вывода логов.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Поддерживаемые уровни логирования.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Поддерживаемые типы вывода логов.
// stdout не поддерживается: по нему идёт поток MCP stdio транспорта.
const (
	OutputStderr = "stderr"
	OutputFile   = "file"
	OutputStdout = "stdout"
)

// Значения по умолчанию для Config.
const (
	DefaultLevel      = LevelInfo
	DefaultFormat     = FormatText
	DefaultOutput     = OutputStderr
	DefaultFilePath   = "/var/log/azure-devops-mcp.log"
	DefaultMaxSize    = 100 // MB
	DefaultMaxBackups = 3
	DefaultMaxAge     = 7 // days
	DefaultCompress   = true
)

// redactedKeys - ключи атрибутов, значения которых никогда не попадают в лог.
var redactedKeys = map[string]struct{}{
	"pat":           {},
	"token":         {},
	"authorization": {},
	"password":      {},
}

// RedactedValue подставляется вместо значений секретных атрибутов.
const RedactedValue = "***"

// DefaultConfig возвращает Config со значениями по умолчанию.
func DefaultConfig() Config {
	return Config{
		Level:      DefaultLevel,
		Format:     DefaultFormat,
		Output:     DefaultOutput,
		FilePath:   DefaultFilePath,
		MaxSize:    DefaultMaxSize,
		MaxBackups: DefaultMaxBackups,
		MaxAge:     DefaultMaxAge,
		Compress:   DefaultCompress,
	}
}

// Config содержит настройки логирования.
type Config struct {
	// Format определяет формат вывода: "json" или "text".
	Format string

	// Level определяет минимальный уровень логирования:
	// "debug", "info", "warn", "error". По умолчанию "info".
	Level string

	// Output определяет куда выводить логи: "stderr" или "file".
	Output string

	// FilePath задаёт путь к файлу логов (при output="file").
	FilePath string

	// Параметры ротации lumberjack.
	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}
