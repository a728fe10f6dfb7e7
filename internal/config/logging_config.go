package config

// LoggingConfig содержит настройки логирования.
// Значения по умолчанию совпадают с logging.DefaultXxx.
type LoggingConfig struct {
	// Level - уровень логирования (debug, info, warn, error)
	Level string `yaml:"level" env:"AZDO_LOG_LEVEL" env-default:"info"`

	// Format - формат логов (json, text)
	Format string `yaml:"format" env:"AZDO_LOG_FORMAT" env-default:"text"`

	// Output - вывод логов (stderr, file). stdout занят MCP транспортом.
	Output string `yaml:"output" env:"AZDO_LOG_OUTPUT" env-default:"stderr"`

	// FilePath - путь к файлу логов (если output=file)
	FilePath string `yaml:"filePath" env:"AZDO_LOG_FILE_PATH" env-default:"/var/log/azure-devops-mcp.log"`

	// Параметры ротации файла.
	MaxSize    int `yaml:"maxSize" env:"AZDO_LOG_MAX_SIZE" env-default:"100"`
	MaxBackups int `yaml:"maxBackups" env:"AZDO_LOG_MAX_BACKUPS" env-default:"3"`
	MaxAge     int `yaml:"maxAge" env:"AZDO_LOG_MAX_AGE" env-default:"7"`

	// Compress - сжимать ли backup файлы.
	// Пустое значение в YAML перекрывается env-default, поэтому false задаётся только через env.
	Compress bool `yaml:"compress" env:"AZDO_LOG_COMPRESS" env-default:"true"`
}
