package logger

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// writerCloser holds a reference to closable writers for Sync()
var (
	writerCloser   io.Closer
	writerCloserMu sync.Mutex
)

// Logger wraps logrus.Entry to provide structured logging with context support.
type Logger struct {
	*logrus.Entry
}

// Config holds logger configuration.
type Config struct {
	Level       string    // debug, info, warn, error
	Format      string    // json, text
	Output      io.Writer // output destination; nil means environment-driven
	ServiceName string    // service name for log tagging

	// File output and rotation, used when Output is nil and the
	// environment is not local.
	Environment string // local, dev, prod
	LogFile     string
	LogFileOnly bool
	MaxSize     int // MB
	MaxBackups  int
	MaxAge      int // days
	Compress    bool
}

// DefaultConfig returns sensible defaults, overridable via environment
// variables (LOG_LEVEL, LOG_FORMAT, APP_ENV, LOG_FILE, ...).
func DefaultConfig() *Config {
	return &Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Format:      getEnv("LOG_FORMAT", "json"),
		ServiceName: getEnv("SERVICE_NAME", "researchbot"),
		Environment: getEnv("APP_ENV", "local"),
		LogFile:     getEnv("LOG_FILE", "/var/log/researchbot/app.log"),
		LogFileOnly: getEnvBool("LOG_FILE_ONLY", false),
		MaxSize:     getEnvInt("LOG_MAX_SIZE", 100),
		MaxBackups:  getEnvInt("LOG_MAX_BACKUPS", 7),
		MaxAge:      getEnvInt("LOG_MAX_AGE", 30),
		Compress:    getEnvBool("LOG_COMPRESS", true),
	}
}

// New creates a new Logger with the given configuration.
// Parameters:
//   - cfg: logger configuration; nil uses DefaultConfig.
// Returns:
//   - *Logger: initialized logger instance.
func New(cfg *Config) *Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetReportCaller(true)

	if strings.ToLower(cfg.Format) == "text" {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  "2006-01-02T15:04:05.000Z07:00",
			CallerPrettyfier: callerPrettyfier,
		})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
			CallerPrettyfier: callerPrettyfier,
		})
	}

	log.SetOutput(buildOutput(cfg))

	// Create base entry with service name
	entry := log.WithField("service", cfg.ServiceName)

	return &Logger{Entry: entry}
}

// NewDefault creates a new Logger using environment variable configuration.
// This is the recommended way to create a logger in main().
func NewDefault() *Logger {
	return New(nil)
}

// buildOutput selects stdout, a rotated file, or both based on configuration.
func buildOutput(cfg *Config) io.Writer {
	if cfg.Output != nil {
		return cfg.Output
	}

	var writers []io.Writer

	if cfg.Environment == "local" || !cfg.LogFileOnly {
		writers = append(writers, os.Stdout)
	}

	if cfg.Environment != "local" && cfg.LogFile != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		writers = append(writers, fileWriter)

		writerCloserMu.Lock()
		writerCloser = fileWriter
		writerCloserMu.Unlock()
	}

	if len(writers) == 0 {
		return os.Stdout
	}
	return io.MultiWriter(writers...)
}

// Sync flushes all pending logs and closes file handles.
// Should be called before program exit to ensure no logs are lost.
func Sync() error {
	writerCloserMu.Lock()
	defer writerCloserMu.Unlock()

	if writerCloser != nil {
		return writerCloser.Close()
	}
	return nil
}

// WithFields returns a new Logger with additional fields.
func (l *Logger) WithFields(fields Fields) *Logger {
	return &Logger{Entry: l.Entry.WithFields(logrus.Fields(fields))}
}

// WithField returns a new Logger with a single additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{Entry: l.Entry.WithField(key, value)}
}

// WithError returns a new Logger with an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Entry: l.Entry.WithError(err)}
}

// callerPrettyfier simplifies caller information to show only relative path and line number
func callerPrettyfier(frame *runtime.Frame) (function string, file string) {
	funcName := frame.Function
	if idx := strings.LastIndex(funcName, "/"); idx != -1 {
		funcName = funcName[idx+1:]
	}
	fileName := filepath.Base(frame.File)
	return funcName, fileName + ":" + strconv.Itoa(frame.Line)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}
