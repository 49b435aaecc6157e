package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"qwiktest/internal/config"
)

var (
	Logger   *slog.Logger
	logLevel = new(slog.LevelVar)
)

// Setup configures the package logger and installs it as the slog default.
func Setup(cfg config.LogConfig) error {
	switch strings.ToLower(cfg.Level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		return fmt.Errorf("invalid log level: %s", cfg.Level)
	}

	var writer io.Writer
	switch strings.ToLower(cfg.Output) {
	case "console":
		writer = os.Stdout
	case "file":
		fileWriter, err := openFile(cfg.FilePath)
		if err != nil {
			return err
		}
		writer = fileWriter
	case "both":
		fileWriter, err := openFile(cfg.FilePath)
		if err != nil {
			return err
		}
		writer = io.MultiWriter(os.Stdout, fileWriter)
	default:
		return fmt.Errorf("invalid log output: %s", cfg.Output)
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	switch strings.ToLower(cfg.Format) {
	case "json":
		Logger = slog.New(slog.NewJSONHandler(writer, opts))
	case "text":
		Logger = slog.New(slog.NewTextHandler(writer, opts))
	default:
		return fmt.Errorf("invalid log format: %s", cfg.Format)
	}
	slog.SetDefault(Logger)

	Info("logger initialized")
	return nil
}

func openFile(path string) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return file, nil
}

// GetLogger returns the configured logger, falling back to slog's default before Setup.
func GetLogger() *slog.Logger {
	if Logger == nil {
		return slog.Default()
	}
	return Logger
}

// With returns a logger carrying the given attributes.
func With(args ...any) *slog.Logger {
	return GetLogger().With(args...)
}

func Debug(args ...any) { GetLogger().Debug(fmt.Sprint(args...)) }

func Debugf(format string, args ...any) { GetLogger().Debug(fmt.Sprintf(format, args...)) }

func Info(args ...any) { GetLogger().Info(fmt.Sprint(args...)) }

func Infof(format string, args ...any) { GetLogger().Info(fmt.Sprintf(format, args...)) }

func Warn(args ...any) { GetLogger().Warn(fmt.Sprint(args...)) }

func Warnf(format string, args ...any) { GetLogger().Warn(fmt.Sprintf(format, args...)) }

func Error(args ...any) { GetLogger().Error(fmt.Sprint(args...)) }

func Errorf(format string, args ...any) { GetLogger().Error(fmt.Sprintf(format, args...)) }

func Fatal(args ...any) {
	GetLogger().Error(fmt.Sprint(args...))
	os.Exit(1)
}

func Fatalf(format string, args ...any) {
	GetLogger().Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
