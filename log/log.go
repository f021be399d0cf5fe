package log

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger = logrus.New()

// Options 日志配置，File 为空时只输出到 stdout
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	JSON       bool
}

func init() {
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	logger.SetLevel(logrus.InfoLevel)
}

// Setup 根据配置重新设置输出、格式与级别
func Setup(opts Options) {
	level, err := logrus.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if opts.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
	}

	if opts.File != "" {
		rotate := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, rotate))
	}
}

func Logger() *logrus.Logger { return logger }

func Writer() *io.PipeWriter { return logger.Writer() }

func WithField(key string, value interface{}) *logrus.Entry {
	return logger.WithField(key, value)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return logger.WithFields(fields)
}

func Debug(args ...interface{}) { logger.Debug(args...) }

func Debugf(format string, args ...interface{}) { logger.Debugf(format, args...) }

func Info(args ...interface{}) { logger.Info(args...) }

func Infof(format string, args ...interface{}) { logger.Infof(format, args...) }

func Warn(args ...interface{}) { logger.Warn(args...) }

func Warnf(format string, args ...interface{}) { logger.Warnf(format, args...) }

func Error(args ...interface{}) { logger.Error(args...) }

func Errorf(format string, args ...interface{}) { logger.Errorf(format, args...) }

func Fatal(args ...interface{}) { logger.Fatal(args...) }

func Fatalf(format string, args ...interface{}) { logger.Fatalf(format, args...) }
