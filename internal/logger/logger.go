package logger

import (
	"io"
	"os"
	"time"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/natefinch/lumberjack"
	logrus "github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"

	"fitforge/internal/config"
)

func rotator(filename string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    10, // megabytes
		MaxBackups: 7,
		MaxAge:     7, // days
		Compress:   true,
	}
}

// Setup points logrus at stdout and a rotating file. The returned closer
// flushes and closes the file at shutdown.
func Setup(cfg config.Log) io.Closer {
	file := rotator(cfg.File)

	logrus.SetOutput(io.MultiWriter(os.Stdout, file))
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	return file
}

// GormLogger routes gorm statements through logrus.
func GormLogger() gormlogger.Interface {
	level := gormlogger.Warn
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		level = gormlogger.Info
	}
	return gormlogger.New(logrus.StandardLogger(), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// AccessLog writes one line per request to its own rotating file.
func AccessLog(cfg config.Log) (gin.HandlerFunc, io.Closer) {
	file := rotator(cfg.AccessFile)
	return ginlog.SetLogger(
		ginlog.WithWriter(file),
		ginlog.WithUTC(true),
		ginlog.WithSkipPath([]string{"/health", "/metrics"}),
	), file
}
