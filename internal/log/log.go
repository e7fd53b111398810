package log

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger = discardLogger()
	once   sync.Once
)

const RequestIDKey = "request_id"

type Fields = logrus.Fields

type Options struct {
	// Dir receives rotated log files. The terminal belongs to the UI, so
	// nothing is written to stderr.
	Dir   string
	Level string
}

// Init configures the process logger once. Later calls return the same logger.
// With ATLAS_ENV=test everything is discarded.
func Init(opts Options) *logrus.Logger {
	once.Do(func() {
		l := logrus.New()

		level, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			level = logrus.InfoLevel
		}
		l.SetLevel(level)

		l.SetFormatter(&formatter.Formatter{
			NoColors:        true,
			TimestampFormat: "02 Jan 06 - 15:04:05",
			HideKeys:        false,
			CallerFirst:     true,
			CustomCallerFormatter: func(f *runtime.Frame) string {
				s := strings.Split(f.Function, ".")
				funcName := s[len(s)-1]
				return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, funcName)
			},
		})

		var out io.Writer = io.Discard
		if os.Getenv("ATLAS_ENV") != "test" && opts.Dir != "" {
			out = &lumberjack.Logger{
				Filename:   filepath.Join(opts.Dir, fmt.Sprintf("atlas-%s.log", time.Now().Format("2006-01-02"))),
				LocalTime:  true,
				Compress:   true,
				MaxSize:    20,
				MaxAge:     7,
				MaxBackups: 3,
			}
		}
		l.SetOutput(out)
		l.SetReportCaller(true)

		logger = l
	})

	return logger
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// L returns the process logger.
func L() *logrus.Logger {
	return logger
}

func Debug(fields Fields, msg string) {
	logger.WithFields(orEmpty(fields)).Debug(msg)
}

func Info(fields Fields, msg string) {
	logger.WithFields(orEmpty(fields)).Info(msg)
}

func Warn(fields Fields, msg string) {
	logger.WithFields(orEmpty(fields)).Warn(msg)
}

func Error(fields Fields, msg string) {
	logger.WithFields(orEmpty(fields)).Error(msg)
}

func orEmpty(fields Fields) Fields {
	if fields == nil {
		return Fields{}
	}
	return fields
}
