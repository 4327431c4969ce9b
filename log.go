package goelastic

import (
	"context"
	"io"
	"os"
	"strings"

	rlog "github.com/sirupsen/logrus"
)

type contextKey string

// ESRequestIDKey is context key of the request id sent as X-Opaque-Id
const ESRequestIDKey contextKey = "LOG_REQUEST_ID"

// ESConnectionIDKey is context key of the connection id
const ESConnectionIDKey contextKey = "LOG_CONNECTION_ID"

// LogKeys these keys are pulled from ctx and included in log messages
var LogKeys = []contextKey{ESRequestIDKey, ESConnectionIDKey}

// ElasticLogger is the logger interface of the driver. It exposes the field
// logger defined in logrus.
type ElasticLogger interface {
	rlog.Ext1FieldLogger
	SetLogLevel(level string) error
	GetLogLevel() string
	WithContext(ctx context.Context) *rlog.Entry
	SetOutput(output io.Writer)
}

// SetLogger sets a new logger of ElasticLogger interface for goelastic.
func SetLogger(inLogger ElasticLogger) {
	logger = inLogger
}

// GetLogger returns the logger used by the driver.
func GetLogger() ElasticLogger {
	return logger
}

// CreateDefaultLogger returns a new instance of ElasticLogger with the default config.
func CreateDefaultLogger() ElasticLogger {
	var rLogger = rlog.New()
	rLogger.SetFormatter(&maskingFormatter{inner: &rlog.TextFormatter{}})
	rLogger.SetOutput(os.Stderr)
	rLogger.SetLevel(rlog.ErrorLevel)
	return &defaultLogger{inner: rLogger}
}

type defaultLogger struct {
	inner *rlog.Logger
}

// SetLogLevel sets the log level, e.g. "info" or "debug".
func (log *defaultLogger) SetLogLevel(level string) error {
	actualLevel, err := rlog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return err
	}
	log.inner.SetLevel(actualLevel)
	return nil
}

func (log *defaultLogger) GetLogLevel() string {
	return log.inner.GetLevel().String()
}

// WithContext returns an entry carrying the values of LogKeys found in ctx.
func (log *defaultLogger) WithContext(ctx context.Context) *rlog.Entry {
	fields := context2Fields(ctx)
	return log.inner.WithFields(*fields)
}

func (log *defaultLogger) SetOutput(output io.Writer) {
	log.inner.SetOutput(output)
}

func (log *defaultLogger) WithField(key string, value interface{}) *rlog.Entry {
	return log.inner.WithField(key, value)
}

func (log *defaultLogger) WithFields(fields rlog.Fields) *rlog.Entry {
	return log.inner.WithFields(fields)
}

func (log *defaultLogger) WithError(err error) *rlog.Entry {
	return log.inner.WithError(err)
}

func (log *defaultLogger) Tracef(format string, args ...interface{}) {
	log.inner.Tracef(format, args...)
}

func (log *defaultLogger) Debugf(format string, args ...interface{}) {
	log.inner.Debugf(format, args...)
}

func (log *defaultLogger) Infof(format string, args ...interface{}) {
	log.inner.Infof(format, args...)
}

func (log *defaultLogger) Printf(format string, args ...interface{}) {
	log.inner.Printf(format, args...)
}

func (log *defaultLogger) Warnf(format string, args ...interface{}) {
	log.inner.Warnf(format, args...)
}

func (log *defaultLogger) Warningf(format string, args ...interface{}) {
	log.inner.Warningf(format, args...)
}

func (log *defaultLogger) Errorf(format string, args ...interface{}) {
	log.inner.Errorf(format, args...)
}

func (log *defaultLogger) Fatalf(format string, args ...interface{}) {
	log.inner.Fatalf(format, args...)
}

func (log *defaultLogger) Panicf(format string, args ...interface{}) {
	log.inner.Panicf(format, args...)
}

func (log *defaultLogger) Trace(args ...interface{}) {
	log.inner.Trace(args...)
}

func (log *defaultLogger) Debug(args ...interface{}) {
	log.inner.Debug(args...)
}

func (log *defaultLogger) Info(args ...interface{}) {
	log.inner.Info(args...)
}

func (log *defaultLogger) Print(args ...interface{}) {
	log.inner.Print(args...)
}

func (log *defaultLogger) Warn(args ...interface{}) {
	log.inner.Warn(args...)
}

func (log *defaultLogger) Warning(args ...interface{}) {
	log.inner.Warning(args...)
}

func (log *defaultLogger) Error(args ...interface{}) {
	log.inner.Error(args...)
}

func (log *defaultLogger) Fatal(args ...interface{}) {
	log.inner.Fatal(args...)
}

func (log *defaultLogger) Panic(args ...interface{}) {
	log.inner.Panic(args...)
}

func (log *defaultLogger) Traceln(args ...interface{}) {
	log.inner.Traceln(args...)
}

func (log *defaultLogger) Debugln(args ...interface{}) {
	log.inner.Debugln(args...)
}

func (log *defaultLogger) Infoln(args ...interface{}) {
	log.inner.Infoln(args...)
}

func (log *defaultLogger) Println(args ...interface{}) {
	log.inner.Println(args...)
}

func (log *defaultLogger) Warnln(args ...interface{}) {
	log.inner.Warnln(args...)
}

func (log *defaultLogger) Warningln(args ...interface{}) {
	log.inner.Warningln(args...)
}

func (log *defaultLogger) Errorln(args ...interface{}) {
	log.inner.Errorln(args...)
}

func (log *defaultLogger) Fatalln(args ...interface{}) {
	log.inner.Fatalln(args...)
}

func (log *defaultLogger) Panicln(args ...interface{}) {
	log.inner.Panicln(args...)
}

// maskingFormatter masks secrets in the message and in string fields.
type maskingFormatter struct {
	inner rlog.Formatter
}

func (f *maskingFormatter) Format(entry *rlog.Entry) ([]byte, error) {
	masked := entry.Dup()
	masked.Level = entry.Level
	masked.Message = maskSecrets(entry.Message)
	for k, v := range masked.Data {
		if s, ok := v.(string); ok {
			masked.Data[k] = maskSecrets(s)
		}
	}
	return f.inner.Format(masked)
}

func context2Fields(ctx context.Context) *rlog.Fields {
	var fields = rlog.Fields{}
	if ctx == nil {
		return &fields
	}
	for i := 0; i < len(LogKeys); i++ {
		if ctx.Value(LogKeys[i]) != nil {
			fields[string(LogKeys[i])] = ctx.Value(LogKeys[i])
		}
	}
	return &fields
}

var logger = CreateDefaultLogger()
