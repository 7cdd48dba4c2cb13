package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

type Log interface {
	Debug(message string, args ...interface{})
	Info(message string, args ...interface{})
	Warn(message string, args ...interface{})
	Error(message string, args ...interface{})
	ErrorErr(message string, err error, args ...interface{})
	Fatal(message string, args ...interface{})
	FatalErr(message string, err error, args ...interface{})
}

type Logger struct {
	logger *zap.SugaredLogger
}

func New(env string) *Logger {
	var cfg zap.Config

	switch env {
	case envLocal:
		cfg = zap.NewDevelopmentConfig()
	case envDev:
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case envProd:
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewProductionConfig()
	}
	return FromZap(zap.Must(cfg.Build(zap.AddCallerSkip(1))))
}

func FromZap(l *zap.Logger) *Logger {
	return &Logger{logger: l.Sugar()}
}

func (l *Logger) Sync() {
	_ = l.logger.Sync()
}

func (l *Logger) Debug(message string, args ...interface{}) {
	l.logger.Debugw(message, redact(args)...)
}

func (l *Logger) Info(message string, args ...interface{}) {
	l.logger.Infow(message, redact(args)...)
}

func (l *Logger) Warn(message string, args ...interface{}) {
	l.logger.Warnw(message, redact(args)...)
}

func (l *Logger) Error(message string, args ...interface{}) {
	l.logger.Errorw(message, redact(args)...)
}

func (l *Logger) Fatal(message string, args ...interface{}) {
	l.logger.Fatalw(message, redact(args)...)
}

func (l *Logger) ErrorErr(message string, err error, args ...any) {
	l.logger.Errorw(message, append(redact(args), Err(err))...)
}

func (l *Logger) FatalErr(message string, err error, args ...any) {
	l.logger.Fatalw(message, append(redact(args), Err(err))...)
}

func Err(err error) zap.Field {
	if err == nil {
		return zap.Skip()
	}
	return zap.String("error", err.Error())
}

// redact blanks values of credential-like keys in a key/value list.
func redact(kv []interface{}) []interface{} {
	out := make([]interface{}, 0, len(kv))
	for i := 0; i < len(kv); i++ {
		key, ok := kv[i].(string)
		if !ok || i == len(kv)-1 {
			out = append(out, kv[i])
			continue
		}
		out = append(out, key)
		i++
		if sensitive(key) {
			out = append(out, "[REDACTED]")
		} else {
			out = append(out, kv[i])
		}
	}
	return out
}

func sensitive(key string) bool {
	key = strings.ToLower(key)
	for _, s := range []string{"password", "token", "secret", "authorization", "api_key"} {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}
