package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config 日志配置
type Config struct {
	Debug  bool
	Format string // "console" 或 "json"
	Output io.Writer
}

var (
	mu   sync.RWMutex
	base = newLogger(Config{Format: "console"})
)

func newLogger(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if !strings.EqualFold(cfg.Format, "json") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime, NoColor: true}
	}
	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// Init 按配置重建全局 logger，可重复调用
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	base = newLogger(cfg)
}

// SetDebug 设置是否开启调试模式
func SetDebug(debug bool) {
	mu.Lock()
	defer mu.Unlock()
	if debug {
		base = base.Level(zerolog.DebugLevel)
	} else {
		base = base.Level(zerolog.InfoLevel)
	}
}

// L 返回当前的全局 logger
func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := base
	return &l
}

// With 返回带 component 字段的子 logger
func With(component string) zerolog.Logger {
	return L().With().Str("component", component).Logger()
}

// Info 打印信息日志
func Info(format string, v ...interface{}) {
	L().Info().Msgf(format, v...)
}

// Debug 打印调试日志
func Debug(format string, v ...interface{}) {
	L().Debug().Msgf(format, v...)
}

// Error 打印错误日志
func Error(format string, v ...interface{}) {
	L().Error().Msgf(format, v...)
}

// Fatal 打印错误日志并退出
func Fatal(format string, v ...interface{}) {
	L().Fatal().Msgf(format, v...)
}
