// Package logging 提供进程级结构化日志
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var base = zap.NewNop().Sugar()

// Init 配置进程级日志器：控制台输出，path非空时额外写入滚动日志文件
func Init(level, path string) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(os.Stdout), lvl),
	}
	if path != "" {
		rotated := zapcore.AddSync(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), rotated, lvl))
	}

	base = zap.New(zapcore.NewTee(cores...)).Sugar()
}

// L 返回进程日志器；Init之前返回空日志器
func L() *zap.SugaredLogger {
	return base
}

// Sync 刷新缓冲的日志
func Sync() {
	_ = base.Sync()
}
