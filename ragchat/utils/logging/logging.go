package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Loggers are no-ops until InitLogger runs.
var (
	AppLogger     = zap.NewNop()
	RequestLogger = zap.NewNop()
	TimerLogger   = zap.NewNop()
	ErrorLogger   = zap.NewNop()
)

type logFile struct {
	name   string
	size   int
	age    int
	level  zapcore.Level
	target **zap.Logger
}

// InitLogger points every logger at its rotated file under dir.
func InitLogger(dir string) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("create logs directory: %w", err)
	}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)

	files := []logFile{
		{name: "app.log", size: 100, age: 28, level: zap.InfoLevel, target: &AppLogger},
		{name: "request.log", size: 50, age: 7, level: zap.InfoLevel, target: &RequestLogger},
		{name: "timer.log", size: 50, age: 7, level: zap.InfoLevel, target: &TimerLogger},
		{name: "error.log", size: 100, age: 30, level: zap.ErrorLevel, target: &ErrorLogger},
	}
	for _, f := range files {
		core := zapcore.NewCore(encoder,
			zapcore.AddSync(&lumberjack.Logger{
				Filename: filepath.Join(dir, f.name), MaxSize: f.size, MaxAge: f.age, Compress: true,
			}),
			f.level,
		)
		*f.target = zap.New(core)
	}
	return nil
}

// Sync flushes buffered entries; call before exit.
func Sync() {
	for _, l := range []*zap.Logger{AppLogger, RequestLogger, TimerLogger, ErrorLogger} {
		_ = l.Sync()
	}
}

// LogDuration lets you do: defer logging.LogDuration(ctx, "FuncName")()
func LogDuration(ctx context.Context, name string) func() {
	start := time.Now()
	reqID := middleware.GetReqID(ctx)

	return func() {
		fields := []zap.Field{
			zap.String("func", name),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if reqID != "" {
			fields = append(fields, zap.String("request_id", reqID))
		}
		TimerLogger.Info("Function timed", fields...)
	}
}
