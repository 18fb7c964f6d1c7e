package logging

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// rotating file writers, keyed by absolute path so repeated NewLogger calls share one file handle
var (
	fileWriters   = map[string]*lumberjack.Logger{}
	fileWritersMu sync.Mutex
)

func terminalSyncer() zapcore.WriteSyncer {
	return zapcore.Lock(zapcore.AddSync(os.Stderr))
}

// fileSyncer returns a lumberjack-backed syncer for Director/FileName.
func fileSyncer(config Config) zapcore.WriteSyncer {
	path := filepath.Join(config.Director, config.FileName)
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	fileWritersMu.Lock()
	defer fileWritersMu.Unlock()

	if w, ok := fileWriters[path]; ok {
		return zapcore.AddSync(w)
	}

	// lumberjack creates the directory lazily, but an early failure here is easier to spot
	_ = os.MkdirAll(config.Director, 0755)

	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
		LocalTime:  true,
	}
	fileWriters[path] = w
	return zapcore.AddSync(w)
}

// CloseAllWriters closes every rotating file opened by NewLogger.
func CloseAllWriters() error {
	fileWritersMu.Lock()
	defer fileWritersMu.Unlock()

	var lastErr error
	for path, w := range fileWriters {
		if err := w.Close(); err != nil {
			lastErr = err
		}
		delete(fileWriters, path)
	}
	return lastErr
}
