package runtime

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogSink is the process-wide log destination: stderr, optionally tee'd to a rotating file.
type LogSink struct {
	w    io.Writer
	file *lumberjack.Logger
}

// NewLogSink builds a sink. An empty path logs to stderr only.
func NewLogSink(path string) *LogSink {
	if path == "" {
		return &LogSink{w: os.Stderr}
	}
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    15, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	return &LogSink{w: io.MultiWriter(os.Stderr, file), file: file}
}

// Writer returns the underlying destination.
func (s *LogSink) Writer() io.Writer { return s.w }

// Logger returns a component logger writing with the given prefix, e.g. "[HTTP] ".
func (s *LogSink) Logger(prefix string) *log.Logger {
	return log.New(s.w, prefix, log.LstdFlags)
}

// Close flushes and closes the rotating file, if any.
func (s *LogSink) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	return s.file.Close()
}
