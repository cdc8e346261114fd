package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
)

// LogConfig controls where log lines go. An empty File logs to stderr.
type LogConfig struct {
	File       string
	MaxSizeMB  int
	MaxAgeDays int
	Debug      bool
}

const (
	defaultMaxSizeMB  = 100
	defaultMaxAgeDays = 7
)

var (
	mu           sync.RWMutex
	logger       = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lmicroseconds)
	debugEnabled = false
	rotator      *lumberjack.Logger
)

// Init reconfigures the package logger. It may be called more than once; a previously
// opened log file is closed.
func Init(cfg LogConfig) {
	mu.Lock()
	defer mu.Unlock()

	if rotator != nil {
		_ = rotator.Close()
		rotator = nil
	}

	var out io.Writer = os.Stderr
	if cfg.File != "" {
		maxSize := cfg.MaxSizeMB
		if maxSize <= 0 {
			maxSize = defaultMaxSizeMB
		}
		maxAge := cfg.MaxAgeDays
		if maxAge <= 0 {
			maxAge = defaultMaxAgeDays
		}
		rotator = &lumberjack.Logger{
			Filename: cfg.File,
			MaxSize:  maxSize, // megabytes
			MaxAge:   maxAge,  // days
		}
		out = rotator
	}

	logger = log.New(out, "", log.Ldate|log.Ltime|log.Lmicroseconds)
	debugEnabled = cfg.Debug
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = log.New(w, "", log.Ldate|log.Ltime|log.Lmicroseconds)
}

func write(level, color, category string, content ...interface{}) {
	message := fmt.Sprint(content...)
	coloredCategory := fmt.Sprintf("%s[%s][%s]%s", color, level, category, ColorReset)

	mu.RLock()
	l := logger
	mu.RUnlock()
	l.Printf("%s: %s", coloredCategory, message)
}

func Info(category string, content ...interface{}) {
	write("INFO", ColorGreen, category, content...)
}

func Error(category string, content ...interface{}) {
	write("ERROR", ColorRed, category, content...)
}

func Warn(category string, content ...interface{}) {
	write("WARN", ColorYellow, category, content...)
}

func Debug(category string, content ...interface{}) {
	mu.RLock()
	enabled := debugEnabled
	mu.RUnlock()
	if !enabled {
		return
	}
	write("DEBUG", ColorBlue, category, content...)
}

// Errorf logs an error message and returns a formatted error
func Errorf(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	Error("ERROR", err.Error())
	return err
}
