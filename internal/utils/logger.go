package utils

import (
	"io"
	"log"
	"os"
	"sync"
)

var (
	VerboseLogging = false
	logger         = log.New(os.Stdout, "", log.LstdFlags)
	logMu          sync.Mutex
)

// SetVerboseLogging sets the global verbose logging flag
func SetVerboseLogging(verbose bool) {
	logMu.Lock()
	defer logMu.Unlock()
	VerboseLogging = verbose
}

// SetOutput redirects the logger and the standard log package. The terminal
// UI points both away from stdout while it owns the screen.
func SetOutput(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	logger.SetOutput(w)
	log.SetOutput(w)
}

// OpenLogFile opens path for appending and redirects all logging to it.
// An empty path discards log output instead.
func OpenLogFile(path string) (io.Closer, error) {
	if path == "" {
		SetOutput(io.Discard)
		return nopCloser{}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	SetOutput(f)
	return f, nil
}

func verbose() bool {
	logMu.Lock()
	defer logMu.Unlock()
	return VerboseLogging
}

// LogInfo logs informational messages only if verbose logging is enabled
func LogInfo(format string, args ...interface{}) {
	if verbose() {
		logger.Printf("[INFO] "+format, args...)
	}
}

// LogError logs error messages (always shown)
func LogError(format string, args ...interface{}) {
	logger.Printf("[ERROR] "+format, args...)
}

// LogWarning logs warning messages (always shown)
func LogWarning(format string, args ...interface{}) {
	logger.Printf("[WARNING] "+format, args...)
}

// LogSuccess logs success messages (always shown)
func LogSuccess(format string, args ...interface{}) {
	logger.Printf("[SUCCESS] "+format, args...)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
