package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Level is the severity of a log entry.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the label written into log entries.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel converts a level name (debug, info, warn, error) to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger writes component-tagged entries to the session log file.
// All loggers of one process share a session ID and therefore one file.
type Logger struct {
	sessionID string
	component string
	file      *os.File
	logger    *log.Logger
	mu        sync.Mutex
	logPath   string
	closeOnce sync.Once
}

var (
	// Global session ID for the current execution
	sessionID     string
	sessionIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string

	// initOnce ensures directory initialization happens once
	initOnce sync.Once

	// initErr stores any error from directory initialization
	initErr error

	// minLevel is shared by every logger; entries below it are dropped
	minLevel atomic.Int32
)

func init() {
	minLevel.Store(int32(LevelDebug))
}

// SetLevel sets the minimum level written by all loggers.
func SetLevel(level Level) {
	minLevel.Store(int32(level))
}

// CurrentLevel returns the minimum level written by all loggers.
func CurrentLevel() Level {
	return Level(minLevel.Load())
}

// getSessionID returns or creates the session ID for this execution
func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

// initLogDirectory ensures the log directory exists. CHATBOT_LOG_DIR overrides
// the default ~/.superchargedchatbot/logs location.
func initLogDirectory() error {
	initOnce.Do(func() {
		if dir := os.Getenv("CHATBOT_LOG_DIR"); dir != "" {
			logDir = dir
		} else if logDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				initErr = fmt.Errorf("failed to get home directory: %w", err)
				return
			}
			logDir = filepath.Join(homeDir, ".superchargedchatbot", "logs")
		}

		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
			return
		}
	})
	return initErr
}

// NewLogger creates a new logger for a specific component.
// The logger writes to <log dir>/<session-id>-chatbot.log
//
// If the log directory cannot be created or the log file cannot be opened,
// it returns a fallback logger that writes to stderr along with the error.
func NewLogger(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, err), err
	}

	sessID := getSessionID()
	logPath := filepath.Join(logDir, fmt.Sprintf("%s-chatbot.log", sessID))

	// Open log file in append mode (multiple components may write to same file)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return newFallbackLogger(component, fmt.Errorf("failed to open log file: %w", err)), err
	}

	return &Logger{
		sessionID: sessID,
		component: component,
		file:      file,
		logger:    log.New(file, "", 0),
		logPath:   logPath,
	}, nil
}

// MustComponent returns a logger for the component, warning on the returned
// logger itself when file logging is unavailable. It never returns nil.
func MustComponent(component string) *Logger {
	l, err := NewLogger(component)
	if err != nil {
		l.Warnf("Failed to initialize %s logger, using stderr fallback: %v", component, err)
	}
	return l
}

// newFallbackLogger creates a logger that writes to stderr when file logging fails
func newFallbackLogger(component string, err error) *Logger {
	logger := log.New(os.Stderr, fmt.Sprintf("[%s] ", component), log.LstdFlags)
	logger.Printf("WARNING: Failed to initialize file logging: %v", err)

	return &Logger{
		sessionID: getSessionID(),
		component: component,
		logger:    logger,
	}
}

// NewWriterLogger creates a logger that writes to w instead of the session
// file. Used by tests and by callers that want logs on a terminal.
func NewWriterLogger(component string, w io.Writer) *Logger {
	return &Logger{
		sessionID: getSessionID(),
		component: component,
		logger:    log.New(w, "", 0),
	}
}

// formatLogEntry creates a structured log entry with timestamp, component, and level
func (l *Logger) formatLogEntry(level Level, message string) string {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	return fmt.Sprintf("[%s] [%s] [%s] %s", timestamp, l.component, level, message)
}

func (l *Logger) write(level Level, format string, v ...interface{}) {
	if level < CurrentLevel() {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logger.Println(l.formatLogEntry(level, fmt.Sprintf(format, v...)))
}

// Printf logs a formatted message at INFO level
func (l *Logger) Printf(format string, v ...interface{}) {
	l.write(LevelInfo, format, v...)
}

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.write(LevelDebug, format, v...)
}

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) {
	l.write(LevelInfo, format, v...)
}

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) {
	l.write(LevelWarn, format, v...)
}

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.write(LevelError, format, v...)
}

// SessionID returns the current session ID
func (l *Logger) SessionID() string {
	return l.sessionID
}

// LogPath returns the path to the log file, empty for stderr or writer loggers
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// GetSessionID returns the current global session ID
func GetSessionID() string {
	return getSessionID()
}

