// Package logger wraps op/go-logging for the agri-intel server: a console or
// syslog backend at the configured level and a file backend that always keeps
// DEBUG output.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/agriintel/agri-intel/config"
	"github.com/op/go-logging"
)

const (
	module      = "agri-intel"
	logFileName = "agri-intel.log"
	timeFormat  = "2006/01/02 15:04:05"
)

var (
	mu      sync.RWMutex
	logger  *logging.Logger
	logFile *os.File
)

// InitLogger installs the console/syslog and file backends. The file backend
// is skipped when the log folder cannot be created.
func InitLogger(level logging.Level) {
	newLogger := logging.MustGetLogger(module)
	backends := make([]logging.Backend, 0, 2)

	if consoleBackend := initDefaultBackend(); consoleBackend != nil {
		leveled := logging.AddModuleLevel(consoleBackend)
		leveled.SetLevel(level, module)
		backends = append(backends, leveled)
	}

	if fileBackend := initFileBackend(); fileBackend != nil {
		leveled := logging.AddModuleLevel(fileBackend)
		leveled.SetLevel(logging.DEBUG, module)
		backends = append(backends, leveled)
	}

	newLogger.SetBackend(logging.MultiLogger(backends...))

	mu.Lock()
	logger = newLogger
	mu.Unlock()
}

// ParseLevel maps a config log level onto a go-logging level.
func ParseLevel(level config.LogLevel) (logging.Level, error) {
	switch level {
	case config.Debug:
		return logging.DEBUG, nil
	case config.Info:
		return logging.INFO, nil
	case config.Notice:
		return logging.NOTICE, nil
	case config.Warn:
		return logging.WARNING, nil
	case config.Error:
		return logging.ERROR, nil
	}
	return logging.INFO, fmt.Errorf("unknown log level: %s", level)
}

func initDefaultBackend() logging.Backend {
	var backend logging.Backend
	includeTime := false

	if runtime.GOOS == "windows" {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
		includeTime = true
	} else if syslogBackend, err := logging.NewSyslogBackend(""); err != nil {
		fmt.Fprintf(os.Stderr, "syslog backend disabled: %v\n", err)
		backend = logging.NewLogBackend(os.Stderr, "", 0)
		includeTime = os.Getppid() > 0
	} else {
		backend = syslogBackend
	}

	return logging.NewBackendFormatter(backend, newFormatter(includeTime))
}

func initFileBackend() logging.Backend {
	logDir := config.GetLogFolder()
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log folder %s: %v\n", logDir, err)
		return nil
	}

	logPath := filepath.Join(logDir, logFileName)
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o660)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", logPath, err)
		return nil
	}

	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = file

	backend := logging.NewLogBackend(file, "", 0)
	return logging.NewBackendFormatter(backend, newFormatter(true))
}

func newFormatter(withTime bool) logging.Formatter {
	format := `%{level} - %{message}`
	if withTime {
		format = `%{time:` + timeFormat + `} %{level} - %{message}`
	}
	return logging.MustStringFormatter(format)
}

// CloseLogger closes the log file. Should be called during shutdown.
func CloseLogger() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

// current returns the installed logger, or a stderr logger when InitLogger
// has not run yet (tests and short CLI commands).
func current() *logging.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		l := logging.MustGetLogger(module)
		backend := logging.NewBackendFormatter(logging.NewLogBackend(os.Stderr, "", 0), newFormatter(true))
		leveled := logging.AddModuleLevel(backend)
		leveled.SetLevel(logging.WARNING, module)
		l.SetBackend(leveled)
		logger = l
	}
	return logger
}

func Debug(args ...any) { current().Debug(args...) }

func Debugf(format string, args ...any) { current().Debugf(format, args...) }

func Info(args ...any) { current().Info(args...) }

func Infof(format string, args ...any) { current().Infof(format, args...) }

func Notice(args ...any) { current().Notice(args...) }

func Noticef(format string, args ...any) { current().Noticef(format, args...) }

func Warning(args ...any) { current().Warning(args...) }

func Warningf(format string, args ...any) { current().Warningf(format, args...) }

func Error(args ...any) { current().Error(args...) }

func Errorf(format string, args ...any) { current().Errorf(format, args...) }
