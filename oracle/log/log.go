package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	tmlog "github.com/tendermint/tendermint/libs/log"
)

var (
	mu        sync.RWMutex
	customLog = newLogger(os.Stdout, tmlog.AllowInfo())
	logFile   *os.File
)

func newLogger(w io.Writer, level tmlog.Option) tmlog.Logger {
	return tmlog.NewFilter(tmlog.NewTMLogger(tmlog.NewSyncWriter(w)), level).With("module", "oracled")
}

// InitLogger logs to stdout at the given level (debug, info, error or none).
func InitLogger(level string) error {
	option, err := tmlog.AllowLevel(level)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	customLog = newLogger(os.Stdout, option)
	return nil
}

// SetOutput redirects logs to w at the given level.
func SetOutput(w io.Writer, level string) error {
	option, err := tmlog.AllowLevel(level)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	customLog = newLogger(w, option)
	return nil
}

// ResetLogger redirects logs to <home>/logs/<binary>.<pid>.log.
func ResetLogger(oracleHome, level string) (string, error) {
	if oracleHome == "" {
		osHome, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		oracleHome = filepath.Join(osHome, ".oracled")
	}
	dir := filepath.Join(oracleHome, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	name := fmt.Sprintf("%s.%d.log", filepath.Base(os.Args[0]), os.Getpid())
	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create log file: %w", err)
	}

	Infof("From now on, all logs will be written to %s", path)
	if err := SetOutput(file, level); err != nil {
		file.Close()
		return "", err
	}

	mu.Lock()
	if logFile != nil {
		logFile.Close()
	}
	logFile = file
	mu.Unlock()
	return path, nil
}

// Logger returns the underlying structured logger.
func Logger() tmlog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return customLog
}

func Debug(v ...any) {
	Logger().Debug(fmt.Sprint(v...))
}

func Debugf(format string, v ...any) {
	Logger().Debug(fmt.Sprintf(format, v...))
}

func Info(v ...any) {
	Logger().Info(fmt.Sprint(v...))
}

func Infof(format string, v ...any) {
	Logger().Info(fmt.Sprintf(format, v...))
}

func Error(v ...any) {
	Logger().Error(fmt.Sprint(v...))
}

func Errorf(format string, v ...any) {
	Logger().Error(fmt.Sprintf(format, v...))
}

func Fatal(v ...any) {
	Logger().Error(fmt.Sprint(v...))
	os.Exit(1)
}

func Fatalf(format string, v ...any) {
	Logger().Error(fmt.Sprintf(format, v...))
	os.Exit(1)
}
