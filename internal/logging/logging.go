package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level represents a logging level
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	PROGRESS // Special level that always displays
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case PROGRESS:
		return "PROGRESS"
	default:
		return "UNKNOWN"
	}
}

// Format represents the log output format
type Format int

const (
	Text Format = iota
	JSON
)

// Logger handles structured logging
type Logger struct {
	out         io.Writer
	level       Level
	format      Format
	lastLogTime time.Time
	logMutex    sync.RWMutex
}

// LogConfig contains logger configuration
type LogConfig struct {
	Level  Level
	Format Format
}

var (
	defaultLogger = &Logger{
		out:         os.Stdout,
		level:       INFO,
		format:      Text,
		lastLogTime: time.Now(),
		logMutex:    sync.RWMutex{},
	}

	// Color definitions
	debugColor    = color.New(color.FgCyan)
	infoColor     = color.New(color.FgGreen)
	warnColor     = color.New(color.FgYellow)
	errorColor    = color.New(color.FgRed)
	progressColor = color.New(color.FgBlue, color.Bold)
)

// New creates a logger writing to out
func New(out io.Writer, config LogConfig) *Logger {
	return &Logger{
		out:         out,
		level:       config.Level,
		format:      config.Format,
		lastLogTime: time.Now(),
	}
}

// Configure sets up the default logger
func Configure(config LogConfig) {
	defaultLogger.level = config.Level
	defaultLogger.format = config.Format
}

// ParseLevel converts a level name such as "debug" or "WARN" into a Level
func ParseLevel(name string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return DEBUG, nil
	case "", "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("invalid log level %q: must be one of DEBUG, INFO, WARN, ERROR", name)
	}
}

// ParseFormat converts "text" or "json" into a Format
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text":
		return Text, nil
	case "json":
		return JSON, nil
	default:
		return Text, fmt.Errorf("invalid log format %q: must be text or json", name)
	}
}

type logEntry struct {
	Timestamp string      `json:"timestamp"`
	Level     string      `json:"level"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
}

func (l *Logger) log(level Level, msg string, data interface{}) {
	// Always show PROGRESS level, otherwise respect level setting
	if level != PROGRESS && level < l.level {
		return
	}

	// Update last log time for non-PROGRESS logs
	if level != PROGRESS {
		l.logMutex.Lock()
		l.lastLogTime = time.Now()
		l.logMutex.Unlock()
	}

	timestamp := time.Now().Format("2006/01/02 15:04:05")

	if l.format == JSON {
		entry := logEntry{
			Timestamp: timestamp,
			Level:     level.String(),
			Message:   msg,
			Data:      data,
		}
		if err := json.NewEncoder(l.out).Encode(entry); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode log entry: %v\n", err)
		}
		return
	}

	// Text format
	var levelColor *color.Color
	switch level {
	case DEBUG:
		levelColor = debugColor
	case INFO:
		levelColor = infoColor
	case WARN:
		levelColor = warnColor
	case ERROR:
		levelColor = errorColor
	case PROGRESS:
		levelColor = progressColor
	default:
		levelColor = infoColor
	}

	levelStr := levelColor.Sprintf("%-5s", level.String())
	fmt.Fprintf(l.out, "%s %s: %s", timestamp, levelStr, msg)
	if data != nil {
		fmt.Fprintf(l.out, " %+v", data)
	}
	fmt.Fprintln(l.out)
}

func (l *Logger) Debug(msg string, data ...interface{}) {
	l.log(DEBUG, msg, firstOrNil(data))
}

func (l *Logger) Info(msg string, data ...interface{}) {
	l.log(INFO, msg, firstOrNil(data))
}

func (l *Logger) Warn(msg string, data ...interface{}) {
	l.log(WARN, msg, firstOrNil(data))
}

func (l *Logger) Error(msg string, err error, data ...interface{}) {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	l.log(ERROR, msg, firstOrNil(data))
}

func (l *Logger) Progress(msg string, data interface{}) {
	l.log(PROGRESS, msg, data)
}

// firstOrNil returns the first element of data if present, nil otherwise
func firstOrNil(data []interface{}) interface{} {
	if len(data) > 0 {
		return data[0]
	}
	return nil
}

// EstimateStart logs the start of an estimate run
func (l *Logger) EstimateStart(runID string, targets []string, window string) {
	l.Info("Starting estimate operation", map[string]interface{}{
		"run_id":  runID,
		"targets": targets,
		"window":  window,
	})
}

// BatchStart logs the start of one account/region batch
func (l *Logger) BatchStart(accountID, region string) {
	l.Info("Starting batch", map[string]interface{}{
		"account_id": accountID,
		"region":     region,
	})
}

// BatchComplete logs the completion of one account/region batch
func (l *Logger) BatchComplete(accountID, region string, instanceCount int) {
	l.Info("Batch completed", map[string]interface{}{
		"account_id":     accountID,
		"region":         region,
		"instance_count": instanceCount,
	})
}

// BatchError logs the step that caused an account/region batch to be skipped
func (l *Logger) BatchError(accountID, region, operation string, err error) {
	data := map[string]interface{}{
		"account_id": accountID,
		"region":     region,
		"operation":  operation,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	l.Warn("Batch skipped", data)
}

// EstimateComplete logs the fleet totals of an estimate run
func (l *Logger) EstimateComplete(batches, failed, included, excluded int) {
	l.Info("Estimate operation complete", map[string]interface{}{
		"batches":  batches,
		"failed":   failed,
		"included": included,
		"excluded": excluded,
	})
}

// GetLastLogTime returns the time of the last non-PROGRESS log
func (l *Logger) GetLastLogTime() time.Time {
	l.logMutex.RLock()
	defer l.logMutex.RUnlock()
	return l.lastLogTime
}

// GetLastLogTime returns the time of the last non-PROGRESS log using the default logger
func GetLastLogTime() time.Time {
	return defaultLogger.GetLastLogTime()
}

// Default logger methods
func Debug(msg string, data ...interface{}) {
	defaultLogger.Debug(msg, data...)
}

func Info(msg string, data ...interface{}) {
	defaultLogger.Info(msg, data...)
}

func Warn(msg string, data ...interface{}) {
	defaultLogger.Warn(msg, data...)
}

func Error(msg string, err error, data ...interface{}) {
	defaultLogger.Error(msg, err, data...)
}

func Progress(msg string, data ...interface{}) {
	defaultLogger.Progress(msg, firstOrNil(data))
}

func EstimateStart(runID string, targets []string, window string) {
	defaultLogger.EstimateStart(runID, targets, window)
}

func BatchStart(accountID, region string) {
	defaultLogger.BatchStart(accountID, region)
}

func BatchComplete(accountID, region string, instanceCount int) {
	defaultLogger.BatchComplete(accountID, region, instanceCount)
}

func BatchError(accountID, region, operation string, err error) {
	defaultLogger.BatchError(accountID, region, operation, err)
}

func EstimateComplete(batches, failed, included, excluded int) {
	defaultLogger.EstimateComplete(batches, failed, included, excluded)
}
