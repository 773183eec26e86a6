/* Copyright 2025 Userhub Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package log provides interfaces to write structured logs
package log

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

const (
	fieldKeyMessage   = "msg"
	fieldKeyTimestamp = "ts"

	// LevelDebug represents debug log level
	LevelDebug = "debug"
	// LevelInfo represents info log level
	LevelInfo = "info"
	// LevelWarn represents warn log level
	LevelWarn = "warn"
	// LevelError represents error log level
	LevelError = "error"
)

var (
	// currentLevel is the currently configured log level
	currentLevel = LevelInfo

	mu     sync.RWMutex
	logger zerolog.Logger
)

func init() {
	zerolog.MessageFieldName = fieldKeyMessage
	zerolog.TimestampFieldName = fieldKeyTimestamp
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	SetOutput(os.Stderr)
}

// Fields represents a set of information to be included in the log
type Fields map[string]interface{}

// Entry represents a log entry
type Entry struct {
	Fields Fields
}

func newEntry(fields Fields) Entry {
	return Entry{Fields: fields}
}

// WithFields creates a log entry with the given fields
func WithFields(fields Fields) Entry {
	return newEntry(fields)
}

// SetOutput redirects all log lines to w
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	logger = zerolog.New(w).With().Timestamp().Logger()
}

// SetLevel sets the global log level
func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()

	currentLevel = level
}

// IsValidLevel reports whether the given level is one of the known levels
func IsValidLevel(level string) bool {
	switch level {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return true
	default:
		return false
	}
}

// levelPriority returns a numeric priority for comparison
func levelPriority(level string) int {
	switch level {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	default:
		return 1
	}
}

func zerologLevel(level string) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// shouldLog returns true if the given level should be logged based on currentLevel
func shouldLog(level string) bool {
	return levelPriority(level) >= levelPriority(currentLevel)
}

// Debug logs the given entry at a debug level
func (e Entry) Debug(msg string) {
	e.write(LevelDebug, msg)
}

// Info logs the given entry at an info level
func (e Entry) Info(msg string) {
	e.write(LevelInfo, msg)
}

// Warn logs the given entry at a warning level
func (e Entry) Warn(msg string) {
	e.write(LevelWarn, msg)
}

// Error logs the given entry at an error level
func (e Entry) Error(msg string) {
	e.write(LevelError, msg)
}

// ErrorWrap logs the given entry with the error message annotated by the given message
func (e Entry) ErrorWrap(err error, msg string) {
	e.Error(fmt.Sprintf("%s: %v", msg, err))
}

func (e Entry) write(level, msg string) {
	mu.RLock()
	defer mu.RUnlock()

	if !shouldLog(level) {
		return
	}

	ev := logger.WithLevel(zerologLevel(level))
	if len(e.Fields) > 0 {
		ev = ev.Fields(map[string]interface{}(e.Fields))
	}

	ev.Msg(msg)
}

// Debug logs a debug message without additional fields
func Debug(msg string) {
	newEntry(Fields{}).Debug(msg)
}

// Info logs an info message without additional fields
func Info(msg string) {
	newEntry(Fields{}).Info(msg)
}

// Warn logs a warning message without additional fields
func Warn(msg string) {
	newEntry(Fields{}).Warn(msg)
}

// Error logs an error message without additional fields
func Error(msg string) {
	newEntry(Fields{}).Error(msg)
}

// ErrorWrap logs an error message without additional fields. It annotates the given error's
// message with the given message
func ErrorWrap(err error, msg string) {
	newEntry(Fields{}).ErrorWrap(err, msg)
}
