// Copyright (C) 2025, j-martina
//
// This file is part of znbx.
//
// znbx is free software: you can redistribute it
// and/or modify it under the terms of GNU General Public License
// as published by the Free Software Foundation, either version 2 of
// the License, or (at your option) any later version.
//
// znbx is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with znbx.  If not, see <https://www.gnu.org/licenses/>.

package znbx

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// logger.go - progress and warning output. A thin shim over a zap
// sugared logger, so call sites read like classic Printf logging while
// sinks and levels stay configurable. Verbose output is gated by the
// shim, not by zap levels, because verbosity here is a 0..3 knob rather
// than a severity.

type MyLogger struct {
	sugar     *zap.SugaredLogger
	verbosity int
}

// Log is the package-wide logger. It defaults to console output at
// verbosity 0; InitLogger replaces it.
var Log = newConsoleLogger(0)

func newConsoleLogger(verbosity int) *MyLogger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = "" // progress output, not a service log
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stdout),
		zapcore.InfoLevel,
	)
	return &MyLogger{
		sugar:     zap.New(core).Sugar(),
		verbosity: verbosity,
	}
}

// InitLogger reconfigures the package logger. A non-empty filePath adds
// a rotating file sink next to the console one.
func InitLogger(verbosity int, filePath string) {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(os.Stdout),
		zapcore.InfoLevel,
	)
	core := consoleCore
	if filePath != "" {
		fileEncCfg := zap.NewProductionEncoderConfig()
		fileSink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
		})
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(fileEncCfg),
			fileSink,
			zapcore.InfoLevel,
		)
		core = zapcore.NewTee(consoleCore, fileCore)
	}
	Log = &MyLogger{
		sugar:     zap.New(core).Sugar(),
		verbosity: verbosity,
	}
}

func (l *MyLogger) Printf(format string, a ...interface{}) {
	l.sugar.Infof(strings.TrimRight(format, "\n"), a...)
}

// Verbose prints only when the configured verbosity is at least level
func (l *MyLogger) Verbose(level int, format string, a ...interface{}) {
	if l.verbosity < level {
		return
	}
	l.sugar.Infof(strings.TrimRight(format, "\n"), a...)
}

func (l *MyLogger) Error(format string, a ...interface{}) {
	l.sugar.Errorf(strings.TrimRight(format, "\n"), a...)
}

func (l *MyLogger) Sync() {
	_ = l.sugar.Sync()
}
