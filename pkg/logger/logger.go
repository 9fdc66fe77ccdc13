// Copyright 2021 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logger

import (
	"os"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	LogContainer     = logContainer{level: zap.NewAtomicLevel()}
	loggerInit       sync.Once
	simpleLoggerInit sync.Once
)

type logContainer struct {
	level        zap.AtomicLevel
	file         fileSink
	logger       *zap.Logger
	simpleLogger *zap.SugaredLogger
}

// fileSink discards everything until a file is attached.
type fileSink struct {
	mu sync.Mutex
	f  *os.File
}

func (s *fileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return len(p), nil
	}
	return s.f.Write(p)
}

func (s *fileSink) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	return s.f.Sync()
}

func (s *fileSink) attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f != nil
}

func (s *fileSink) attach(name string) error {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0640)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var cerr error
	if s.f != nil {
		cerr = s.f.Close()
	}
	s.f = f
	return cerr
}

// Configure sets the minimum level and, if file is not empty, additionally
// logs JSON to file. It also applies to loggers handed out before.
func (l *logContainer) Configure(file string, debug bool) error {
	if debug {
		l.level.SetLevel(zapcore.DebugLevel)
	} else {
		l.level.SetLevel(zapcore.InfoLevel)
	}
	if file == "" {
		return nil
	}
	return l.file.attach(file)
}

// GetLogger returns the pointer to the logger and creates one if none exists
func (l *logContainer) GetLogger() *zap.Logger {
	loggerInit.Do(func() {
		l.logger = zap.New(l.getCombinedCore())
	})
	return l.logger
}

// GetSimpleLogger returns the pointer to the sugared logger and creates one
// if none exists
func (l *logContainer) GetSimpleLogger() *zap.SugaredLogger {
	simpleLoggerInit.Do(func() {
		l.simpleLogger = l.GetLogger().Sugar()
	})
	return l.simpleLogger
}

// Sync flushes the log file. Console sync errors are ignored.
func (l *logContainer) Sync() error {
	if l.logger != nil {
		_ = l.logger.Sync()
	}
	return l.file.Sync()
}

// Close detaches and closes the log file.
func (l *logContainer) Close() error {
	l.file.mu.Lock()
	defer l.file.mu.Unlock()
	if l.file.f == nil {
		return nil
	}
	err := multierr.Append(l.file.f.Sync(), l.file.f.Close())
	l.file.f = nil
	return err
}

func getConsoleEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func getJsonEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.EpochTimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

func (l *logContainer) getCombinedCore() zapcore.Core {
	console := zapcore.NewCore(getConsoleEncoder(), zapcore.Lock(os.Stderr), l.level)
	fileLevel := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return l.level.Enabled(lvl) && l.file.attached()
	})
	return zapcore.NewTee(console, zapcore.NewCore(getJsonEncoder(), &l.file, fileLevel))
}
