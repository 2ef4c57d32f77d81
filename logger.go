// Copyright 2012 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package snmp

// LoggerInterface is the subset of *log.Logger used for debugging. A
// log/slog handler can be adapted with slog.NewLogLogger.
type LoggerInterface interface {
	Print(v ...any)
	Printf(format string, v ...any)
}

// Logger wraps a LoggerInterface. The zero Logger discards everything, so
// debugging output costs nothing unless asked for:
//
//	s.Logger = snmp.NewLogger(log.New(os.Stdout, "", 0))
type Logger struct {
	logger LoggerInterface
}

func NewLogger(logger LoggerInterface) Logger {
	return Logger{logger: logger}
}

func (l Logger) Print(v ...any) {
	if l.logger != nil {
		l.logger.Print(v...)
	}
}

func (l Logger) Printf(format string, v ...any) {
	if l.logger != nil {
		l.logger.Printf(format, v...)
	}
}
