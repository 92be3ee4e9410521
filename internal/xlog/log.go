// The MIT License (MIT)
//
// Copyright (c) 2024 quicflow contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package xlog is a thin wrapper around the standard library's log.Logger,
// giving every component the same leveled-prefix convention the cmd/ binaries
// use on stderr.
package xlog

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Logger wraps a *log.Logger with Debug/Warn/Error levels. The zero value is
// not usable; use New or Discard.
type Logger struct {
	std   *log.Logger
	debug bool
}

// New returns a Logger writing to w with date, time, and short file flags.
// debug gates Debugf output; Warnf and Errorf are always emitted.
func New(w io.Writer, debug bool) *Logger {
	return &Logger{
		std:   log.New(w, "", log.LstdFlags|log.Lshortfile),
		debug: debug,
	}
}

// Default returns a Logger writing to os.Stderr with debug output enabled.
func Default() *Logger {
	return New(os.Stderr, true)
}

// Discard returns a Logger that drops everything. Controllers constructed
// without an explicit logger use this so tests and library embedders never
// pay for or see flow-control chatter unless they ask for it.
func Discard() *Logger {
	return New(io.Discard, false)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	if l == nil || !l.debug {
		return
	}
	l.std.Output(2, "DEBUG "+fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.std.Output(2, "WARN "+fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.std.Output(2, "ERROR "+fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.std.Output(2, "INFO "+fmt.Sprintf(format, args...))
}
