// Package nlog is the DTL's logger: buffered, timestamped, severity-gated,
// with a fast path for the common (info, not also-to-stderr) case.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

var sevChar = [...]byte{sevInfo: 'I', sevWarn: 'W', sevErr: 'E'}

var (
	mu  sync.Mutex
	out io.Writer = os.Stderr

	// Level gates which severities are actually written; Infof below Level
	// is dropped without formatting its arguments (the fast path).
	Level = sevInfo
)

// SetOutput redirects log output, e.g. to a file or (in tests) a buffer.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

func Infof(format string, args ...any)    { logf(sevInfo, format, args...) }
func Infoln(args ...any)                  { logln(sevInfo, args...) }
func Warningf(format string, args ...any) { logf(sevWarn, format, args...) }
func Warningln(args ...any)               { logln(sevWarn, args...) }
func Errorf(format string, args ...any)   { logf(sevErr, format, args...) }
func Errorln(args ...any)                 { logln(sevErr, args...) }

func logf(sev severity, format string, args ...any) {
	if sev < Level {
		return
	}
	write(sev, fmt.Sprintf(format, args...))
}

func logln(sev severity, args ...any) {
	if sev < Level {
		return
	}
	write(sev, fmt.Sprintln(args...))
}

func write(sev severity, msg string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, "%c %s %s\n", sevChar[sev], time.Now().Format("15:04:05.000000"), msg)
}
