// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// EnvVar holds the log level name.
const EnvVar = "LEVCTL_LOG"

// InitLogger sets up Apex with a custom handler and a log level from the
// LEVCTL_LOG env variable.
func InitLogger() {
	level := strings.ToUpper(os.Getenv(EnvVar))
	if level == "" {
		level = "ERROR"
	}
	log.SetHandler(NewCustomHandler(os.Stderr))
	log.SetLevelFromString(level)
}

// CustomHandler formats log messages on one line each. It writes to stderr
// by default so logs never mix with table or JSON output on stdout.
type CustomHandler struct {
	mu sync.Mutex
	w  io.Writer
}

// NewCustomHandler returns a handler writing to w.
func NewCustomHandler(w io.Writer) *CustomHandler {
	return &CustomHandler{w: w}
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	level := strings.ToUpper(e.Level.String())
	message := e.Message

	names := e.Fields.Names()
	sort.Strings(names)
	for _, name := range names {
		message += fmt.Sprintf(" %s=%v", name, e.Fields.Get(name))
	}

	w := h.w
	if w == nil {
		w = os.Stderr
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintf(w, "%s %.1s %s\n", timestamp, level, message)
	return err
}
