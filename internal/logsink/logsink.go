// Package logsink is the governor's timestamped append-only log. Writes are
// fire-and-forget: failures are dropped and never reach the caller.
package logsink

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultPath is where the daemon writes its log.
const DefaultPath = "/var/log/thermal-governor/governor.log"

// Header is the first line written by Init.
const Header = "thermal governor started"

// Sink accepts log lines.
type Sink interface {
	Append(line string)
}

// FileSink appends "[HH:MM:SS] line" entries to a file, opening and closing
// it for each entry so the file can be rotated or removed underneath it.
// Every line is also written to the process log.
type FileSink struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewFileSink creates a sink for the given path. Call Init before use.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path, now: time.Now}
}

// Init creates the log directory and truncates the file, writing Header.
func (s *FileSink) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		log.Printf("logsink: create dir: %v", err)
		return
	}
	if err := os.WriteFile(s.path, []byte(Header+"\n"), 0644); err != nil {
		log.Printf("logsink: init %s: %v", s.path, err)
	}
}

// Append writes one timestamped line.
func (s *FileSink) Append(line string) {
	log.Print(line)

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "[%s] %s\n", s.now().Format("15:04:05"), line)
}

// Printf formats and appends a line.
func (s *FileSink) Printf(format string, args ...any) {
	s.Append(fmt.Sprintf(format, args...))
}

// Memory is a test double that records lines.
type Memory struct {
	mu    sync.Mutex
	lines []string
}

// Append records the line.
func (m *Memory) Append(line string) {
	m.mu.Lock()
	m.lines = append(m.lines, line)
	m.mu.Unlock()
}

// Lines returns a copy of the recorded lines.
func (m *Memory) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines...)
}

// Discard drops every line.
type Discard struct{}

// Append does nothing.
func (Discard) Append(string) {}
