package utils

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// SummaryRule folds log lines matching Pattern into a single counter
// reported under Name at the next flush.
type SummaryRule struct {
	Name    string
	Pattern *regexp.Regexp
}

// SummaryLogger is a decorator over Log that counts noisy, repetitive
// lines instead of emitting each one. Anything that matches no rule
// passes straight through, so components never need to know whether
// their logger is summarized.
type SummaryLogger struct {
	inner Log
	rules []SummaryRule

	mu     sync.Mutex
	counts map[string]int
}

func NewSummaryLogger(inner Log, rules []SummaryRule) *SummaryLogger {
	return &SummaryLogger{
		inner:  inner,
		rules:  rules,
		counts: make(map[string]int),
	}
}

func (s *SummaryLogger) absorb(v []interface{}) bool {
	line := strings.TrimSpace(fmt.Sprintln(v...))
	for _, rule := range s.rules {
		if rule.Pattern.MatchString(line) {
			s.mu.Lock()
			s.counts[rule.Name]++
			s.mu.Unlock()
			return true
		}
	}
	return false
}

// Flush emits one line per non-zero counter and resets them all.
func (s *SummaryLogger) Flush() {
	s.mu.Lock()
	counts := s.counts
	s.counts = make(map[string]int)
	s.mu.Unlock()

	if len(counts) == 0 {
		return
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, counts[name]))
	}
	s.inner.Info("log summary:", strings.Join(parts, " "))
}

func (s *SummaryLogger) Error(v ...interface{}) {
	// Errors are never folded away.
	s.inner.Error(v...)
}

func (s *SummaryLogger) Warn(v ...interface{}) {
	if !s.absorb(v) {
		s.inner.Warn(v...)
	}
}

func (s *SummaryLogger) Info(v ...interface{}) {
	if !s.absorb(v) {
		s.inner.Info(v...)
	}
}

func (s *SummaryLogger) Debug(v ...interface{}) {
	if !s.absorb(v) {
		s.inner.Debug(v...)
	}
}

func (s *SummaryLogger) Silly(v ...interface{}) {
	if !s.absorb(v) {
		s.inner.Silly(v...)
	}
}
