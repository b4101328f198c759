package common

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"
)

type Metrics struct {
	mu         sync.Mutex
	start      time.Time
	end        time.Time
	bytes      int64
	files      int64
	totalFiles int64
	blocks     int64
	failures   int64
	warnings   int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Start() {
	m.mu.Lock()
	if m.start.IsZero() {
		m.start = time.Now()
		m.end = time.Time{}
	}
	m.mu.Unlock()
}

func (m *Metrics) Stop() {
	m.mu.Lock()
	if !m.start.IsZero() && m.end.IsZero() {
		m.end = time.Now()
	}
	m.mu.Unlock()
}

// AddFile records one processed EDID image together with its size in bytes
// and the number of 128-byte blocks it contained.
func (m *Metrics) AddFile(size int64, blocks int) {
	m.mu.Lock()
	m.files++
	if size > 0 {
		m.bytes += size
	}
	if blocks > 0 {
		m.blocks += int64(blocks)
	}
	m.mu.Unlock()
}

func (m *Metrics) AddFindings(failures, warnings int) {
	m.mu.Lock()
	m.failures += int64(failures)
	m.warnings += int64(warnings)
	m.mu.Unlock()
}

func (m *Metrics) SetTotalFiles(total int64) {
	if total < 0 {
		total = 0
	}
	m.mu.Lock()
	m.totalFiles = total
	m.mu.Unlock()
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		Duration:   m.elapsedLocked(),
		Bytes:      m.bytes,
		Files:      m.files,
		TotalFiles: m.totalFiles,
		Blocks:     m.blocks,
		Failures:   m.failures,
		Warnings:   m.warnings,
	}
}

func (m *Metrics) elapsedLocked() time.Duration {
	if m.start.IsZero() {
		return 0
	}
	if !m.end.IsZero() {
		return m.end.Sub(m.start)
	}
	return time.Since(m.start)
}

type MetricsSnapshot struct {
	Duration   time.Duration
	Bytes      int64
	Files      int64
	TotalFiles int64
	Blocks     int64
	Failures   int64
	Warnings   int64
}

func (s MetricsSnapshot) FilesPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Files) / s.Duration.Seconds()
}

func (s MetricsSnapshot) Completion() float64 {
	if s.TotalFiles <= 0 {
		return 0
	}
	ratio := float64(s.Files) / float64(s.TotalFiles)
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div := float64(unit)
	exp := 0
	for n := float64(b) / div; n >= unit && exp < 6; n /= unit {
		div *= unit
		exp++
	}
	prefixes := []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}
	return fmt.Sprintf("%.2f %s", float64(b)/div, prefixes[exp])
}

func formatProgressLine(s MetricsSnapshot) string {
	rate := s.FilesPerSecond()
	if s.TotalFiles > 0 {
		pct := s.Completion() * 100
		if math.IsNaN(pct) || math.IsInf(pct, 0) {
			pct = 0
		}
		return fmt.Sprintf("Progress: %6.2f%% (%d / %d files) %.1f files/s", pct, s.Files, s.TotalFiles, rate)
	}
	return fmt.Sprintf("Processed: %d files (%s) %.1f files/s", s.Files, FormatBytes(s.Bytes), rate)
}

func StartProgressPrinter(w io.Writer, m *Metrics, interval time.Duration) func() {
	if m == nil || w == nil {
		return func() {}
	}
	if interval <= 0 {
		interval = time.Second
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		lastLen := 0
		for {
			select {
			case <-ticker.C:
				line := formatProgressLine(m.Snapshot())
				pad := lastLen - len(line)
				if pad > 0 {
					line += strings.Repeat(" ", pad)
				}
				fmt.Fprintf(w, "\r%s", line)
				lastLen = len(line)
			case <-done:
				if lastLen > 0 {
					fmt.Fprintf(w, "\r%s\r\n", strings.Repeat(" ", lastLen))
				}
				return
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}
