// Package metrics samples process and system resource usage.
package metrics

import (
	"context"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// SystemMetrics holds one metrics sample
type SystemMetrics struct {
	CPUPercent        float64   `json:"cpu_percent"`         // system-wide, 0-100
	ProcessCPUPercent float64   `json:"process_cpu_percent"` // per core, may exceed 100
	ProcessRSS        uint64    `json:"process_rss"`
	MemoryUsed        uint64    `json:"memory_used"`
	MemoryTotal       uint64    `json:"memory_total"`
	MemoryPercent     float64   `json:"memory_percent"`
	HeapAlloc         uint64    `json:"heap_alloc"`
	Goroutines        int       `json:"goroutines"`
	Timestamp         time.Time `json:"timestamp"`
}

// Collector periodically samples and logs metrics
type Collector struct {
	interval    time.Duration
	logger      *zap.Logger
	proc        *process.Process
	mu          sync.RWMutex
	lastMetrics *SystemMetrics
}

// NewCollector creates a collector. Intervals below a second default to 30s.
func NewCollector(interval time.Duration, logger *zap.Logger) *Collector {
	if interval < time.Second {
		interval = 30 * time.Second
	}

	proc, _ := process.NewProcess(int32(os.Getpid()))

	return &Collector{
		interval: interval,
		logger:   logger,
		proc:     proc,
	}
}

// Interval returns the sampling interval
func (c *Collector) Interval() time.Duration { return c.interval }

// Start samples until ctx is cancelled
func (c *Collector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.log(c.Sample())

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("Metrics collection stopped")
			return
		case <-ticker.C:
			c.log(c.Sample())
		}
	}
}

// GetMetrics returns the last sample, nil before the first one
func (c *Collector) GetMetrics() *SystemMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastMetrics
}

// Sample collects metrics now and stores them as the latest sample
func (c *Collector) Sample() *SystemMetrics {
	m := &SystemMetrics{
		Timestamp:  time.Now(),
		Goroutines: runtime.NumGoroutine(),
	}

	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		m.CPUPercent = pct[0]
	}

	if c.proc != nil {
		if pct, err := c.proc.Percent(0); err == nil {
			m.ProcessCPUPercent = pct
		}
		if info, err := c.proc.MemoryInfo(); err == nil {
			m.ProcessRSS = info.RSS
		}
	}

	if vmem, err := mem.VirtualMemory(); err == nil {
		m.MemoryPercent = vmem.UsedPercent
		m.MemoryUsed = vmem.Used
		m.MemoryTotal = vmem.Total
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.HeapAlloc = ms.HeapAlloc

	c.mu.Lock()
	c.lastMetrics = m
	c.mu.Unlock()
	return m
}

func (c *Collector) log(m *SystemMetrics) {
	c.logger.Info("System metrics",
		zap.Float64("sys_cpu", m.CPUPercent),
		zap.Float64("proc_cpu", m.ProcessCPUPercent),
		zap.String("rss", humanize.Bytes(m.ProcessRSS)),
		zap.String("heap", humanize.Bytes(m.HeapAlloc)),
		zap.Float64("mem_pct", m.MemoryPercent),
		zap.String("mem_used", humanize.Bytes(m.MemoryUsed)),
		zap.Int("goroutines", m.Goroutines),
	)
}
