// Package stats produces point-in-time runtime snapshots for the stats
// endpoint.
package stats

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Counts carries the coordinator-level figures supplied at snapshot time.
type Counts struct {
	Connections int `json:"connections"`
	BoundUsers  int `json:"boundUsers"`
	Sessions    int `json:"sessions"`
}

type Snapshot struct {
	Counts
	UptimeSeconds  float64 `json:"uptimeSeconds"`
	Goroutines     int     `json:"goroutines"`
	HostMemUsedPct float64 `json:"hostMemUsedPercent,omitempty"`
	ProcessRSS     uint64  `json:"processRssBytes,omitempty"`
	ProcessCPUPct  float64 `json:"processCpuPercent,omitempty"`
}

// Collector reads host and own-process figures. Probes are best-effort: a
// probe error leaves its field zero rather than failing the snapshot.
type Collector struct {
	started time.Time
	proc    *process.Process
}

func NewCollector() *Collector {
	c := &Collector{started: time.Now()}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		c.proc = p
	}
	return c
}

func (c *Collector) Snapshot(counts Counts) Snapshot {
	s := Snapshot{
		Counts:        counts,
		UptimeSeconds: time.Since(c.started).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		s.HostMemUsedPct = vm.UsedPercent
	}
	if c.proc != nil {
		if mi, err := c.proc.MemoryInfo(); err == nil {
			s.ProcessRSS = mi.RSS
		}
		if pct, err := c.proc.CPUPercent(); err == nil {
			s.ProcessCPUPct = pct
		}
	}
	return s
}
