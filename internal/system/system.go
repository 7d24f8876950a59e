// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package system reports host resource usage and locates the running game
// server process.
package system

import (
	"context"
	"fmt"
	"math"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	xglog "github.com/pzpanel/pzpanel/internal/log"
)

const (
	// DefaultSampleInterval is the window over which host CPU usage is measured.
	DefaultSampleInterval = 100 * time.Millisecond

	// javaFallbackMinRSS is the smallest unmatched java process taken for the game server.
	javaFallbackMinRSS = 500 << 20

	mb = 1 << 20
)

// gameMarkers are matched against the lowercased process command line.
var gameMarkers = []string{"zomboid", "projectzomboid", "pzserver", "zombie.network.gameserver"}

type CPU struct {
	Cores int     `json:"cores"`
	Model string  `json:"model"`
	Usage float64 `json:"usage"`
}

type Memory struct {
	Total        uint64  `json:"total"`
	Used         uint64  `json:"used"`
	Free         uint64  `json:"free"`
	UsagePercent float64 `json:"usagePercent"`
}

// GameProcess describes the game server process when one is found.
type GameProcess struct {
	Found         bool    `json:"found"`
	ProcessName   string  `json:"processName"`
	PID           int32   `json:"pid,omitempty"`
	CPUPercent    float64 `json:"cpuPercent,omitempty"`
	MemoryMB      float64 `json:"memoryMB,omitempty"`
	MemoryPercent float64 `json:"memoryPercent,omitempty"`
	Uptime        int64   `json:"uptime,omitempty"`
	CommandLine   string  `json:"commandLine,omitempty"`
}

// Stats is one snapshot of the host.
type Stats struct {
	CPU        CPU          `json:"cpu"`
	Memory     Memory       `json:"memory"`
	Uptime     uint64       `json:"uptime"`
	Platform   string       `json:"platform"`
	Hostname   string       `json:"hostname"`
	GameServer *GameProcess `json:"pzServer,omitempty"`
}

// Process is the view of an OS process the collector needs.
type Process interface {
	PID() int32
	Name(ctx context.Context) (string, error)
	Cmdline(ctx context.Context) (string, error)
	CPUPercent(ctx context.Context) (float64, error)
	RSS(ctx context.Context) (uint64, error)
	CreateTime(ctx context.Context) (int64, error)
}

// source abstracts gopsutil so tests can inject fixed readings.
type source struct {
	cpuPercent func(ctx context.Context, interval time.Duration) (float64, error)
	cpuInfo    func(ctx context.Context) (cores int, model string, err error)
	memory     func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	host       func(ctx context.Context) (*host.InfoStat, error)
	processes  func(ctx context.Context) ([]Process, error)
}

// Options configures a Collector.
type Options struct {
	SampleInterval time.Duration
	Now            func() time.Time
}

// Collector gathers host statistics.
type Collector struct {
	src      source
	interval time.Duration
	now      func() time.Time
	self     int32
	logger   zerolog.Logger
}

// New creates a Collector backed by gopsutil.
func New(opts Options) *Collector {
	return newCollector(source{
		cpuPercent: hostCPUPercent,
		cpuInfo:    hostCPUInfo,
		memory:     mem.VirtualMemoryWithContext,
		host:       host.InfoWithContext,
		processes:  listProcesses,
	}, opts)
}

func newCollector(src source, opts Options) *Collector {
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = DefaultSampleInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Collector{
		src:      src,
		interval: opts.SampleInterval,
		now:      opts.Now,
		self:     int32(os.Getpid()),
		logger:   xglog.WithComponent("system"),
	}
}

// Collect samples CPU, memory and host information. With includeGame it
// also looks for the game server process; a failed lookup reports Found false.
func (c *Collector) Collect(ctx context.Context, includeGame bool) (*Stats, error) {
	usage, err := c.src.cpuPercent(ctx, c.interval)
	if err != nil {
		return nil, fmt.Errorf("cpu usage: %w", err)
	}
	cores, model, err := c.src.cpuInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("cpu info: %w", err)
	}
	vm, err := c.src.memory(ctx)
	if err != nil {
		return nil, fmt.Errorf("memory: %w", err)
	}
	hi, err := c.src.host(ctx)
	if err != nil {
		return nil, fmt.Errorf("host info: %w", err)
	}
	if model == "" {
		model = "Unknown"
	}

	free := vm.Available
	used := vm.Total - free
	s := &Stats{
		CPU:      CPU{Cores: cores, Model: model, Usage: round1(usage)},
		Memory:   Memory{Total: vm.Total, Used: used, Free: free, UsagePercent: percent(used, vm.Total)},
		Uptime:   hi.Uptime,
		Platform: platform(hi),
		Hostname: hi.Hostname,
	}
	if includeGame {
		s.GameServer = c.findGame(ctx, vm.Total)
	}
	return s, nil
}

type candidate struct {
	p       Process
	cmdline string
	rss     uint64
}

// findGame returns the matching process with the largest resident set, so a
// java server wins over the shell script that launched it. When nothing
// matches, a java process above javaFallbackMinRSS is reported instead.
func (c *Collector) findGame(ctx context.Context, totalMem uint64) *GameProcess {
	procs, err := c.src.processes(ctx)
	if err != nil {
		c.logger.Debug().Err(err).Msg("process listing failed")
		return &GameProcess{ProcessName: "game server process not found"}
	}

	var matched, java []candidate
	for _, p := range procs {
		if p.PID() == c.self {
			continue
		}
		cmdline, err := p.Cmdline(ctx)
		if err != nil {
			continue
		}
		rss, _ := p.RSS(ctx)
		cand := candidate{p: p, cmdline: cmdline, rss: rss}
		if isGameCmdline(cmdline) {
			matched = append(matched, cand)
			continue
		}
		if name, _ := p.Name(ctx); strings.Contains(strings.ToLower(name), "java") && rss > javaFallbackMinRSS {
			java = append(java, cand)
		}
	}

	switch {
	case len(matched) > 0:
		return c.describe(ctx, largest(matched), "PZ Server", totalMem)
	case len(java) > 0:
		return c.describe(ctx, largest(java), "java (possible PZ Server)", totalMem)
	}
	return &GameProcess{ProcessName: "game server process not found"}
}

func (c *Collector) describe(ctx context.Context, cand candidate, label string, totalMem uint64) *GameProcess {
	g := &GameProcess{
		Found:         true,
		ProcessName:   label,
		PID:           cand.p.PID(),
		MemoryMB:      math.Round(float64(cand.rss) / mb),
		MemoryPercent: percent(cand.rss, totalMem),
		CommandLine:   truncate(cand.cmdline, 100),
	}
	if pct, err := cand.p.CPUPercent(ctx); err == nil {
		g.CPUPercent = round1(pct)
	}
	if created, err := cand.p.CreateTime(ctx); err == nil && created > 0 {
		g.Uptime = int64(c.now().Sub(time.UnixMilli(created)).Seconds())
	}
	return g
}

func largest(cands []candidate) candidate {
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].rss > cands[j].rss })
	return cands[0]
}

func isGameCmdline(cmdline string) bool {
	l := strings.ToLower(cmdline)
	for _, m := range gameMarkers {
		if strings.Contains(l, m) {
			return true
		}
	}
	return false
}

func platform(hi *host.InfoStat) string {
	if hi.OS != "" {
		return hi.OS
	}
	return runtime.GOOS
}

func percent(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(part) / float64(total) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
