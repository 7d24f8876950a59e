// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package system

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/process"
)

func hostCPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	pct, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		return 0, err
	}
	if len(pct) == 0 {
		return 0, nil
	}
	return pct[0], nil
}

func hostCPUInfo(ctx context.Context) (int, string, error) {
	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return 0, "", err
	}
	// Model names are unavailable in some containers.
	var model string
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		model = infos[0].ModelName
	}
	return cores, model, nil
}

func listProcesses(ctx context.Context) ([]Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Process, 0, len(procs))
	for _, p := range procs {
		out = append(out, osProcess{p})
	}
	return out, nil
}

type osProcess struct{ p *process.Process }

func (o osProcess) PID() int32 { return o.p.Pid }

func (o osProcess) Name(ctx context.Context) (string, error) { return o.p.NameWithContext(ctx) }

func (o osProcess) Cmdline(ctx context.Context) (string, error) { return o.p.CmdlineWithContext(ctx) }

func (o osProcess) CPUPercent(ctx context.Context) (float64, error) {
	return o.p.CPUPercentWithContext(ctx)
}

func (o osProcess) RSS(ctx context.Context) (uint64, error) {
	mi, err := o.p.MemoryInfoWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return mi.RSS, nil
}

func (o osProcess) CreateTime(ctx context.Context) (int64, error) {
	return o.p.CreateTimeWithContext(ctx)
}
