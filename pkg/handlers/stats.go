package handlers

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/shirou/gopsutil/process"
	"github.com/zuchzub/guildtunes/pkg/core/cache"
	"github.com/zuchzub/guildtunes/pkg/lang"
)

var startTime = time.Now()

// AppStats holds process and system info.
type AppStats struct {
	Uptime         string
	NumGoroutines  int
	CPUPercent     float64
	MemUsed        string
	MemPerc        float64
	GoVersion      string
	OS             string
	Arch           string
	SystemCPUUsage float64
	SystemMemUsed  string
	SystemMemTotal string
}

// gatherAppStats collects both app and system-level stats.
func gatherAppStats() (*AppStats, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}

	cpuPercent, _ := proc.CPUPercent()
	memPerc, _ := proc.MemoryPercent()

	stats := &AppStats{
		Uptime:        time.Since(startTime).Round(time.Second).String(),
		NumGoroutines: runtime.NumGoroutine(),
		CPUPercent:    cpuPercent,
		MemPerc:       float64(memPerc),
		GoVersion:     runtime.Version(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
	}
	if memInfo, err := proc.MemoryInfo(); err == nil {
		stats.MemUsed = cache.HumanBytes(memInfo.RSS)
	}
	if vmem, err := mem.VirtualMemory(); err == nil {
		stats.SystemMemUsed = cache.HumanBytes(vmem.Used)
		stats.SystemMemTotal = cache.HumanBytes(vmem.Total)
	}
	if cpus, err := cpu.Percent(0, false); err == nil && len(cpus) > 0 {
		stats.SystemCPUUsage = cpus[0]
	}
	return stats, nil
}

// Stats reports audio cache usage together with process and server load.
func (h *Handler) Stats(_ context.Context, req Request) Reply {
	embed := &Embed{Title: lang.GetString(req.Lang, "stats_title")}

	if h.Cache != nil {
		s := h.Cache.Stats()
		embed.Fields = append(embed.Fields, Field{
			Name: lang.GetString(req.Lang, "stats_cache"),
			Value: lang.Format(req.Lang, "stats_cache_value",
				s.FileCount,
				cache.HumanBytes(uint64(s.SizeBytes)),
				cache.HumanBytes(uint64(s.MaxBytes)),
				s.PercentUsed,
				cache.HumanBytes(s.DiskFree),
				cache.HumanBytes(s.DiskTotal),
			),
		})
	}

	info, err := gatherAppStats()
	if err != nil {
		embed.Fields = append(embed.Fields, Field{
			Name:  lang.GetString(req.Lang, "stats_app"),
			Value: lang.Format(req.Lang, "stats_app_error", err),
		})
		return Reply{Embed: embed}
	}

	embed.Fields = append(embed.Fields,
		Field{
			Name: lang.GetString(req.Lang, "stats_app"),
			Value: lang.Format(req.Lang, "stats_app_value",
				info.Uptime, info.CPUPercent, info.MemUsed, info.MemPerc,
				info.NumGoroutines, info.GoVersion, info.OS, info.Arch),
		},
		Field{
			Name:  lang.GetString(req.Lang, "stats_system"),
			Value: lang.Format(req.Lang, "stats_system_value", info.SystemCPUUsage, info.SystemMemUsed, info.SystemMemTotal),
		},
	)
	return Reply{Embed: embed}
}
