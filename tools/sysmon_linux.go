//go:build linux

package tools

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
)

// loadAverage reads the 1/5/15 minute load from /proc/loadavg.
func loadAverage() ([]float64, bool) {
	data, err := os.ReadFile("/proc/loadavg")
	if err != nil {
		return nil, false
	}
	fields := strings.Fields(string(data))
	if len(fields) < 3 {
		return nil, false
	}
	load := make([]float64, 0, 3)
	for _, f := range fields[:3] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, false
		}
		load = append(load, v)
	}
	return load, true
}

// memoryInfo reads totals from /proc/meminfo, reported in MB.
func memoryInfo() (map[string]any, bool) {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return nil, false
	}

	values := map[string]int64{}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		key := strings.TrimSuffix(fields[0], ":")
		if kb, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
			values[key] = kb / 1024
		}
	}

	total, ok := values["MemTotal"]
	if !ok {
		return nil, false
	}
	available := values["MemAvailable"]
	return map[string]any{
		"total_mb":     total,
		"available_mb": available,
		"used_mb":      total - available,
	}, true
}

// diskUsage reports filesystem usage for path in GB.
func diskUsage(path string) (map[string]any, bool) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return nil, false
	}
	const gb = 1 << 30
	total := st.Blocks * uint64(st.Bsize)
	free := st.Bavail * uint64(st.Bsize)
	return map[string]any{
		"path":     path,
		"total_gb": float64(total) / gb,
		"free_gb":  float64(free) / gb,
		"used_gb":  float64(total-free) / gb,
	}, true
}

// listProcesses walks /proc for numeric entries, sorted by pid.
func listProcesses(limit int) ([]map[string]any, bool) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, false
	}

	var pids []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if pid, err := strconv.Atoi(e.Name()); err == nil {
			pids = append(pids, pid)
		}
	}
	sort.Ints(pids)

	var out []map[string]any
	for _, pid := range pids {
		if len(out) >= limit {
			break
		}
		comm, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "comm"))
		if err != nil {
			continue
		}
		out = append(out, map[string]any{
			"pid":  pid,
			"name": strings.TrimSpace(string(comm)),
		})
	}
	return out, true
}
