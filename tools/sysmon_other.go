//go:build !linux

package tools

// Non-Linux platforms report only the portable fields; detailed metrics
// come back unsupported.

func loadAverage() ([]float64, bool) { return nil, false }

func memoryInfo() (map[string]any, bool) { return nil, false }

func diskUsage(path string) (map[string]any, bool) { return nil, false }

func listProcesses(limit int) ([]map[string]any, bool) { return nil, false }
