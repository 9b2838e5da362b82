package tools

import (
	"context"
	"encoding/json"
	"os"
	"runtime"

	"github.com/agentos-dev/agentos-go/core"
)

// NewSystemTools returns the monitoring tools: get_system_info,
// get_memory_info, get_disk_info and list_processes. Detailed metrics are
// read from the platform (see sysmon_linux.go); platforms without support
// return what is portably available.
func NewSystemTools() []core.Tool {
	sysInfo := &funcTool{
		name:        "get_system_info",
		description: "Get basic system information: hostname, OS, architecture, CPU count and load.",
		schema:      WithExplanation(ObjectSchema(map[string]any{}), false),
		run: func(ctx context.Context, input json.RawMessage) *core.ToolResult {
			hostname, _ := os.Hostname()
			info := map[string]any{
				"hostname": hostname,
				"os":       runtime.GOOS,
				"arch":     runtime.GOARCH,
				"cpus":     runtime.NumCPU(),
			}
			if load, ok := loadAverage(); ok {
				info["load_average"] = load
			}
			return core.OK(info)
		},
	}

	memInfo := &funcTool{
		name:        "get_memory_info",
		description: "Get system memory usage in megabytes.",
		schema:      WithExplanation(ObjectSchema(map[string]any{}), false),
		run: func(ctx context.Context, input json.RawMessage) *core.ToolResult {
			mem, ok := memoryInfo()
			if !ok {
				return core.Fail("memory info not supported on " + runtime.GOOS)
			}
			return core.OK(mem)
		},
	}

	diskInfo := &funcTool{
		name:        "get_disk_info",
		description: "Get disk usage for a path in gigabytes.",
		schema: WithExplanation(ObjectSchema(map[string]any{
			"path": StringProperty("Filesystem path to report on (default '/')"),
		}), false),
		run: func(ctx context.Context, input json.RawMessage) *core.ToolResult {
			var in struct {
				core.BaseInput
				Path string `json:"path"`
			}
			if err := decode(input, &in); err != nil {
				return core.Fail("invalid arguments: " + err.Error())
			}
			if in.Path == "" {
				in.Path = "/"
			}
			disk, ok := diskUsage(in.Path)
			if !ok {
				return core.Fail("disk info not supported on " + runtime.GOOS)
			}
			return core.OK(disk)
		},
	}

	procs := &funcTool{
		name:        "list_processes",
		description: "List running processes with pid and command name.",
		schema: WithExplanation(ObjectSchema(map[string]any{
			"limit": IntegerProperty("Maximum number of processes to return (default 10)"),
		}), false),
		run: func(ctx context.Context, input json.RawMessage) *core.ToolResult {
			var in struct {
				core.BaseInput
				Limit int `json:"limit"`
			}
			if err := decode(input, &in); err != nil {
				return core.Fail("invalid arguments: " + err.Error())
			}
			if in.Limit <= 0 {
				in.Limit = 10
			}
			list, ok := listProcesses(in.Limit)
			if !ok {
				return core.Fail("process listing not supported on " + runtime.GOOS)
			}
			return core.OK(map[string]any{
				"processes": list,
				"count":     len(list),
			})
		},
	}

	return []core.Tool{sysInfo, memInfo, diskInfo, procs}
}
