package tools

import (
	"context"
	"encoding/json"
	"log"
	"os/exec"
	"runtime"
	"strings"

	"github.com/agentos-dev/agentos-go/core"
)

// NewAppTools returns the application-launching tools: open_application,
// open_url and open_file. Launches are fire-and-forget; the child process
// is not waited on.
func NewAppTools() []core.Tool {
	openApp := &funcTool{
		name:        "open_application",
		description: "Launch an application by name, optionally with arguments.",
		schema: WithExplanation(ObjectSchema(map[string]any{
			"app_name": StringProperty("Application name or binary (e.g., 'firefox')"),
			"args":     StringProperty("Optional space-separated arguments"),
		}, "app_name"), false),
		run: func(ctx context.Context, input json.RawMessage) *core.ToolResult {
			var in struct {
				core.BaseInput
				AppName string `json:"app_name"`
				Args    string `json:"args"`
			}
			if err := decode(input, &in); err != nil {
				return core.Fail("invalid arguments: " + err.Error())
			}
			if in.AppName == "" {
				return core.Fail("app_name is required")
			}

			var args []string
			if in.Args != "" {
				args = strings.Fields(in.Args)
			}
			cmd := exec.Command(in.AppName, args...)
			if err := cmd.Start(); err != nil {
				return core.Fail(err.Error())
			}
			log.Printf("[APPS] Launched %s (pid %d)", in.AppName, cmd.Process.Pid)
			return core.OK(map[string]any{
				"app": in.AppName,
				"pid": cmd.Process.Pid,
			})
		},
	}

	openURL := &funcTool{
		name:        "open_url",
		description: "Open a URL in the default browser.",
		schema: WithExplanation(ObjectSchema(map[string]any{
			"url": StringProperty("URL to open (http or https)"),
		}, "url"), false),
		run: func(ctx context.Context, input json.RawMessage) *core.ToolResult {
			var in struct {
				core.BaseInput
				URL string `json:"url"`
			}
			if err := decode(input, &in); err != nil {
				return core.Fail("invalid arguments: " + err.Error())
			}
			if !strings.HasPrefix(in.URL, "http://") && !strings.HasPrefix(in.URL, "https://") {
				return core.Fail("only http and https URLs are allowed")
			}
			if err := openWithSystem(in.URL); err != nil {
				return core.Fail(err.Error())
			}
			return core.OK(map[string]any{"url": in.URL})
		},
	}

	openFile := &funcTool{
		name:        "open_file",
		description: "Open a file with its default application.",
		schema: WithExplanation(ObjectSchema(map[string]any{
			"file_path": StringProperty("Path of the file to open"),
		}, "file_path"), false),
		run: func(ctx context.Context, input json.RawMessage) *core.ToolResult {
			var in struct {
				core.BaseInput
				FilePath string `json:"file_path"`
			}
			if err := decode(input, &in); err != nil {
				return core.Fail("invalid arguments: " + err.Error())
			}
			if err := openWithSystem(in.FilePath); err != nil {
				return core.Fail(err.Error())
			}
			return core.OK(map[string]any{"file": in.FilePath})
		},
	}

	return []core.Tool{openApp, openURL, openFile}
}

// openWithSystem hands target to the platform's opener.
func openWithSystem(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	return cmd.Start()
}
