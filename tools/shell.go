package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/exec"
	"runtime"
	"time"

	"github.com/agentos-dev/agentos-go/core"
	"github.com/agentos-dev/agentos-go/safety"
)

// defaultShellTimeout bounds a single command execution.
const defaultShellTimeout = 30 * time.Second

type shellInput struct {
	core.BaseInput
	Command          string `json:"command"`
	WorkingDirectory string `json:"working_directory,omitempty"`
	TimeoutSeconds   int    `json:"timeout_seconds,omitempty"`
}

// shellOutput is the Data payload of a shell execution.
type shellOutput struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// NewShellTool returns the shell-execution tool. Every command passes
// through checker before it runs; blocked commands come back as failed
// results, not errors.
func NewShellTool(checker safety.Checker) core.Tool {
	return &funcTool{
		name:        "execute_shell_command",
		description: "Execute a shell command on the system. Use for file operations, system queries, running programs, etc.",
		schema: WithExplanation(ObjectSchema(map[string]any{
			"command":           StringProperty("The shell command to execute (e.g., 'ls -la', 'git status')"),
			"working_directory": StringProperty("Optional working directory for command execution"),
			"timeout_seconds":   IntegerProperty("Optional timeout in seconds (default 30)"),
		}, "command"), true),
		run: func(ctx context.Context, input json.RawMessage) *core.ToolResult {
			var in shellInput
			if err := decode(input, &in); err != nil {
				return core.Fail("invalid arguments: " + err.Error())
			}
			if in.Command == "" {
				return core.Fail("command is required")
			}

			if checker != nil {
				if ok, reason := checker.CheckCommand(in.Command); !ok {
					log.Printf("[SHELL] Blocked: %.60s (%s)", in.Command, reason)
					return core.Fail(reason)
				}
			}

			timeout := defaultShellTimeout
			if in.TimeoutSeconds > 0 {
				timeout = time.Duration(in.TimeoutSeconds) * time.Second
			}
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			shell, flag := systemShell()
			cmd := exec.CommandContext(ctx, shell, flag, in.Command)
			cmd.Dir = in.WorkingDirectory

			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr

			log.Printf("[SHELL] Executing: %.80s", in.Command)
			err := cmd.Run()

			out := shellOutput{
				Stdout: stdout.String(),
				Stderr: stderr.String(),
			}

			if ctx.Err() == context.DeadlineExceeded {
				return core.Fail(fmt.Sprintf("command timed out after %s", timeout))
			}
			if exitErr, ok := err.(*exec.ExitError); ok {
				out.ExitCode = exitErr.ExitCode()
				return &core.ToolResult{
					Success: false,
					Data:    out,
					Error:   fmt.Sprintf("exit code %d: %s", out.ExitCode, clipText(out.Stderr, 200)),
				}
			}
			if err != nil {
				return core.Fail(err.Error())
			}
			return core.OK(out)
		},
	}
}

// systemShell picks the shell binary and its command flag per platform.
func systemShell() (string, string) {
	if runtime.GOOS == "windows" {
		return "powershell.exe", "-Command"
	}
	return "/bin/sh", "-c"
}

func clipText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
