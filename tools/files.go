package tools

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentos-dev/agentos-go/core"
	"github.com/agentos-dev/agentos-go/safety"
)

// maxReadBytes caps how much of a file read_file returns to the model.
const maxReadBytes = 64 * 1024

// NewFileTools returns the filesystem tools: read_file, write_file,
// list_directory and search_files. Path arguments are validated through
// checker when one is given.
func NewFileTools(checker safety.Checker) []core.Tool {
	check := func(op, path string) (bool, string) {
		if checker == nil {
			return true, ""
		}
		return checker.CheckFileOperation(op, path)
	}

	readFile := &funcTool{
		name:        "read_file",
		description: "Read the contents of a text file.",
		schema: WithExplanation(ObjectSchema(map[string]any{
			"path": StringProperty("Path of the file to read"),
		}, "path"), false),
		run: func(ctx context.Context, input json.RawMessage) *core.ToolResult {
			var in struct {
				core.BaseInput
				Path string `json:"path"`
			}
			if err := decode(input, &in); err != nil {
				return core.Fail("invalid arguments: " + err.Error())
			}
			if ok, reason := check("read", in.Path); !ok {
				return core.Fail(reason)
			}
			data, err := os.ReadFile(in.Path)
			if err != nil {
				return core.Fail(err.Error())
			}
			truncated := false
			if len(data) > maxReadBytes {
				data = data[:maxReadBytes]
				truncated = true
			}
			return core.OK(map[string]any{
				"path":      in.Path,
				"content":   string(data),
				"truncated": truncated,
			})
		},
	}

	writeFile := &funcTool{
		name:        "write_file",
		description: "Write content to a file, creating it if needed and overwriting existing content.",
		schema: WithExplanation(ObjectSchema(map[string]any{
			"path":    StringProperty("Path of the file to write"),
			"content": StringProperty("Content to write"),
		}, "path", "content"), false),
		run: func(ctx context.Context, input json.RawMessage) *core.ToolResult {
			var in struct {
				core.BaseInput
				Path    string `json:"path"`
				Content string `json:"content"`
			}
			if err := decode(input, &in); err != nil {
				return core.Fail("invalid arguments: " + err.Error())
			}
			if ok, reason := check("write", in.Path); !ok {
				return core.Fail(reason)
			}
			if dir := filepath.Dir(in.Path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return core.Fail(err.Error())
				}
			}
			if err := os.WriteFile(in.Path, []byte(in.Content), 0o644); err != nil {
				return core.Fail(err.Error())
			}
			return core.OK(map[string]any{
				"path":          in.Path,
				"bytes_written": len(in.Content),
			})
		},
	}

	listDir := &funcTool{
		name:        "list_directory",
		description: "List the entries of a directory.",
		schema: WithExplanation(ObjectSchema(map[string]any{
			"path": StringProperty("Directory to list (default: current directory)"),
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
				in.Path = "."
			}
			if ok, reason := check("read", in.Path); !ok {
				return core.Fail(reason)
			}
			entries, err := os.ReadDir(in.Path)
			if err != nil {
				return core.Fail(err.Error())
			}
			listing := make([]map[string]any, 0, len(entries))
			for _, e := range entries {
				item := map[string]any{
					"name": e.Name(),
					"dir":  e.IsDir(),
				}
				if info, err := e.Info(); err == nil && !e.IsDir() {
					item["size"] = info.Size()
				}
				listing = append(listing, item)
			}
			return core.OK(map[string]any{
				"path":    in.Path,
				"entries": listing,
			})
		},
	}

	searchFiles := &funcTool{
		name:        "search_files",
		description: "Search a directory for file names matching a glob pattern.",
		schema: WithExplanation(ObjectSchema(map[string]any{
			"directory": StringProperty("Directory to search in"),
			"pattern":   StringProperty("Glob pattern to match file names against (e.g., '*.go')"),
			"recursive": BooleanProperty("Descend into subdirectories (default true)"),
		}, "directory", "pattern"), false),
		run: func(ctx context.Context, input json.RawMessage) *core.ToolResult {
			var in struct {
				core.BaseInput
				Directory string `json:"directory"`
				Pattern   string `json:"pattern"`
				Recursive *bool  `json:"recursive"`
			}
			if err := decode(input, &in); err != nil {
				return core.Fail("invalid arguments: " + err.Error())
			}
			if ok, reason := check("read", in.Directory); !ok {
				return core.Fail(reason)
			}
			recursive := in.Recursive == nil || *in.Recursive

			var matches []string
			err := filepath.WalkDir(in.Directory, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return nil // skip unreadable entries
				}
				if d.IsDir() {
					if !recursive && path != in.Directory {
						return fs.SkipDir
					}
					if strings.HasPrefix(d.Name(), ".") && path != in.Directory {
						return fs.SkipDir
					}
					return nil
				}
				if ok, _ := filepath.Match(in.Pattern, d.Name()); ok {
					matches = append(matches, path)
				}
				return nil
			})
			if err != nil {
				return core.Fail(err.Error())
			}
			return core.OK(map[string]any{
				"directory": in.Directory,
				"pattern":   in.Pattern,
				"matches":   matches,
				"count":     len(matches),
			})
		},
	}

	return []core.Tool{readFile, writeFile, listDir, searchFiles}
}
