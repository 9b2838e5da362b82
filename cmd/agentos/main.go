// Command agentos is the interactive computer-automation agent CLI.
package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentos-dev/agentos-go/config"
	"github.com/agentos-dev/agentos-go/engine"
	"github.com/agentos-dev/agentos-go/llm"
	"github.com/agentos-dev/agentos-go/memory"
	"github.com/agentos-dev/agentos-go/memory/embedder/cached"
	"github.com/agentos-dev/agentos-go/memory/embedder/mock"
	"github.com/agentos-dev/agentos-go/safety"
	"github.com/agentos-dev/agentos-go/tools"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "agentos",
		Short: "Natural-language computer automation agent",
		Long: "AgentOS controls your computer through natural language.\n" +
			"It runs shell commands, manages files, launches applications and\n" +
			"monitors the system, remembering what it did across sessions.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	root.AddCommand(chatCmd(&configPath))
	root.AddCommand(runCmd(&configPath))
	root.AddCommand(historyCmd(&configPath))
	root.AddCommand(prefCmd(&configPath))
	root.AddCommand(cleanupCmd(&configPath))
	return root
}

// buildMemory wires the three memory tiers from config. The semantic
// tier uses the deterministic embedder wrapped in a ristretto cache;
// builds tagged onnx swap in a real model via the same interface.
func buildMemory(cfg *config.Config) (*memory.Manager, func(), error) {
	long, err := memory.OpenLongTerm(cfg.Memory.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open long-term store: %w", err)
	}

	emb, err := cached.New(mock.New(), 0)
	if err != nil {
		long.Close()
		return nil, nil, fmt.Errorf("create embedder: %w", err)
	}

	sem, err := memory.OpenSemantic(cfg.Memory.VectorPath, emb)
	if err != nil {
		long.Close()
		emb.Close()
		return nil, nil, fmt.Errorf("open semantic index: %w", err)
	}

	short := memory.NewShortTerm(cfg.Memory.ShortTermCapacity)
	mgr := memory.NewManager(short, long, sem)

	cleanup := func() {
		long.Close()
		emb.Close()
	}
	return mgr, cleanup, nil
}

// buildEngine assembles the agent. confirm may be nil for non-interactive
// commands; the confirmation gate is skipped without it.
func buildEngine(cfg *config.Config, mgr *memory.Manager, confirm engine.ConfirmFunc) (*engine.Engine, error) {
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("no API key configured (set ANTHROPIC_API_KEY)")
	}
	client := llm.NewAnthropic(&cfg.LLM)

	var checker safety.Checker
	if cfg.Safety.Enabled {
		checker = safety.NewChecker(cfg.Safety.ExtraDangerousCommands)
	}
	registry := engine.NewToolRegistry()
	registry.Register(tools.NewShellTool(checker))
	registry.RegisterAll(tools.NewFileTools(checker))
	registry.RegisterAll(tools.NewAppTools())
	registry.RegisterAll(tools.NewSystemTools())

	opts := []engine.Option{engine.WithMemory(mgr)}
	if cfg.Safety.Enabled && cfg.Safety.RequireConfirmation && confirm != nil {
		opts = append(opts, engine.WithSafety(checker, confirm))
	}
	return engine.NewEngine(client, registry, opts...), nil
}

// promptConfirm asks on stdin whether a tool call should proceed.
func promptConfirm(scanner *bufio.Scanner) engine.ConfirmFunc {
	return func(description string) bool {
		fmt.Printf("Confirm %s? [y/N] ", description)
		if !scanner.Scan() {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		return answer == "y" || answer == "yes"
	}
}

func chatCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			mgr, cleanup, err := buildMemory(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			scanner := bufio.NewScanner(os.Stdin)
			eng, err := buildEngine(cfg, mgr, promptConfirm(scanner))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Println("AgentOS ready. Type 'exit' to quit, 'clear' to reset the session.")
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					break
				}
				line := strings.TrimSpace(scanner.Text())
				switch line {
				case "":
					continue
				case "exit", "quit":
					return nil
				case "clear":
					mgr.ClearSession()
					fmt.Println("Session cleared.")
					continue
				}

				out, err := eng.Run(ctx, line)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					log.Printf("[CLI] Request failed: %v", err)
					fmt.Println("Error:", err)
					continue
				}
				fmt.Println(out.Text)
			}
			return scanner.Err()
		},
	}
}

func runCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run <request>",
		Short: "Process a single request and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			mgr, cleanup, err := buildMemory(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			eng, err := buildEngine(cfg, mgr, nil)
			if err != nil {
				return err
			}

			out, err := eng.Run(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Println(out.Text)
			return nil
		},
	}
}

func historyCmd(configPath *string) *cobra.Command {
	var limit int
	var successOnly bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent command history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			long, err := memory.OpenLongTerm(cfg.Memory.DBPath)
			if err != nil {
				return err
			}
			defer long.Close()

			records, err := long.CommandHistory(cmd.Context(), limit, successOnly)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("No command history.")
				return nil
			}
			for _, rec := range records {
				status := "ok"
				if !rec.Success {
					status = "failed"
				}
				fmt.Printf("%s  [%s]  %s\n", rec.Timestamp.Format("2006-01-02 15:04:05"), status, rec.Command)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum records to show")
	cmd.Flags().BoolVar(&successOnly, "success-only", false, "show only successful commands")
	return cmd
}

func prefCmd(configPath *string) *cobra.Command {
	pref := &cobra.Command{
		Use:   "pref",
		Short: "Manage stored preferences",
	}

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Read a preference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			long, err := memory.OpenLongTerm(cfg.Memory.DBPath)
			if err != nil {
				return err
			}
			defer long.Close()

			value, err := long.GetPreference(cmd.Context(), args[0], "")
			if err != nil {
				return err
			}
			if value == "" {
				fmt.Println("(not set)")
				return nil
			}
			fmt.Println(value)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			long, err := memory.OpenLongTerm(cfg.Memory.DBPath)
			if err != nil {
				return err
			}
			defer long.Close()

			return long.SetPreference(cmd.Context(), args[0], args[1])
		},
	}

	pref.AddCommand(get, set)
	return pref
}

func cleanupCmd(configPath *string) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete history older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if days < 0 {
				days = cfg.Memory.RetentionDays
			}
			long, err := memory.OpenLongTerm(cfg.Memory.DBPath)
			if err != nil {
				return err
			}
			defer long.Close()

			removed, err := long.CleanupOldData(cmd.Context(), days)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d records older than %d days.\n", removed, days)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", -1, "retention window in days (default from config)")
	return cmd
}
