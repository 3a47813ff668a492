package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/existflow/taskboard/internal/config"
	"github.com/existflow/taskboard/internal/logger"
	"github.com/existflow/taskboard/internal/realtime"
	"github.com/existflow/taskboard/internal/tui"
)

var (
	logLevel      string
	logFile       string
	logConsole    bool
	assumeYes     bool
	workspaceFlag string
)

var rootCmd = &cobra.Command{
	Use:   "taskboard",
	Short: "Taskboard - shared kanban boards in the terminal",
	Long: `Taskboard is a kanban task manager with workspaces, projects and
live collaboration.

Run 'taskboard' without arguments to open the board of the current workspace.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load config from file (or defaults if not exists)
		cfg, err := config.Load()
		if err != nil {
			logger.Warn("Failed to load config, using defaults", logger.F("error", err))
			cfg = config.DefaultConfig()
		}

		// Override with CLI flags if provided
		configChanged := false
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
			configChanged = true
		}
		if cmd.Flags().Changed("log-file") {
			cfg.LogFile = logFile
			configChanged = true
		}
		if cmd.Flags().Changed("log-console") {
			cfg.LogConsole = logConsole
			configChanged = true
		}

		// Save config if changed via CLI flags
		if configChanged {
			if err := cfg.Save(); err != nil {
				logger.Warn("Failed to save config", logger.F("error", err))
			}
		}

		logConfig := logger.Config{
			Level:      logger.ParseLevel(cfg.LogLevel),
			FilePath:   cfg.LogFile,
			MaxSize:    10 * 1024 * 1024, // 10MB
			MaxAge:     7,
			MaxBackups: 5,
			Console:    cfg.LogConsole,
		}

		if err := logger.Init(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.Debug("Taskboard started", logger.F("command", cmd.CommandPath()))
		return nil
	},

	RunE: runBoardTUI,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Debug("Taskboard exiting", logger.F("command", cmd.CommandPath()))
		logger.Close()
	},
}

// runBoardTUI opens the kanban board and keeps it fresh from the change feed
func runBoardTUI(cmd *cobra.Command, args []string) error {
	c, err := openClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wsID, err := workspaceID(ctx, c)
	if err != nil {
		return err
	}

	m := tui.NewModel(c, wsID)
	watcher := c.NewWatcher(wsID)
	watcher.SetOnChange(func(events []realtime.Event) {
		m.Notify(events)
	})
	go watcher.Run(ctx)

	logger.Info("Launching TUI", logger.F("workspace", wsID))
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", logger.F("error", err))
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	logger.Info("TUI exited normally")
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add logging flags
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.PersistentFlags().StringVarP(&workspaceFlag, "workspace", "w", "", "Workspace to act on (default: current)")

	// Add subcommands
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(workspaceCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(columnCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(subtaskCmd)
	rootCmd.AddCommand(inviteCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(settingsCmd)
}
