// tydo is a terminal task manager over a shared JSON list file.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bborn/tydo/internal/config"
	"github.com/bborn/tydo/internal/store"
	tysync "github.com/bborn/tydo/internal/sync"
	"github.com/bborn/tydo/internal/task"
	"github.com/bborn/tydo/internal/ui"
	"github.com/bborn/tydo/internal/viewstate"
)

var (
	version = "dev"

	// Styles for CLI output
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func main() {
	var (
		filePath string
		interval time.Duration
	)

	rootCmd := &cobra.Command{
		Use:     "tydo",
		Short:   "Terminal to-do list",
		Long:    "A terminal to-do list whose file can be edited from any number of sessions at once.",
		Version: version,
		Run: func(cmd *cobra.Command, args []string) {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				fmt.Fprintln(os.Stderr, errorStyle.Render("Error: tydo requires a terminal; use 'tydo list' for scripted output"))
				os.Exit(1)
			}
			if err := runTUI(filePath, interval); err != nil {
				fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
				os.Exit(1)
			}
		},
	}

	rootCmd.SetVersionTemplate(`{{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&filePath, "file", "", "Path to the task list file (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&interval, "interval", 0, "Sync interval (overrides config)")

	addCmd := &cobra.Command{
		Use:   "add [text]",
		Short: "Add a task without opening the UI",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			text := args[0]
			for _, a := range args[1:] {
				text += " " + a
			}
			if err := runAdd(filePath, interval, text); err != nil {
				fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
				os.Exit(1)
			}
		},
	}
	rootCmd.AddCommand(addCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the task list",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runList(filePath); err != nil {
				fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
				os.Exit(1)
			}
		},
	}
	rootCmd.AddCommand(listCmd)

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the task list file path",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig(filePath, 0)
			fmt.Println(cfg.File)
		},
	}
	rootCmd.AddCommand(pathCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flag overrides. Config
// trouble is reported but never fatal.
func loadConfig(filePath string, interval time.Duration) config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, dimStyle.Render("config: "+err.Error()+" (using defaults)"))
	}
	if filePath != "" {
		cfg.File = config.ExpandPath(filePath)
	}
	if interval > 0 {
		cfg.Interval = config.Duration(interval)
	}
	return cfg
}

func runTUI(filePath string, interval time.Duration) error {
	cfg := loadConfig(filePath, interval)

	// While the alt screen is up, log output must not hit the terminal.
	logger, closeLog := fileLogger()
	defer closeLog()

	st := store.New(cfg.File)
	mergedCh := make(chan task.List, 8)
	syncer := tysync.New(st, tysync.Options{
		Interval: time.Duration(cfg.Interval),
		OnMerged: func(tasks task.List) {
			select {
			case mergedCh <- tasks:
			default:
			}
		},
		Logger: logger,
	})
	if err := syncer.Start(); err != nil {
		return err
	}
	defer syncer.Stop()

	state, err := viewstate.Open(viewstate.DefaultPath())
	if err != nil {
		logger.Warn("view state unavailable", "err", err)
		state = nil
	}
	if state != nil {
		defer state.Close()
	}

	model := ui.New(syncer, state, cfg.File, mergedCh)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func runAdd(filePath string, interval time.Duration, text string) error {
	cfg := loadConfig(filePath, interval)
	st := store.New(cfg.File)
	syncer := tysync.New(st, tysync.Options{
		Interval: time.Duration(cfg.Interval),
		Logger:   log.New(os.Stderr),
	})
	if err := syncer.Start(); err != nil {
		return err
	}
	created, ok := syncer.ApplyCreate(text)
	// Stop flushes the pending create to the file.
	syncer.Stop()
	if !ok {
		return fmt.Errorf("task text is empty")
	}
	fmt.Println(dimStyle.Render("added ") + created.DisplayText())
	return nil
}

func runList(filePath string) error {
	cfg := loadConfig(filePath, 0)
	tasks, err := store.New(cfg.File).Read()
	if err != nil {
		return err
	}
	for _, t := range tasks {
		box := "[ ]"
		if t.Done {
			box = "[x]"
		}
		fmt.Printf("%s %s\n", box, t.Text)
	}
	return nil
}

// fileLogger returns a logger writing to ~/.local/share/tydo/tydo.log, or a
// discarding logger when the file cannot be opened.
func fileLogger() (*log.Logger, func()) {
	home, err := os.UserHomeDir()
	if err != nil {
		return log.New(os.Stderr), func() {}
	}
	dir := filepath.Join(home, ".local", "share", "tydo")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return log.New(os.Stderr), func() {}
	}
	f, err := os.OpenFile(filepath.Join(dir, "tydo.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return log.New(os.Stderr), func() {}
	}
	logger := log.NewWithOptions(f, log.Options{
		Prefix:          "tydo",
		ReportTimestamp: true,
	})
	return logger, func() { f.Close() }
}
