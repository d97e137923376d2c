package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/andrewmcadoo/nexus/internal/errs"
	"github.com/andrewmcadoo/nexus/internal/eventlog"
	"github.com/andrewmcadoo/nexus/internal/executor"
	nexuslog "github.com/andrewmcadoo/nexus/internal/log"
	"github.com/andrewmcadoo/nexus/internal/settings"
)

type runFlags struct {
	model     string
	baseURL   string
	files     []string
	maxTokens int
	temp      float32
}

// newRunCommand builds "nexus run <task>": load settings, mint a run
// ID, open that run's event log, and drive one executor call against
// the task, logging every step as it goes.
func newRunCommand(global *GlobalFlags) *cobra.Command {
	rf := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run <task>",
		Short: "Propose code edits for a natural-language task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyEnvDefaults(global, cmd)
			return runRun(cmd, global, rf, args[0])
		},
	}

	cmd.Flags().StringVar(&rf.model, "model", "", "override the completion model")
	cmd.Flags().StringVar(&rf.baseURL, "base-url", "", "override the API base URL")
	cmd.Flags().StringArrayVar(&rf.files, "file", nil, "a file to include as context (repeatable)")
	cmd.Flags().IntVar(&rf.maxTokens, "max-tokens", 0, "cap the completion's token budget (0 = provider default)")
	cmd.Flags().Float32Var(&rf.temp, "temperature", 0, "sampling temperature")

	return cmd
}

func runRun(cmd *cobra.Command, global *GlobalFlags, rf *runFlags, task string) error {
	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}

	logger := nexuslog.New(levelConfig(global.Verbose))

	runID := executor.GenerateRunID()
	logPath, err := runLogPath(runID)
	if err != nil {
		return err
	}

	writer, err := eventlog.Open(logPath)
	if err != nil {
		return err
	}
	defer writer.Close()

	runLogger := nexuslog.WithRunContext(logger, runID)
	runLogger.Info("run starting", nexuslog.String("task", task))

	if err := writer.Append(eventlog.RunStarted(runID, task)); err != nil {
		return err
	}

	opts := executor.ExecuteOptions{DryRun: global.DryRun}
	if rf.maxTokens > 0 {
		opts.MaxTokens = &rf.maxTokens
	}
	if rf.temp != 0 {
		opts.Temperature = &rf.temp
	}

	var actions []struct {
		ID      string
		Summary string
	}
	status := "completed"

	if !global.DryRun {
		apiKey, err := cfg.RequireAPIKey()
		if err != nil {
			return err
		}

		adapter := executor.NewAdapter(apiKey)
		if rf.model != "" {
			adapter.WithModel(rf.model)
		}
		if rf.baseURL != "" {
			adapter.WithBaseURL(rf.baseURL)
		}

		files, err := loadFileContexts(rf.files)
		if err != nil {
			return err
		}

		proposed, execErr := adapter.ExecuteWithLoggingID(cmd.Context(), runID, task, files, opts, writer)
		if execErr != nil {
			status = "failed"
			writer.Append(eventlog.RunCompleted(runID, status, 0))
			writer.Sync()
			return execErr
		}
		for _, a := range proposed {
			actions = append(actions, struct {
				ID      string
				Summary string
			}{a.ID, a.Summary})
		}
	}

	if err := writer.Append(eventlog.RunCompleted(runID, status, len(actions))); err != nil {
		return err
	}
	if err := writer.Sync(); err != nil {
		return err
	}

	return reportRun(global, runID, logPath, status, actions)
}

func reportRun(global *GlobalFlags, runID, logPath, status string, actions []struct {
	ID      string
	Summary string
}) error {
	if global.JSON {
		summary := struct {
			RunID   string   `json:"run_id"`
			Status  string   `json:"status"`
			LogPath string   `json:"log_path"`
			Actions []string `json:"proposed_actions"`
		}{RunID: runID, Status: status, LogPath: logPath}
		for _, a := range actions {
			summary.Actions = append(summary.Actions, a.ID)
		}
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(summary)
	}

	fmt.Printf("run %s %s\n", runID, status)
	for _, a := range actions {
		fmt.Printf("  %s  %s\n", a.ID, a.Summary)
	}
	fmt.Printf("log: %s\n", logPath)
	return nil
}

func loadConfig(global *GlobalFlags) (settings.Config, error) {
	if global.ConfigExplicit {
		return settings.LoadWithConfigPath(global.ConfigPath)
	}
	return settings.Load()
}

func runLogPath(runID string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", &errs.IoError{Operation: "resolve working directory", Cause: err}
	}
	dir := filepath.Join(cwd, ".nexus", "runs")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", &errs.IoError{Operation: "create run log directory", Path: dir, Cause: err}
	}
	return filepath.Join(dir, runID+".jsonl"), nil
}

func loadFileContexts(paths []string) ([]executor.FileContext, error) {
	files := make([]executor.FileContext, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, &errs.IoError{Operation: "read context file", Path: p, Cause: err}
		}
		files = append(files, executor.FileContext{
			Path:     p,
			Content:  string(data),
			Language: languageFromExt(filepath.Ext(p)),
		})
	}
	return files, nil
}

func languageFromExt(ext string) string {
	switch ext {
	case ".go":
		return "go"
	case ".rs":
		return "rust"
	case ".py":
		return "python"
	case ".js", ".mjs":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	default:
		return ""
	}
}

func levelConfig(verbose int) *nexuslog.Config {
	cfg := nexuslog.FromEnv()
	if level := nexuslog.LevelFromVerbosity(verbose); level != "" {
		cfg.Level = level
	}
	return cfg
}
