package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"resumetailor/internal/common"
	"resumetailor/internal/events"
	"resumetailor/internal/tailoring"
	"resumetailor/internal/watch"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [resume-file] [job-description-file]",
	Short: "Re-score a resume every time the file is saved",
	Long: `Analyze the resume against the job description once, then watch the
resume file. Every save updates the session text; edits that arrive within the
configured debounce delay coalesce into a single re-score of the latest text.

Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

var watchJob tailoring.JobContext

func init() {
	watchCmd.Flags().StringVar(&watchJob.JobTitle, "job-title", "", "Job title hint for benchmark synthesis")
	watchCmd.Flags().StringVar(&watchJob.CompanyName, "company", "", "Company name hint for benchmark synthesis")
	watchCmd.Flags().StringVar(&watchJob.Industry, "industry", "", "Industry hint for benchmark synthesis")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	rt, err := newRuntime(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer rt.Close()

	files := common.NewFileProcessor(logger, cfg.App.MaxFileSize)
	contents, err := files.ValidateAndReadFiles(args...)
	if err != nil {
		return err
	}

	recorder := events.NewRecorder(16)
	controller, err := rt.newSession(uuid.NewString(), recorder)
	if err != nil {
		return err
	}
	defer func() { _ = controller.Close() }()

	out := cmd.OutOrStdout()
	state := controller.AnalyzeJob(ctx, contents[0], contents[1], watchJob)
	if state.Error != "" {
		return fmt.Errorf("analysis failed: %s", state.Error)
	}
	printScore(out, "Initial score", state.ScoreBreakdown.OverallScore)

	resumePath := args[0]
	watcher := watch.New([]string{resumePath}, 0, func(path string) {
		text, err := files.ReadFile(path)
		if err != nil {
			logger.LogError(err, "Failed to read edited resume", "file", path)
			return
		}
		controller.UpdateResume(text)
	}, logger)
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to watch %s: %w", resumePath, err)
	}
	defer func() { _ = watcher.Stop() }()

	_, _ = fmt.Fprintf(out, "Watching %s (re-score after %s of inactivity)\n", resumePath, effectiveDebounce(cfg.Session.DebounceDelay))
	return reportEvents(ctx, recorder.C(), out)
}

// reportEvents prints re-score outcomes until ctx is done
func reportEvents(ctx context.Context, updates <-chan events.Event, out io.Writer) error {
	for {
		select {
		case <-ctx.Done():
			_, _ = fmt.Fprintln(out, "Stopped watching")
			return nil
		case event := <-updates:
			switch event.Type {
			case events.TypeRescoreCompleted:
				if event.OverallScore != nil {
					printScore(out, "Re-scored", *event.OverallScore)
				}
			case events.TypeFailed:
				_, _ = fmt.Fprintf(out, "Re-score failed: %s\n", event.Error)
			}
		}
	}
}

func printScore(out io.Writer, label string, score int) {
	_, _ = fmt.Fprintf(out, "%s: %d/100\n", label, score)
}

func effectiveDebounce(d time.Duration) time.Duration {
	if d <= 0 {
		return tailoring.DefaultDebounceDelay
	}
	return d
}
