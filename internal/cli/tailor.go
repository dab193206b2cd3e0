package cli

import (
	"context"
	"fmt"
	"io"

	"resumetailor/internal/common"
	"resumetailor/internal/errors"
	"resumetailor/internal/tailoring"
	"resumetailor/internal/types"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var tailorCmd = &cobra.Command{
	Use:   "tailor [resume-file] [job-description-file]",
	Short: "Score a resume against a job description and list its gaps",
	Long: `Synthesize a benchmark candidate from the job description, score the
resume against it and generate a gap checklist. Resume files may be plain text,
markdown, .docx or .pdf.

Gap actions from the checklist can be applied in the same run with --apply,
which edits the resume and re-scores it. Gap ids are printed with the
checklist; gaps the remote service returns without an id get one derived from
their content, so a later run that receives the same checklist can apply them.
Use --export to write the final resume to the configured export destination.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if tailorConfig.OutputFormat == "" {
			tailorConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(tailorConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runTailor,
}

var (
	tailorConfig  common.CommandConfig
	tailorOptions tailorRunOptions
)

type tailorRunOptions struct {
	Job    tailoring.JobContext
	Apply  []string
	Export bool
}

type tailorInput struct {
	Resume         string
	JobDescription string
}

func init() {
	tailorCmd.Flags().StringVarP(&tailorConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	tailorCmd.Flags().StringVar(&tailorConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	tailorCmd.Flags().StringVar(&tailorOptions.Job.JobTitle, "job-title", "", "Job title hint for benchmark synthesis")
	tailorCmd.Flags().StringVar(&tailorOptions.Job.CompanyName, "company", "", "Company name hint for benchmark synthesis")
	tailorCmd.Flags().StringVar(&tailorOptions.Job.Industry, "industry", "", "Industry hint for benchmark synthesis")
	tailorCmd.Flags().StringArrayVar(&tailorOptions.Apply, "apply", nil, "Gap id to apply after analysis (repeatable); ids are listed in the text and markdown output and stay the same for the same checklist")
	tailorCmd.Flags().BoolVar(&tailorOptions.Export, "export", false, "Export the final resume")

	_ = tailorCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.OutputFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runTailor(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	rt, err := newRuntime(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer rt.Close()

	cmdConfig := tailorConfig
	cmdConfig.MaxFileSize = cfg.App.MaxFileSize

	createInput := func(contents []string) (tailorInput, error) {
		if len(contents) != 2 {
			return tailorInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		return tailorInput{Resume: contents[0], JobDescription: contents[1]}, nil
	}

	logDetails := func(input tailorInput, cfg common.CommandConfig) {
		logger.Info("Starting resume tailoring",
			"resume_chars", len(input.Resume),
			"job_chars", len(input.JobDescription),
			"gaps_to_apply", len(tailorOptions.Apply),
			"output_format", cfg.OutputFormat)
	}

	var final types.SessionState
	operation := func(ctx context.Context, input tailorInput) (types.SessionState, error) {
		state, runErr := runTailorSession(ctx, rt, input, tailorOptions, cmd.ErrOrStderr())
		final = state
		return state, runErr
	}

	if err := common.RunCommand(ctx, logger, cmdConfig, args, createInput, operation, logDetails); err != nil {
		return fmt.Errorf("failed to tailor resume: %w", err)
	}
	if final.Error != "" {
		return errors.NewRemoteError(errors.ErrCodeRemoteFailed, final.Error, nil)
	}

	logger.Info("Resume tailoring completed successfully")
	return nil
}

// runTailorSession analyzes the input, applies the requested gaps in order and
// optionally exports. A failed stage is reported through the returned state.
func runTailorSession(ctx context.Context, rt *runtime, input tailorInput, opts tailorRunOptions, notices io.Writer) (types.SessionState, error) {
	controller, err := rt.newSession(uuid.NewString())
	if err != nil {
		return types.SessionState{}, err
	}
	defer func() { _ = controller.Close() }()

	state := controller.AnalyzeJob(ctx, input.Resume, input.JobDescription, opts.Job)
	if state.Error != "" {
		return state, nil
	}

	for _, gapID := range opts.Apply {
		if !controller.ApplyGapAction(ctx, gapID) {
			rt.logger.Warn("Skipping unknown gap", "gap_id", gapID)
			continue
		}
		if state = controller.State(); state.Error != "" {
			return state, nil
		}
	}

	if opts.Export {
		result, err := controller.ExportResume(ctx)
		if err != nil {
			return controller.State(), err
		}
		_, _ = fmt.Fprintf(notices, "Exported %s to %s\n", result.Filename, result.Location)
	}

	return controller.State(), nil
}
