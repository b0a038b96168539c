package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/brandscope/internal/analyzer"
)

var (
	analyzeURL  string
	analyzeMode string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full analysis pipeline for a URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initAnalyzer(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := env.Analyzer.Run(ctx, analyzeURL)
		if err != nil {
			return eris.Wrap(err, "analysis run")
		}

		zap.L().Info("analysis complete",
			zap.String("url", report.URL),
			zap.Int("categories", len(report.Categories)),
			zap.Float64("elapsed_secs", report.ElapsedSecs),
		)

		return printJSON(report)
	},
}

// stageCmd builds one per-stage subcommand that runs the pipeline up to
// the named stage and prints its output.
func stageCmd(use, short string, run func(context.Context, *analyzer.Analyzer) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			env, err := initAnalyzer(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			out, err := run(ctx, env.Analyzer)
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	analyzeCmd.PersistentFlags().StringVar(&analyzeURL, "url", "", "landing page URL (required)")
	analyzeCmd.PersistentFlags().StringVar(&analyzeMode, "mode", "", "classification mode: rules or model (default from config)")
	_ = analyzeCmd.MarkPersistentFlagRequired("url")

	analyzeCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if !validURL(analyzeURL) {
			return eris.Errorf("url must start with http:// or https://: %q", analyzeURL)
		}
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		if analyzeMode != "" {
			cfg.Analyzer.Mode = analyzeMode
		}
		return nil
	}

	analyzeCmd.AddCommand(
		stageCmd("categories", "Classify product categories only", func(ctx context.Context, a *analyzer.Analyzer) (any, error) {
			return a.ClassifyCategories(ctx, analyzeURL)
		}),
		stageCmd("segments", "Derive user segments per category", func(ctx context.Context, a *analyzer.Analyzer) (any, error) {
			return a.DeriveSegments(ctx, analyzeURL)
		}),
		stageCmd("questions", "Generate questions per segment", func(ctx context.Context, a *analyzer.Analyzer) (any, error) {
			return a.GenerateQuestions(ctx, analyzeURL)
		}),
		stageCmd("answers", "Generate answers per question", func(ctx context.Context, a *analyzer.Analyzer) (any, error) {
			return a.GenerateAnswers(ctx, analyzeURL)
		}),
		stageCmd("brands", "Extract brand mentions from answers", func(ctx context.Context, a *analyzer.Analyzer) (any, error) {
			return a.ExtractBrands(ctx, analyzeURL)
		}),
	)

	rootCmd.AddCommand(analyzeCmd)
}
