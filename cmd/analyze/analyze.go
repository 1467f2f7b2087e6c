// Package analyze implements the analyze command that runs the detection
// pipeline on local files.
package analyze

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tphakala/callguard/internal/analysis"
	"github.com/tphakala/callguard/internal/conf"
)

type options struct {
	robustness bool
	language   string
	compact    bool
}

// Command creates the analyze command.
func Command(settings *conf.Settings) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "analyze [file...]",
		Short: "Analyze audio files and print the JSON report",
		Long:  "Run the detection pipeline on one or more local WAV, MP3 or FLAC files and print one JSON report per file.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, settings, opts, args)
		},
	}

	cmd.Flags().BoolVarP(&opts.robustness, "robustness", "r", false, "Analyze a noise-injected copy of the audio")
	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "Language of the speaker; skips language detection")
	cmd.Flags().BoolVar(&opts.compact, "compact", false, "Print single-line JSON")

	return cmd
}

func run(cmd *cobra.Command, settings *conf.Settings, opts *options, paths []string) error {
	pipeline := analysis.NewFromSettings(settings)

	enc := json.NewEncoder(cmd.OutOrStdout())
	if !opts.compact {
		enc.SetIndent("", "  ")
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		report, err := pipeline.Analyze(cmd.Context(), analysis.Request{
			Data:       data,
			FormatHint: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
			Robustness: opts.robustness,
			Language:   opts.language,
		})
		if err != nil {
			return fmt.Errorf("failed to analyze %s: %w", path, err)
		}

		if err := enc.Encode(report); err != nil {
			return err
		}
	}

	return nil
}
