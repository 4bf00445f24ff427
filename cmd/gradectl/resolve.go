package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/answerkey"
	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/grading"
)

type resolveOutput struct {
	Results []grading.MatchResult `json:"results"`
	Summary grading.Summary       `json:"summary"`
}

func newResolveCmd(o *rootOpts) *cobra.Command {
	var (
		keysFile     string
		detectedFile string
		page         int
		quick        bool
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Grade detected problems from a JSON file",
		Long: `Reads detected problems (a JSON array, or {"pageNumber": N, "problems": [...]})
and prints the verdicts with a summary as JSON.

With --keys the problems are matched against the answer key file. With --quick
no key is used and only the override rule is applied to the model's verdicts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !quick && keysFile == "" {
				return fmt.Errorf("--keys is required unless --quick is set")
			}
			ds, filePage, err := readDetected(detectedFile)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("page") {
				page = filePage
			}

			r := grading.NewResolver(grading.WithLogger(o.logger))
			var out resolveOutput
			if quick {
				out.Results, out.Summary = r.OverrideAll(ds)
			} else {
				_, records, err := answerkey.LoadFile(keysFile)
				if err != nil {
					return err
				}
				out.Results, out.Summary = r.ResolveAll(ds, answerkey.Keys(records), page)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&keysFile, "keys", "", "answer key YAML file")
	cmd.Flags().StringVar(&detectedFile, "detected", "", "detected problems JSON file")
	cmd.Flags().IntVar(&page, "page", 0, "document page used when a problem has no printed page")
	cmd.Flags().BoolVar(&quick, "quick", false, "grade without an answer key (override rule only)")
	_ = cmd.MarkFlagRequired("detected")
	return cmd
}

func readDetected(path string) ([]grading.DetectedProblem, int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var ds []grading.DetectedProblem
		if err := json.Unmarshal(b, &ds); err != nil {
			return nil, 0, fmt.Errorf("decode %s: %w", path, err)
		}
		return ds, 0, nil
	}
	var req struct {
		PageNumber int                       `json:"pageNumber"`
		Problems   []grading.DetectedProblem `json:"problems"`
	}
	if err := json.Unmarshal(b, &req); err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	return req.Problems, req.PageNumber, nil
}
