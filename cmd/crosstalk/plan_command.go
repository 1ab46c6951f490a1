package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"crosstalk/internal/commentary"
	"crosstalk/internal/config"
	"crosstalk/internal/media/ffprobe"
	"crosstalk/internal/pipeline"
	"crosstalk/internal/timeline"
)

const callPreviewWidth = 48

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var fromJSON string
	var clipsDir string
	var outputFormat string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show where each commentary line lands and where it gets cut off",
		Long: `Lay out a saved commentary document on the timeline without synthesizing.

When --clips-dir holds clips from an earlier run they are probed, so the table
shows real durations, truncations and dropped lines.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			source, err := config.ExpandPath(strings.TrimSpace(fromJSON))
			if err != nil {
				return err
			}
			if source == "" {
				return fmt.Errorf("--from-json is required")
			}
			dir, err := config.ExpandPath(strings.TrimSpace(clipsDir))
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("output-format") {
				cfg.Speech.OutputFormat = strings.ToLower(strings.TrimSpace(outputFormat))
			}

			doc, err := commentary.Load(source)
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			deps := pipeline.Dependencies{Prober: ffprobe.NewProber(cfg.FFprobeBinary())}
			plan, err := pipeline.New(cfg, deps, logger).Plan(cmd.Context(), doc, dir)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, planViewFrom(doc, plan))
			}
			renderPlan(cmd, doc, plan)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromJSON, "from-json", "", "Commentary document to plan")
	cmd.Flags().StringVar(&clipsDir, "clips-dir", "", "Directory holding clips from an earlier run")
	cmd.Flags().StringVar(&outputFormat, "output-format", "", "Output format the clips were synthesized with")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the plan as JSON")
	return cmd
}

type placementView struct {
	Index          int      `json:"index"`
	Timestamp      string   `json:"timestamp"`
	Commentator    string   `json:"commentator"`
	Label          string   `json:"label"`
	StartSeconds   float64  `json:"start_seconds"`
	NaturalSeconds float64  `json:"natural_seconds,omitempty"`
	EndSeconds     float64  `json:"end_seconds,omitempty"`
	CutoffSeconds  *float64 `json:"cutoff_seconds,omitempty"`
	Truncated      bool     `json:"truncated"`
	Dropped        bool     `json:"dropped"`
	Call           string   `json:"call"`
}

type planView struct {
	MatchSummary string          `json:"match_summary,omitempty"`
	SampleRate   int             `json:"sample_rate"`
	Layers       int             `json:"layers"`
	Placements   []placementView `json:"placements"`
}

func planViewFrom(doc *commentary.Commentary, plan timeline.Plan) planView {
	view := planView{
		MatchSummary: doc.MatchSummary(),
		SampleRate:   plan.SampleRate,
		Layers:       plan.LayerCount(),
		Placements:   make([]placementView, 0, len(plan.Placements)),
	}
	for _, p := range plan.Placements {
		event := doc.Event(p.Index)
		pv := placementView{
			Index:          p.Index + 1,
			Timestamp:      event.Timestamp,
			Commentator:    p.Commentator,
			Label:          speakerLabel(doc, p.Commentator),
			StartSeconds:   p.StartSeconds,
			NaturalSeconds: p.NaturalSeconds,
			EndSeconds:     p.EndSeconds,
			Truncated:      p.Truncated,
			Dropped:        p.Dropped,
			Call:           event.Call,
		}
		if p.Cutoff.Set {
			seconds := p.Cutoff.Seconds
			pv.CutoffSeconds = &seconds
		}
		view.Placements = append(view.Placements, pv)
	}
	return view
}

func renderPlan(cmd *cobra.Command, doc *commentary.Commentary, plan timeline.Plan) {
	out := cmd.OutOrStdout()
	if summary := doc.MatchSummary(); summary != "" {
		fmt.Fprintf(out, "Match: %s\n", summary)
	}
	if len(plan.Placements) == 0 {
		fmt.Fprintln(out, "No events to place")
		return
	}

	headers := []string{"#", "Time", "Speaker", "Start", "End", "Cutoff", "Status", "Call"}
	rows := make([][]string, 0, len(plan.Placements))
	for _, p := range plan.Placements {
		event := doc.Event(p.Index)
		rows = append(rows, []string{
			strconv.Itoa(p.Index + 1),
			event.Timestamp,
			speakerLabel(doc, p.Commentator),
			formatSeconds(p.StartSeconds),
			formatOptionalSeconds(p.EndSeconds),
			p.Cutoff.String(),
			placementStatus(p),
			truncateText(event.Call, callPreviewWidth),
		})
	}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft}
	fmt.Fprintln(out, renderTable(out, headers, rows, aligns))
	fmt.Fprintf(out, "%d of %d lines audible at %d Hz\n", len(plan.Audible()), len(plan.Placements), plan.SampleRate)
}

func speakerLabel(doc *commentary.Commentary, role string) string {
	if label := doc.Label(role); label != "" {
		return label
	}
	return role
}

func placementStatus(p timeline.Placement) string {
	switch {
	case p.Dropped:
		return "dropped"
	case p.Truncated:
		return "truncated"
	case p.NaturalSeconds == 0 && p.Cutoff.Set:
		return "cut"
	case p.NaturalSeconds == 0:
		return "pending"
	default:
		return "full"
	}
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 2, 64)
}

func formatOptionalSeconds(seconds float64) string {
	if seconds == 0 {
		return "-"
	}
	return formatSeconds(seconds)
}

func truncateText(value string, width int) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= width {
		return string(runes)
	}
	return string(runes[:width-1]) + "…"
}
