package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/Laisky/zap"
	"github.com/olekukonko/tablewriter"

	"github.com/syslm/parity/common/helper"
	"github.com/syslm/parity/openai"
)

// Backend binds a client to the model it serves under a display name.
type Backend struct {
	Name   string
	Client *openai.Client
	Model  string
}

// ScenarioReport aggregates everything observed for one scenario in one run:
// both backends' results (either may be absent when that backend was
// skipped), the expectation outcome, and the comparison diff.
type ScenarioReport struct {
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	Local               *ScenarioResult `json:"local,omitempty"`
	Reference           *ScenarioResult `json:"reference,omitempty"`
	ExpectationPassed   bool            `json:"expectation_passed"`
	ExpectationFeedback string          `json:"expectation_feedback,omitempty"`
	Comparison          map[string]any  `json:"comparison,omitempty"`
	Passed              bool            `json:"passed"`
}

// RunReport owns the full set of scenario reports for a run.
type RunReport struct {
	Scenarios []ScenarioReport `json:"scenarios"`
	Passed    int              `json:"passed"`
	Total     int              `json:"total"`
	Success   bool             `json:"success"`
}

// Runner drives the selected scenarios through both backends, strictly one
// scenario after another, the local call fully completing (including full
// stream drain) before the reference call begins.
type Runner struct {
	Local     *Backend // nil when the local backend is skipped
	Reference *Backend // nil when the reference backend is skipped
	Logger    glog.Logger
	Out       io.Writer // defaults to os.Stdout
}

func (r *Runner) out() io.Writer {
	if r.Out != nil {
		return r.Out
	}
	return os.Stdout
}

// Run executes all scenarios and returns the aggregated report. A scenario
// counts as passed only when its local result (if the local backend ran)
// succeeded and its expectations passed; the reference backend's outcome is
// informational only and never affects pass/fail.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) *RunReport {
	report := &RunReport{Total: len(scenarios)}

	for _, scenario := range scenarios {
		if r.Logger != nil {
			r.Logger.Info("running scenario",
				zap.String("scenario", scenario.Name),
				zap.Bool("stream", scenario.Request.Stream))
		}

		entry := ScenarioReport{
			Name:        scenario.Name,
			Description: scenario.Description,
		}

		if r.Local != nil {
			result := RunSingleRequest(ctx, r.Local.Client, scenario, r.Local.Model)
			entry.Local = &result
		}
		if r.Reference != nil {
			result := RunSingleRequest(ctx, r.Reference.Client, scenario, r.Reference.Model)
			entry.Reference = &result
		}

		if r.Local != nil {
			entry.ExpectationPassed, entry.ExpectationFeedback = Evaluate(entry.Local, scenario.Expectations)
		} else {
			// With the whole local side skipped there is nothing to hold the
			// expectations against.
			entry.ExpectationPassed = true
		}

		entry.Comparison = Compare(entry.Local, entry.Reference)
		entry.Passed = (entry.Local == nil || entry.Local.OK) && entry.ExpectationPassed

		if entry.Passed {
			report.Passed++
		} else if r.Logger != nil {
			r.Logger.Warn("scenario failed",
				zap.String("scenario", scenario.Name),
				zap.String("feedback", entry.ExpectationFeedback))
		}

		r.renderScenario(entry)
		report.Scenarios = append(report.Scenarios, entry)
	}

	report.Success = report.Passed == report.Total
	r.renderSummary(report)
	return report
}

// renderScenario prints one scenario's side-by-side console block. Both
// backends' blocks always render, even when one failed, so a failure can be
// read against a success.
func (r *Runner) renderScenario(entry ScenarioReport) {
	w := r.out()
	title := fmt.Sprintf("Scenario: %s — %s", entry.Name, entry.Description)
	fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("=", len(title)))

	r.renderResultBlock(w, "local", entry.Local)
	r.renderResultBlock(w, "reference", entry.Reference)

	if entry.ExpectationFeedback != "" {
		fmt.Fprintf(w, "expectations: %s\n", entry.ExpectationFeedback)
	}
	if entry.Comparison != nil {
		if pretty, err := json.MarshalIndent(entry.Comparison, "  ", "  "); err == nil {
			fmt.Fprintf(w, "diff:\n  %s\n", string(pretty))
		}
	}
}

func (r *Runner) renderResultBlock(w io.Writer, label string, result *ScenarioResult) {
	fmt.Fprintf(w, "[%s]\n", label)
	if result == nil {
		fmt.Fprintln(w, "  (skipped)")
		return
	}
	if result.Error != "" {
		fmt.Fprintf(w, "  error: %s\n", result.Error)
	}
	if result.Summary != nil {
		pretty, err := json.MarshalIndent(result.Summary, "", "  ")
		if err == nil {
			fmt.Fprintln(w, "  summary:")
			for _, line := range strings.Split(string(pretty), "\n") {
				fmt.Fprintf(w, "    %s\n", line)
			}
		}
	}
	fmt.Fprintln(w)
}

// renderSummary prints the final pass/fail matrix and totals line.
func (r *Runner) renderSummary(report *RunReport) {
	w := r.out()
	fmt.Fprintln(w)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Scenario", "Local", "Reference", "Expectation", "Diff"})
	table.SetAutoWrapText(false)
	for _, entry := range report.Scenarios {
		table.Append([]string{
			entry.Name,
			formatResultCell(entry.Local),
			formatResultCell(entry.Reference),
			formatExpectationCell(entry),
			formatDiffCell(entry.Comparison),
		})
	}
	table.Render()

	fmt.Fprintf(w, "\nPassed %d/%d scenarios\n", report.Passed, report.Total)
}

func formatResultCell(result *ScenarioResult) string {
	switch {
	case result == nil:
		return "skipped"
	case result.OK:
		return fmt.Sprintf("ok (%dms)", result.ElapsedMS)
	default:
		reason := result.Error
		if reason == "" {
			reason = "failed"
		}
		return "FAIL " + helper.Shorten(reason, 48)
	}
}

func formatExpectationCell(entry ScenarioReport) string {
	if entry.ExpectationPassed {
		return "pass"
	}
	return "FAIL " + helper.Shorten(entry.ExpectationFeedback, 48)
}

func formatDiffCell(diff map[string]any) string {
	if diff == nil {
		return "none"
	}
	keys := make([]string, 0, len(diff))
	for key := range diff {
		keys = append(keys, key)
	}
	// Stable output across runs.
	slices.Sort(keys)
	return strings.Join(keys, ", ")
}

// WriteFile serializes the report as indented JSON, creating parent
// directories as needed.
func (rep *RunReport) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create report directory")
		}
	}
	payload, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal report")
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return errors.Wrap(err, "write report file")
	}
	return nil
}
