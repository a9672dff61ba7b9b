// Package report renders a Diagnosis as either a human-readable terminal
// report or a machine-readable JSON document, the two forms every cldiag
// subcommand's --json flag chooses between.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/trace2pass/cldiag/internal/diagnose"
	"github.com/trace2pass/cldiag/internal/stage"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	verdictBug    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	verdictUB     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	verdictPlain  = lipgloss.NewStyle().Bold(true)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// RenderHuman writes a plain-text summary of diag to w: a title underlined
// with "=", the verdict header lines, one section per stage that ran, and a
// pipeline context window around any culprit pass.
func RenderHuman(w io.Writer, diag diagnose.Diagnosis) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("cldiag diagnosis report") + "\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("source:"), diag.Reproducer.SourcePath)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("verdict:"), renderVerdict(diag.FinalVerdict))
	fmt.Fprintf(&b, "%s %.0f%%\n", labelStyle.Render("confidence:"), diag.FinalConfidence*100)
	fmt.Fprintf(&b, "%s %s\n\n", labelStyle.Render("elapsed:"), humanize.RelTime(diag.StartedAt, diag.FinishedAt, "", ""))

	writeStageSection(&b, "UB classification", diag.UB)
	if diag.RanVersionBisection() {
		writeStageSection(&b, "version bisection", diag.Version)
	}
	if diag.RanPassBisection() {
		writeStageSection(&b, "pass bisection", diag.Pass)
		writePipelineContext(&b, diag.Pass)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func renderVerdict(verdict string) string {
	switch verdict {
	case "compiler_bug", "compiler_regression":
		return verdictBug.Render(verdict)
	case "user_ub":
		return verdictUB.Render(verdict)
	default:
		return verdictPlain.Render(verdict)
	}
}

func writeStageSection(b *strings.Builder, title string, f stage.Finding) {
	if f.Stage == "" {
		return
	}
	fmt.Fprintf(b, "--- %s ---\n", title)
	fmt.Fprintf(b, "  verdict:    %s\n", f.Verdict)
	fmt.Fprintf(b, "  confidence: %.0f%%\n", f.Confidence*100)
	if f.FirstBadVersion != "" {
		fmt.Fprintf(b, "  first bad version: %s\n", f.FirstBadVersion)
		fmt.Fprintf(b, "  last good version: %s\n", f.LastGoodVersion)
	}
	if f.CulpritPass != "" {
		fmt.Fprintf(b, "  culprit pass: %s\n", f.CulpritPass)
	}
	if f.AttemptsMade > 0 {
		fmt.Fprintf(b, "  attempts made: %d\n", f.AttemptsMade)
	}
	for _, e := range f.Evidence {
		fmt.Fprintf(b, "  - %s\n", e)
	}
	b.WriteString("\n")
}

func writePipelineContext(b *strings.Builder, f stage.Finding) {
	if len(f.PipelineContext) == 0 {
		return
	}
	b.WriteString("  pipeline context:\n")
	for _, p := range f.PipelineContext {
		marker := "    "
		if p == f.CulpritPass {
			marker = "  > "
		}
		fmt.Fprintf(b, "%s%s\n", marker, p)
	}
	b.WriteString("\n")
}

// jsonDiagnosis is the wire shape for RenderJSON; it flattens Diagnosis into
// plain exported fields so it encodes predictably regardless of the internal
// struct's own json tags (Diagnosis has none, by design: its Go shape is
// allowed to evolve independently of the report's wire format).
type jsonDiagnosis struct {
	Source          string        `json:"source"`
	FinalVerdict    string        `json:"final_verdict"`
	FinalConfidence float64       `json:"final_confidence"`
	CulpritPass     string        `json:"culprit_pass,omitempty"`
	ElapsedSeconds  float64       `json:"elapsed_seconds"`
	UB              *stageJSON    `json:"ub_classification,omitempty"`
	Version         *stageJSON    `json:"version_bisection,omitempty"`
	Pass            *stageJSON    `json:"pass_bisection,omitempty"`
}

type stageJSON struct {
	Verdict         string   `json:"verdict"`
	Confidence      float64  `json:"confidence"`
	FirstBadVersion string   `json:"first_bad_version,omitempty"`
	LastGoodVersion string   `json:"last_good_version,omitempty"`
	CulpritPass     string   `json:"culprit_pass,omitempty"`
	PipelineContext []string `json:"pipeline_context,omitempty"`
	Evidence        []string `json:"evidence,omitempty"`
	AttemptsMade    int      `json:"attempts_made,omitempty"`
}

func toStageJSON(f stage.Finding) *stageJSON {
	if f.Stage == "" {
		return nil
	}
	return &stageJSON{
		Verdict:         f.Verdict,
		Confidence:      f.Confidence,
		FirstBadVersion: f.FirstBadVersion,
		LastGoodVersion: f.LastGoodVersion,
		CulpritPass:     f.CulpritPass,
		PipelineContext: f.PipelineContext,
		Evidence:        f.Evidence,
		AttemptsMade:    f.AttemptsMade,
	}
}

// RenderJSON writes diag to w as the machine-readable JSON document the
// analyze-report and full-pipeline commands emit under --json.
func RenderJSON(w io.Writer, diag diagnose.Diagnosis) error {
	doc := jsonDiagnosis{
		Source:          diag.Reproducer.SourcePath,
		FinalVerdict:    diag.FinalVerdict,
		FinalConfidence: diag.FinalConfidence,
		CulpritPass:     diag.CulpritPass,
		ElapsedSeconds:  diag.Duration().Seconds(),
		UB:              toStageJSON(diag.UB),
		Version:         toStageJSON(diag.Version),
		Pass:            toStageJSON(diag.Pass),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
