// Package output provides structured result formatters for a weft run,
// grounded on the teacher's internal/infrastructure/output/sarif.go and
// sarif_mapper.go: same go-sarif/v3 report/run construction, one rule per
// distinct finding kind plus one result per Finding, simplified because a
// weft.Finding is a flat {path, plugin, message}, not a ControlResult with
// nested observations, severity, tags, and duration.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"

	"github.com/weftfmt/weft/internal/application/services"
	"github.com/weftfmt/weft/internal/version"
)

// SARIFReporter implements services.Reporter, collecting Findings as they
// stream in from parallel Pipeline workers and writing them as a single
// SARIF 2.1.0 run on WriteTo.
type SARIFReporter struct {
	mu       sync.Mutex
	cwd      string
	findings []services.Finding
}

// NewSARIFReporter constructs a SARIFReporter.
func NewSARIFReporter() *SARIFReporter {
	cwd, _ := os.Getwd()
	return &SARIFReporter{cwd: cwd}
}

// Report records one Finding. Safe for concurrent use by Pipeline workers.
func (r *SARIFReporter) Report(f services.Finding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findings = append(r.findings, f)
}

// WriteTo writes every collected Finding as a SARIF 2.1.0 document.
func (r *SARIFReporter) WriteTo(w io.Writer) error {
	r.mu.Lock()
	findings := append([]services.Finding{}, r.findings...)
	r.mu.Unlock()

	report := sarif.NewReport()
	run := sarif.NewRunWithInformationURI("weft", "https://github.com/weftfmt/weft")
	v := version.Get().Version
	run.Tool.Driver.Version = &v

	rules := map[string]bool{}
	for _, f := range findings {
		ruleID := ruleIDFor(f)
		if !rules[ruleID] {
			rules[ruleID] = true
			run.Tool.Driver.AddRule(newRule(ruleID, f))
		}
		run.AddResult(r.mapResult(ruleID, f))
	}

	report.AddRun(run)
	if err := report.Write(w); err != nil {
		return fmt.Errorf("writing SARIF output: %w", err)
	}
	_, err := w.Write([]byte("\n"))
	return err
}

func ruleIDFor(f services.Finding) string {
	if f.IsError {
		return f.PluginName + "/format-error"
	}
	return f.PluginName + "/not-formatted"
}

func newRule(ruleID string, f services.Finding) *sarif.ReportingDescriptor {
	name := "File is not formatted"
	if f.IsError {
		name = "Plugin reported a formatting error"
	}
	rule := sarif.NewReportingDescriptor().WithID(ruleID)
	rule.WithName(name)
	rule.WithShortDescription(&sarif.MultiformatMessageString{Text: &name})

	level := "warning"
	if f.IsError {
		level = "error"
	}
	rule.WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: level})
	return rule
}

func (r *SARIFReporter) mapResult(ruleID string, f services.Finding) *sarif.Result {
	result := sarif.NewRuleResult(ruleID)
	result.Kind = "fail"
	if f.IsError {
		result.Level = "error"
	} else {
		result.Level = "warning"
	}
	result.Message = sarif.NewTextMessage(f.Message)

	uri := r.normalizeURI(f.Path)
	loc := sarif.NewLocation().WithPhysicalLocation(
		sarif.NewPhysicalLocation().WithArtifactLocation(
			sarif.NewArtifactLocation().WithURI(uri)))
	result.Locations = []*sarif.Location{loc}

	return result
}

func (r *SARIFReporter) normalizeURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	if r.cwd != "" {
		if rel, err := filepath.Rel(r.cwd, abs); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return "file://" + filepath.ToSlash(abs)
}
