// Package redact scrubs secret-shaped substrings out of plugin-originated
// log lines before they reach the Environment Port's LogInfo/LogError
// (e.g. a plugin's config diagnostic echoing back a token it was just
// configured with).
//
// Grounded on the teacher's internal/infrastructure/redaction/redactor.go:
// same two-phase design (gitleaks detector first, then a short list of
// high-confidence regex fallbacks), same ScrubString signature. The
// teacher's path-based redaction (Redact, walk, isPathMatch, hash mode) is
// dropped, not adapted: weft's log lines are plain strings produced by the
// Pipeline Driver and Config Binder, never the nested JSON config trees the
// teacher's path matching was built for, so there is nothing for a "path"
// to denote here.
package redact

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
)

// Scrubber replaces secret-shaped substrings with "[REDACTED]".
type Scrubber struct {
	patterns []*regexp.Regexp
	detector *detect.Detector
}

// defaultPatterns is the teacher's fallback list, used when the line
// contains something gitleaks' own pattern set doesn't recognize.
var defaultPatterns = []string{
	`\b((?:AKIA|ABIA|ACCA|ASIA)[0-9A-Z]{16})\b`,
	`-----BEGIN [A-Z ]+ PRIVATE KEY-----`,
	`gh[pousr]_[A-Za-z0-9_]{36,255}`,
	`xox[baprs]-([0-9a-zA-Z]{10,48})?`,
}

// New builds a Scrubber. Gitleaks' own detector initialization failing
// (malformed default config) is not fatal: the regex fallbacks still run.
func New() (*Scrubber, error) {
	s := &Scrubber{patterns: make([]*regexp.Regexp, 0, len(defaultPatterns))}

	if detector, err := newGitleaksDetector(); err == nil {
		s.detector = detector
	}

	for _, p := range defaultPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling default redaction pattern %s: %w", p, err)
		}
		s.patterns = append(s.patterns, re)
	}
	return s, nil
}

func newGitleaksDetector() (*detect.Detector, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(strings.NewReader(config.DefaultConfig)); err != nil {
		return nil, fmt.Errorf("reading gitleaks default config: %w", err)
	}

	var vc config.ViperConfig
	if err := v.Unmarshal(&vc); err != nil {
		return nil, fmt.Errorf("unmarshaling gitleaks config: %w", err)
	}

	cfg, err := vc.Translate()
	if err != nil {
		return nil, fmt.Errorf("translating gitleaks config: %w", err)
	}
	return detect.NewDetector(cfg), nil
}

// Scrub replaces every secret-shaped substring of line with "[REDACTED]".
func (s *Scrubber) Scrub(line string) string {
	if line == "" {
		return ""
	}
	result := line

	if s.detector != nil {
		findings := s.detector.Detect(detect.Fragment{Raw: result})
		for _, finding := range findings {
			result = strings.ReplaceAll(result, finding.Secret, "[REDACTED]")
		}
	}

	for _, re := range s.patterns {
		result = re.ReplaceAllString(result, "[REDACTED]")
	}
	return result
}
