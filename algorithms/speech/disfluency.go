package speech

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// PhraseSet lists the disfluency markers to look for. Entries are regular
// expression fragments (RE2 syntax) matched case-insensitively on word
// boundaries; plain phrases work as-is.
type PhraseSet struct {
	Name    string   `yaml:"name" json:"name"`
	Fillers []string `yaml:"fillers" json:"fillers"`
	Repairs []string `yaml:"repairs" json:"repairs"`
}

// DefaultPhraseSet returns the English hesitation and hedge markers plus
// the self-correction phrases.
func DefaultPhraseSet() PhraseSet {
	return PhraseSet{
		Name: "en",
		Fillers: []string{
			"um", "uh", "er", "ah", "hmm",
			"you know", "kinda", "kind of", "sorta",
			"lik[e]?", "i mean", "well",
		},
		Repairs: []string{
			"sorry", "i mean", "no[, ]+i mean", "let me", "actually",
		},
	}
}

// LoadPhraseSet reads a YAML phrase set, e.g. for another locale.
func LoadPhraseSet(path string) (PhraseSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PhraseSet{}, fmt.Errorf("read phrase set: %w", err)
	}
	var ps PhraseSet
	if err := yaml.Unmarshal(data, &ps); err != nil {
		return PhraseSet{}, fmt.Errorf("parse phrase set %s: %w", path, err)
	}
	if len(ps.Fillers) == 0 && len(ps.Repairs) == 0 {
		return PhraseSet{}, fmt.Errorf("phrase set %s is empty", path)
	}
	return ps, nil
}

// DisfluencyStats holds filler and self-repair counts for one transcript
type DisfluencyStats struct {
	WordCount         int     `json:"word_count"`
	FillerCount       int     `json:"filler_count"`
	SelfRepairCount   int     `json:"self_repair_count"`
	FillerPer100W     float64 `json:"filler_per_100w"`
	SelfRepairPer100W float64 `json:"self_repair_per_100w"`
}

var wordPattern = regexp.MustCompile(`[A-Za-z']+`)

// DisfluencyAnalyzer counts fillers and self-repairs in a transcript.
// It is immutable after construction and safe for concurrent use.
type DisfluencyAnalyzer struct {
	fillers *regexp.Regexp
	repairs *regexp.Regexp
}

// NewDisfluencyAnalyzer compiles the phrase set.
func NewDisfluencyAnalyzer(ps PhraseSet) (*DisfluencyAnalyzer, error) {
	fillers, err := compileAlternation(ps.Fillers, true)
	if err != nil {
		return nil, fmt.Errorf("filler patterns: %w", err)
	}
	repairs, err := compileAlternation(ps.Repairs, false)
	if err != nil {
		return nil, fmt.Errorf("repair patterns: %w", err)
	}
	return &DisfluencyAnalyzer{fillers: fillers, repairs: repairs}, nil
}

// compileAlternation builds one case-insensitive alternation. With
// perEntry each alternative carries its own word boundaries, otherwise the
// whole group is bounded once.
func compileAlternation(entries []string, perEntry bool) (*regexp.Regexp, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	parts := make([]string, len(entries))
	for i, e := range entries {
		if perEntry {
			parts[i] = `\b` + e + `\b`
		} else {
			parts[i] = e
		}
	}
	expr := "(?i)" + strings.Join(parts, "|")
	if !perEntry {
		expr = `(?i)\b(?:` + strings.Join(parts, "|") + `)\b`
	}
	return regexp.Compile(expr)
}

// Words returns the alphabetic tokens of text.
func Words(text string) []string {
	return wordPattern.FindAllString(text, -1)
}

// Analyze counts disfluencies. An empty transcript yields all zeros.
func (da *DisfluencyAnalyzer) Analyze(transcript string) DisfluencyStats {
	t := strings.TrimSpace(transcript)
	if t == "" {
		return DisfluencyStats{}
	}

	words := Words(t)
	stats := DisfluencyStats{WordCount: len(words)}

	if da.fillers != nil {
		stats.FillerCount = len(da.fillers.FindAllStringIndex(t, -1))
	}

	repeats := 0
	for i := 1; i < len(words); i++ {
		if strings.EqualFold(words[i], words[i-1]) {
			repeats++
		}
	}
	edits := 0
	if da.repairs != nil {
		edits = len(da.repairs.FindAllStringIndex(t, -1))
	}
	stats.SelfRepairCount = repeats + edits

	denom := float64(max(1, stats.WordCount))
	stats.FillerPer100W = float64(stats.FillerCount) * 100.0 / denom
	stats.SelfRepairPer100W = float64(stats.SelfRepairCount) * 100.0 / denom

	return stats
}
