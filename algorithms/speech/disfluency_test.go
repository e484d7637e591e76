package speech

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func mustAnalyzer(t *testing.T) *DisfluencyAnalyzer {
	t.Helper()
	da, err := NewDisfluencyAnalyzer(DefaultPhraseSet())
	if err != nil {
		t.Fatalf("NewDisfluencyAnalyzer: %v", err)
	}
	return da
}

func TestDisfluencyTwentyWordsTwoFillers(t *testing.T) {
	// 20 words, two of them "um"
	text := "Um I think the city should invest more money in public transport because um buses are cheap and clean today"
	stats := mustAnalyzer(t).Analyze(text)

	if stats.WordCount != 20 {
		t.Fatalf("word count = %d, want 20", stats.WordCount)
	}
	if stats.FillerCount != 2 {
		t.Fatalf("filler count = %d, want 2", stats.FillerCount)
	}
	if math.Abs(stats.FillerPer100W-10.0) > 1e-12 {
		t.Errorf("filler rate = %v, want 10", stats.FillerPer100W)
	}
}

func TestDisfluencySelfRepairs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"duplicate tokens", "I I went to the the shop", 2},
		{"edit phrase", "We left on Monday, actually Tuesday", 1},
		{"no i mean counts once", "It was red, no, I mean blue", 1},
		{"case insensitive duplicates", "The the end", 1},
		{"clean", "Everything went as planned", 0},
	}
	da := mustAnalyzer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := da.Analyze(tt.text).SelfRepairCount; got != tt.want {
				t.Errorf("self repairs = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDisfluencyFillersRespectWordBoundaries(t *testing.T) {
	stats := mustAnalyzer(t).Analyze("Umbrella sellers hummed; uh, you know, it was kinda wet")
	// uh, you know, kinda
	if stats.FillerCount != 3 {
		t.Fatalf("filler count = %d, want 3", stats.FillerCount)
	}
}

func TestDisfluencyEmptyTranscript(t *testing.T) {
	if got := mustAnalyzer(t).Analyze("   "); got != (DisfluencyStats{}) {
		t.Fatalf("empty transcript = %+v, want zero value", got)
	}
}

func TestLoadPhraseSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fr.yaml")
	content := "name: fr\nfillers:\n  - euh\n  - ben\nrepairs:\n  - pardon\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	ps, err := LoadPhraseSet(path)
	if err != nil {
		t.Fatalf("LoadPhraseSet: %v", err)
	}
	da, err := NewDisfluencyAnalyzer(ps)
	if err != nil {
		t.Fatal(err)
	}
	stats := da.Analyze("Euh je pense, pardon, je crois que ben oui")
	if stats.FillerCount != 2 || stats.SelfRepairCount != 1 {
		t.Fatalf("got %+v, want 2 fillers and 1 repair", stats)
	}
}

func TestNewDisfluencyAnalyzerRejectsBadPattern(t *testing.T) {
	if _, err := NewDisfluencyAnalyzer(PhraseSet{Fillers: []string{"(unclosed"}}); err == nil {
		t.Fatal("expected compile error")
	}
}
