package memory

import "testing"

func TestTokenize(t *testing.T) {
	tokens := tokenize("The Market for generative-art is growing, growing fast!")

	for _, want := range []string{"market", "generative", "art", "growing", "fast"} {
		if !tokens[want] {
			t.Errorf("expected token %q in %v", want, tokens)
		}
	}
	if tokens["the"] || tokens["for"] || tokens["is"] {
		t.Errorf("stop words must be dropped, got %v", tokens)
	}
	if tokens["be"] {
		t.Errorf("short words must be dropped, got %v", tokens)
	}
}

func TestOverlapScore(t *testing.T) {
	query := tokenize("art market analysis")
	candidate := tokenize("deep analysis of the art scene")

	if got := overlapScore(query, candidate); got != 2 {
		t.Errorf("expected overlap 2 (art, analysis), got %d", got)
	}
	if got := overlapScore(query, tokenize("weather report")); got != 0 {
		t.Errorf("expected zero overlap, got %d", got)
	}
}
