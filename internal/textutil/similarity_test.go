package textutil

import (
	"math"
	"testing"
)

func TestCosineSimilarityNil(t *testing.T) {
	tests := []struct {
		name string
		a    *Fingerprint
		b    *Fingerprint
		want float64
	}{
		{"both nil", nil, nil, 0},
		{"a nil", nil, NewFingerprint("red fox forest"), 0},
		{"b nil", NewFingerprint("red fox forest"), nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineSimilarityIdentical(t *testing.T) {
	text := "masterpiece, portrait of a knight, dramatic lighting"
	got := CosineSimilarity(NewFingerprint(text), NewFingerprint(text))
	if math.Abs(got-1) > 1e-9 {
		t.Errorf("CosineSimilarity(identical) = %v, want 1.0", got)
	}
}

func TestCosineSimilarityIgnoresWeightsAndCase(t *testing.T) {
	a := NewFingerprint("(Portrait:1.3), KNIGHT, [armor]")
	b := NewFingerprint("portrait knight armor")
	got := CosineSimilarity(a, b)
	if math.Abs(got-1) > 1e-9 {
		t.Errorf("CosineSimilarity(weighted vs plain) = %v, want 1.0", got)
	}
}

func TestCosineSimilarityDisjoint(t *testing.T) {
	got := CosineSimilarity(NewFingerprint("castle dragon mountain"), NewFingerprint("beach sunset palm"))
	if got != 0 {
		t.Errorf("CosineSimilarity(disjoint) = %v, want 0", got)
	}
}

func TestCosineSimilarityPartialOverlapSymmetric(t *testing.T) {
	a := NewFingerprint("red fox in snowy forest")
	b := NewFingerprint("grey wolf in snowy forest")
	ab := CosineSimilarity(a, b)
	if ab <= 0 || ab >= 1 {
		t.Fatalf("CosineSimilarity(partial) = %v, want between 0 and 1", ab)
	}
	if ba := CosineSimilarity(b, a); ab != ba {
		t.Errorf("CosineSimilarity not symmetric: (%v, %v)", ab, ba)
	}
}

func TestCosineSimilarityZeroNorm(t *testing.T) {
	a := &Fingerprint{tokens: map[string]float64{}, norm: 0}
	if got := CosineSimilarity(a, NewFingerprint("red fox forest")); got != 0 {
		t.Errorf("CosineSimilarity(zero norm) = %v, want 0", got)
	}
}

func TestNewFingerprintEmptyAndShort(t *testing.T) {
	for _, text := range []string{"", "a an it to", "1024, 768, 42", "N/A"} {
		if fp := NewFingerprint(text); fp != nil {
			t.Errorf("NewFingerprint(%q) = %+v, want nil", text, fp)
		}
	}
}

func TestNewFingerprintNormCalculation(t *testing.T) {
	// cat:2, hat:1 -> sqrt(5)
	fp := NewFingerprint("cat, cat in a hat")
	if fp == nil {
		t.Fatal("expected fingerprint")
	}
	if math.Abs(fp.norm-math.Sqrt(5)) > 0.0001 {
		t.Errorf("norm = %v, want %v", fp.norm, math.Sqrt(5))
	}
	if fp.TokenCount() != 2 {
		t.Errorf("TokenCount = %d, want 2", fp.TokenCount())
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"simple words", "Golden Hour", []string{"golden", "hour"}},
		{"weight syntax", "(masterpiece:1.2), a cat, 8k", []string{"masterpiece", "cat"}},
		{"lora tag", "<lora:detail_tweaker:0.8> city", []string{"lora", "detail", "tweaker", "city"}},
		{"folds unicode", "STRASSE Straße", []string{"strasse", "strasse"}},
		{"keeps mixed alphanumerics", "sdxl1 4k 1girl", []string{"sdxl1", "1girl"}},
		{"empty string", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize() = %v (len %d), want %v (len %d)",
					got, len(got), tt.want, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestWithIDFDownweightsCommonTerms(t *testing.T) {
	docs := []string{
		"masterpiece knight castle",
		"masterpiece dragon cave",
		"masterpiece wizard tower",
	}
	corpus := NewCorpus()
	for _, d := range docs {
		corpus.Add(NewFingerprint(d))
	}
	idf := corpus.IDF()
	if idf["masterpiece"] >= idf["knight"] {
		t.Fatalf("expected common term to weigh less: %v", idf)
	}

	query := NewFingerprint("masterpiece knight").WithIDF(idf)
	withCommon := NewFingerprint("masterpiece dragon cave").WithIDF(idf)
	withRare := NewFingerprint("knight castle").WithIDF(idf)
	if CosineSimilarity(query, withRare) <= CosineSimilarity(query, withCommon) {
		t.Fatal("expected rare shared term to dominate after IDF weighting")
	}

	var nilCorpus *Corpus
	nilCorpus.Add(NewFingerprint("x y z"))
	if nilCorpus.IDF() != nil {
		t.Fatal("expected nil IDF for nil corpus")
	}
}

func TestRank(t *testing.T) {
	query := NewFingerprint("red fox snowy forest")
	candidates := map[int64]*Fingerprint{
		1: NewFingerprint("red fox snowy forest"),
		2: NewFingerprint("grey wolf snowy forest"),
		3: NewFingerprint("beach sunset"),
		4: nil,
		5: NewFingerprint("red fox snowy forest"),
	}

	got := Rank(query, candidates, 0, 0)
	if len(got) != 3 {
		t.Fatalf("expected 3 matches, got %+v", got)
	}
	if got[0].ID != 1 || got[1].ID != 5 || got[2].ID != 2 {
		t.Fatalf("unexpected order %+v", got)
	}

	if limited := Rank(query, candidates, 0, 1); len(limited) != 1 || limited[0].ID != 1 {
		t.Fatalf("unexpected limited result %+v", limited)
	}
	if strict := Rank(query, candidates, 0.9, 0); len(strict) != 2 {
		t.Fatalf("expected threshold to drop partial match, got %+v", strict)
	}
	if Rank(nil, candidates, 0, 0) != nil {
		t.Fatal("expected nil for nil query")
	}
}
