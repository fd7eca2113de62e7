package policy

import "testing"

func TestKeywordCheck(t *testing.T) {
	k := NewKeyword([]string{"forbidden", "secret sauce"}, false)

	tests := []struct {
		name string
		text string
		want int
	}{
		{"clean text", "how do I sort a slice in Go?", 0},
		{"single match", "tell me the FORBIDDEN thing", 1},
		{"multiple matches", "forbidden secret sauce", 2},
		{"empty text", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := k.Check(tt.text)
			if len(got) != tt.want {
				t.Fatalf("Check(%q) = %v, want %d reasons", tt.text, got, tt.want)
			}
		})
	}
}

func TestKeywordCaseSensitive(t *testing.T) {
	k := NewKeyword([]string{"Forbidden"}, true)
	if got := k.Check("forbidden"); len(got) != 0 {
		t.Fatalf("case-sensitive checker matched lowercase: %v", got)
	}
	if got := k.Check("Forbidden"); len(got) != 1 {
		t.Fatalf("case-sensitive checker missed exact case: %v", got)
	}
}

func TestKeywordIgnoresBlankTerms(t *testing.T) {
	k := NewKeyword([]string{"", "  ", "bad"}, false)
	if got := k.Check("nothing here"); len(got) != 0 {
		t.Fatalf("blank terms should never match, got %v", got)
	}
}

func TestAllowAll(t *testing.T) {
	if got := (AllowAll{}).Check("anything at all"); got != nil {
		t.Fatalf("AllowAll returned reasons: %v", got)
	}
}
