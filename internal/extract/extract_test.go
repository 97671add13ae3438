package extract

import (
	"regexp"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   float64
		wantOK bool
	}{
		{"labelled with unit", "计数率：123.45 cps", 123.45, true},
		{"ascii colon", "计数率:88cps", 88, true},
		{"unit only", "Total 15 cps", 15, true},
		{"unit uppercase", "42 CPS", 42, true},
		{"label without unit", "计数率: 77.5", 77.5, true},
		{"english label", "rate: 9.25", 9.25, true},
		{"value label", "数值：512", 512, true},
		{"bare number", "   345.6\n", 345.6, true},
		{"number among text", "abc 12.34 def", 12.34, true},
		{"unit wins over earlier number", "ch1 7 then 300 cps", 300, true},
		{"upper bound inclusive", "100000", 100000, true},
		{"zero", "0", 0, true},
		{"too large everywhere", "99999999", 0, false},
		{"empty", "", 0, false},
		{"whitespace", " \t\n", 0, false},
		{"letters only", "no digits here", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("Extract(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Extract(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractFallsThroughOutOfRange(t *testing.T) {
	got, ok := Extract("计数率：200000 cps 数值：12")
	if !ok {
		t.Fatal("expected a value")
	}
	if got != 12 {
		t.Errorf("Extract = %v, want 12", got)
	}

	if _, ok := Extract("250000 cps"); ok {
		t.Error("250000 cps should not be found")
	}
}

func TestExtractorOptions(t *testing.T) {
	e := NewExtractor(WithRange(10, 20))
	if _, ok := e.Extract("5"); ok {
		t.Error("5 should be rejected by custom range")
	}
	if v, ok := e.Extract("15"); !ok || v != 15 {
		t.Errorf("Extract(15) = %v, %v", v, ok)
	}

	custom := NewExtractor(WithPatterns(regexp.MustCompile(`T=(\d+)`)))
	if v, ok := custom.Extract("x 3 T=40"); !ok || v != 40 {
		t.Errorf("custom pattern = %v, %v", v, ok)
	}
	if _, ok := custom.Extract("40"); ok {
		t.Error("custom extractor should only use its own pattern")
	}
}

func TestExtractResultInRange(t *testing.T) {
	inputs := []string{"1234567", "-5", "3.14159", "计数率：100001 cps", "a1b2c3"}
	for _, in := range inputs {
		if v, ok := Extract(in); ok && (v < DefaultMin || v > DefaultMax) {
			t.Errorf("Extract(%q) = %v outside range", in, v)
		}
	}
}
