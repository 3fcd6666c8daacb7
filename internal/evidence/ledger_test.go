package evidence

import (
	"testing"

	"github.com/blakemckinniss/whitebox/internal/state"
)

func TestGainFirstObservationIsFullBase(t *testing.T) {
	tests := []struct {
		kind string
		want int
	}{
		{KindRead, 10},
		{KindSearch, 20},
		{KindVerify, 15},
		{KindVerifyStrong, 40},
		{"mystery-tool", 5},
	}
	for _, tt := range tests {
		if got := Gain(BaseGain(tt.kind), 1); got != tt.want {
			t.Errorf("first %s gain = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestGainDiminishesOnReObservation(t *testing.T) {
	base := GainRead
	first := Gain(base, 1)
	second := Gain(base, 2)
	third := Gain(base, 3)

	if second != 2 {
		t.Errorf("second read gain = %d, want 2", second)
	}
	if !(second < first) {
		t.Errorf("second gain %d not strictly smaller than first %d", second, first)
	}
	if third >= second {
		t.Errorf("third gain %d not smaller than second %d", third, second)
	}
}

func TestRecordLedgerSumEqualsConfidence(t *testing.T) {
	rec := state.NewRecord("sess")

	actions := []struct{ tool, target string }{
		{"Read", "main.go"},
		{"Read", "main.go"},
		{"WebSearch", "go atomic rename"},
		{"Bash", "go test ./..."},
		{"Read", "store.go"},
	}
	for _, a := range actions {
		Record(rec, a.tool, a.target)
	}

	sum := 0
	for _, item := range rec.Evidence {
		sum += item.Delta
	}
	if sum != rec.Confidence {
		t.Errorf("ledger sum %d != confidence %d", sum, rec.Confidence)
	}
	if rec.Confidence < 0 || rec.Confidence > 100 {
		t.Errorf("confidence %d out of [0,100]", rec.Confidence)
	}
}

func TestRecordClampsAtHundred(t *testing.T) {
	rec := state.NewRecord("sess")

	// Three strong verifications of distinct targets would sum to 120.
	Record(rec, "verify-strong", "cmd a")
	Record(rec, "verify-strong", "cmd b")
	item := Record(rec, "verify-strong", "cmd c")

	if rec.Confidence != 100 {
		t.Errorf("confidence = %d, want 100", rec.Confidence)
	}
	if item.Delta != 20 {
		t.Errorf("clamped delta = %d, want 20", item.Delta)
	}

	sum := 0
	for _, it := range rec.Evidence {
		sum += it.Delta
	}
	if sum != 100 {
		t.Errorf("ledger sum = %d, want 100", sum)
	}
}

func TestRecordReObservationCaseInsensitive(t *testing.T) {
	rec := state.NewRecord("sess")

	Record(rec, "Read", "Main.go")
	item := Record(rec, "Read", "main.go")

	if item.Delta != 2 {
		t.Errorf("re-read delta = %d, want 2", item.Delta)
	}
}

func TestPenalizeFloorsAtZero(t *testing.T) {
	rec := state.NewRecord("sess")
	Record(rec, "Read", "main.go") // +10

	Penalize(rec, "fabrication", "claimed verification of deploy", -20)
	if rec.Confidence != 0 {
		t.Errorf("confidence = %d, want 0", rec.Confidence)
	}

	sum := 0
	for _, it := range rec.Evidence {
		sum += it.Delta
	}
	if sum != rec.Confidence {
		t.Errorf("ledger sum %d != confidence %d after penalty", sum, rec.Confidence)
	}
}

func TestPenalizeNormalizesSign(t *testing.T) {
	rec := state.NewRecord("sess")
	rec.Confidence = 50

	item := Penalize(rec, "proposal-loop", "same plan three times", 15)
	if item.Delta != -15 {
		t.Errorf("delta = %d, want -15", item.Delta)
	}
	if rec.Confidence != 35 {
		t.Errorf("confidence = %d, want 35", rec.Confidence)
	}
}

func TestNormalizeKind(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Read", KindRead},
		{"Grep", KindRead},
		{"WebSearch", KindSearch},
		{"Bash", KindVerify},
		{"verify-strong", KindVerifyStrong},
		{"SomeCustomTool", "somecustomtool"},
	}
	for _, tt := range tests {
		if got := NormalizeKind(tt.in); got != tt.want {
			t.Errorf("NormalizeKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
