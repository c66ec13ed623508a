package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"mindcue/internal/types"
)

func TestSplitList(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{in: "", want: []string{}},
		{in: "a", want: []string{"a"}},
		{in: " a , b,,c ", want: []string{"a", "b", "c"}},
		{in: "Speed, speed, SPEED, Privacy", want: []string{"Speed", "Privacy"}},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, SplitList(tc.in)); diff != "" {
			t.Fatalf("SplitList(%q) (-want +got):\n%s", tc.in, diff)
		}
	}
}

func TestSetFieldRoundTripsEveryField(t *testing.T) {
	analysis := &types.Analysis{}
	for _, field := range Fields() {
		value := "value for " + string(field)
		if field.IsList() {
			value = "one, two"
		}
		if err := SetField(analysis, field, value); err != nil {
			t.Fatalf("SetField(%s): %v", field, err)
		}
		if got := FieldValue(analysis, field); got != value {
			t.Fatalf("FieldValue(%s) = %q, want %q", field, got, value)
		}
		if field.Label() == string(field) {
			t.Fatalf("expected a display label for %s", field)
		}
	}
}

func TestSetFieldKeepsTextVerbatim(t *testing.T) {
	analysis := SampleAnalysis(testURL)
	if err := SetField(analysis, FieldProductDescription, "Secure storage "); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	if analysis.Product.Description != "Secure storage " {
		t.Fatalf("text field should not be trimmed while typing, got %q", analysis.Product.Description)
	}
	if err := SetField(nil, FieldProductName, "x"); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("expected ErrNoDraft, got %v", err)
	}
	if err := SetField(analysis, Field("bogus"), "x"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestValidateAnalysis(t *testing.T) {
	if err := ValidateAnalysis(nil); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("expected ErrNoDraft, got %v", err)
	}
	analysis := SampleAnalysis(testURL)
	if err := ValidateAnalysis(analysis); err != nil {
		t.Fatalf("expected sample analysis to be valid: %v", err)
	}
	analysis.Product.Name = " "
	if err := ValidateAnalysis(analysis); !errors.Is(err, ErrInvalidDraft) {
		t.Fatalf("expected ErrInvalidDraft, got %v", err)
	}
}

func TestPhaseHelpers(t *testing.T) {
	waiting := map[Phase]bool{
		PhaseProcessing:         true,
		PhaseStrategyProcessing: true,
		PhaseScriptProcessing:   true,
	}
	for _, phase := range Phases() {
		if !phase.Valid() {
			t.Fatalf("expected %s to be valid", phase)
		}
		if phase.Waiting() != waiting[phase] {
			t.Fatalf("unexpected Waiting() for %s", phase)
		}
		if (len(StatusLines(phase)) > 0) != waiting[phase] {
			t.Fatalf("status lines only belong to waiting phases, got %s", phase)
		}
	}
	if Phase("done").Valid() {
		t.Fatalf("unexpected valid phase")
	}
}

func TestCannedScriptWriterUsesDefaults(t *testing.T) {
	scripts, err := CannedScriptWriter{}.WriteScripts(context.Background(), types.Analysis{})
	if err != nil {
		t.Fatalf("WriteScripts: %v", err)
	}
	if len(scripts) != 2 {
		t.Fatalf("expected 2 scripts, got %d", len(scripts))
	}
	for _, script := range scripts {
		if script.ID == "" || script.Version != 1 {
			t.Fatalf("unexpected script metadata %#v", script)
		}
		if !strings.Contains(script.Scenes[2].Text, "et started") {
			t.Fatalf("expected default call to action, got %q", script.Scenes[2].Text)
		}
	}
	if scripts[0].ID == scripts[1].ID {
		t.Fatalf("expected distinct ids")
	}
}

func TestStrategySummary(t *testing.T) {
	summary := Strategy()
	if len(summary.Concepts) != 3 || summary.HealthScore != "85/100" {
		t.Fatalf("unexpected strategy %#v", summary)
	}
}
