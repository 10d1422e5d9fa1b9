package checklist

import (
	"testing"

	"factory-qc-backend/internal/domain/template"
)

func cp(code string, rule *template.Rule) template.Checkpoint {
	return template.Checkpoint{
		CheckpointID:     "cp-" + code,
		Code:             code,
		SeverityIfFailed: template.SeverityMinor,
		Conditional:      rule,
	}
}

func structureOf(sections ...template.StructureSection) *template.Structure {
	return &template.Structure{
		Template: &template.Template{TemplateID: "t1", Version: 1},
		Sections: sections,
	}
}

func TestResolve_NoRulesKeepsEverything(t *testing.T) {
	st := structureOf(template.StructureSection{
		Section:     template.Section{SectionID: "s1", Ordinal: 1, Name: "Exterior"},
		Checkpoints: []template.Checkpoint{cp("paint", nil), cp("panel-gap", nil)},
	})

	got := Resolve(st, template.Metadata{})
	if len(got) != 1 {
		t.Fatalf("expected 1 section, got %d", len(got))
	}
	if len(got[0].Checkpoints) != 2 {
		t.Fatalf("expected 2 checkpoints, got %d", len(got[0].Checkpoints))
	}
}

func TestResolve_ConditionalExclusion(t *testing.T) {
	euOnly := &template.Rule{Op: template.OpEq, Key: "market", Value: "EU"}
	st := structureOf(template.StructureSection{
		Section: template.Section{SectionID: "s1", Ordinal: 1, Name: "Electrical"},
		Checkpoints: []template.Checkpoint{
			cp("fuse", nil),
			cp("ce-label", euOnly),
		},
	})

	got := Resolve(st, template.Metadata{"market": "US"})
	if len(got) != 1 || len(got[0].Checkpoints) != 1 {
		t.Fatalf("expected 1 section with 1 checkpoint, got %+v", got)
	}
	if got[0].Checkpoints[0].Code != "fuse" {
		t.Fatalf("kept wrong checkpoint: %s", got[0].Checkpoints[0].Code)
	}

	got = Resolve(st, template.Metadata{"market": "EU"})
	if len(got[0].Checkpoints) != 2 {
		t.Fatalf("EU item should keep both checkpoints, got %d", len(got[0].Checkpoints))
	}
}

func TestResolve_DropsFullyExcludedSection(t *testing.T) {
	euOnly := &template.Rule{Op: template.OpEq, Key: "market", Value: "EU"}
	st := structureOf(
		template.StructureSection{
			Section:     template.Section{SectionID: "s1", Ordinal: 1, Name: "General"},
			Checkpoints: []template.Checkpoint{cp("serial", nil)},
		},
		template.StructureSection{
			Section:     template.Section{SectionID: "s2", Ordinal: 2, Name: "EU compliance"},
			Checkpoints: []template.Checkpoint{cp("ce-label", euOnly), cp("weee-mark", euOnly)},
		},
	)

	got := Resolve(st, template.Metadata{"market": "US"})
	if len(got) != 1 {
		t.Fatalf("expected excluded section dropped, got %d sections", len(got))
	}
	if got[0].Section.SectionID != "s1" {
		t.Fatalf("wrong surviving section: %s", got[0].Section.SectionID)
	}
}

func TestApplicable_FailSafeInclusion(t *testing.T) {
	// rule references a key the item does not carry: evaluation fails, the
	// checkpoint must stay applicable
	broken := &template.Rule{Op: template.OpEq, Key: "voltage", Value: 220}
	if !Applicable(cp("ground-pin", broken), template.Metadata{"market": "EU"}) {
		t.Fatal("unevaluable rule must keep checkpoint applicable")
	}

	// same for a malformed node
	malformed := &template.Rule{Op: template.RuleOp("between"), Key: "voltage"}
	if !Applicable(cp("ground-pin", malformed), template.Metadata{"voltage": float64(220)}) {
		t.Fatal("unknown op must keep checkpoint applicable")
	}
}

func TestApplicable_NilRuleAlwaysApplies(t *testing.T) {
	if !Applicable(cp("serial", nil), nil) {
		t.Fatal("nil rule must always apply")
	}
}
