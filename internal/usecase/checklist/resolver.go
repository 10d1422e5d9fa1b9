package checklist

import (
	"log"

	"factory-qc-backend/internal/domain/template"
)

// ResolvedSection is one concrete checklist entry for a single inspection:
// the section plus the checkpoints that apply to this item.
type ResolvedSection struct {
	Section     template.Section
	Checkpoints []template.Checkpoint
}

// Resolve evaluates every checkpoint's conditional rule against the item
// metadata
// and returns the concrete ordered checklist. Sections whose every checkpoint
// was excluded are dropped. A rule that cannot be evaluated keeps its
// checkpoint applicable (fail-safe inclusion) and is logged; the caller's
// request still succeeds.
func Resolve(st *template.Structure, md template.Metadata) []ResolvedSection {
	out := make([]ResolvedSection, 0, len(st.Sections))
	for _, sec := range st.Sections {
		kept := make([]template.Checkpoint, 0, len(sec.Checkpoints))
		for _, cp := range sec.Checkpoints {
			if Applicable(cp, md) {
				kept = append(kept, cp)
			}
		}
		if len(kept) == 0 {
			continue
		}
		out = append(out, ResolvedSection{Section: sec.Section, Checkpoints: kept})
	}
	return out
}

// Applicable reports whether a single checkpoint applies to the item. No rule
// means always applicable.
func Applicable(cp template.Checkpoint, md template.Metadata) bool {
	if cp.Conditional == nil {
		return true
	}
	ok, err := cp.Conditional.Eval(md)
	if err != nil {
		log.Printf("checklist: checkpoint %s rule error, keeping applicable: %v", cp.Code, err)
		return true
	}
	return ok
}
