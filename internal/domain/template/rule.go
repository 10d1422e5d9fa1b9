package template

import (
	"fmt"
)

// Metadata is the item attribute map a conditional rule is evaluated against.
// Values are JSON primitives: string, bool or float64.
type Metadata map[string]any

type RuleOp string

const (
	OpEq  RuleOp = "eq"
	OpNe  RuleOp = "ne"
	OpAll RuleOp = "all"
	OpAny RuleOp = "any"
	OpNot RuleOp = "not"
)

// Rule is a closed tagged expression over item metadata. It replaces the
// free-form evaluable strings the mobile clients used to ship: only the ops
// below exist, so there is nothing to inject.
//
// Leaf ops (eq, ne) compare Key against Value; combinators (all, any, not)
// operate on Args.
type Rule struct {
	Op    RuleOp `json:"op"`
	Key   string `json:"key,omitempty"`
	Value any    `json:"value,omitempty"`
	Args  []Rule `json:"args,omitempty"`
}

// RuleError reports a rule that could not be evaluated (unknown key, type
// mismatch, malformed node). Callers are expected to treat the checkpoint as
// applicable anyway (fail-safe inclusion).
type RuleError struct {
	Key    string
	Reason string
}

func (e *RuleError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("rule evaluation failed on key %q: %s", e.Key, e.Reason)
	}
	return "rule evaluation failed: " + e.Reason
}

// Eval evaluates the rule against md.
func (r *Rule) Eval(md Metadata) (bool, error) {
	switch r.Op {
	case OpEq, OpNe:
		got, ok := md[r.Key]
		if !ok {
			return false, &RuleError{Key: r.Key, Reason: "metadata key not present"}
		}
		eq, err := primitiveEqual(got, r.Value)
		if err != nil {
			return false, &RuleError{Key: r.Key, Reason: err.Error()}
		}
		if r.Op == OpNe {
			return !eq, nil
		}
		return eq, nil

	case OpAll:
		for i := range r.Args {
			ok, err := r.Args[i].Eval(md)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil

	case OpAny:
		for i := range r.Args {
			ok, err := r.Args[i].Eval(md)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil

	case OpNot:
		if len(r.Args) != 1 {
			return false, &RuleError{Reason: fmt.Sprintf("not takes exactly 1 arg, got %d", len(r.Args))}
		}
		ok, err := r.Args[0].Eval(md)
		if err != nil {
			return false, err
		}
		return !ok, nil
	}
	return false, &RuleError{Reason: fmt.Sprintf("unknown op %q", r.Op)}
}

// primitiveEqual compares two JSON primitives. Numeric values are normalized
// to float64 since both the rule column and the metadata snapshot round-trip
// through encoding/json.
func primitiveEqual(a, b any) (bool, error) {
	af, aNum := asFloat(a)
	bf, bNum := asFloat(b)
	if aNum && bNum {
		return af == bf, nil
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return false, fmt.Errorf("type mismatch: string vs %T", b)
		}
		return av == bv, nil
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return false, fmt.Errorf("type mismatch: bool vs %T", b)
		}
		return av == bv, nil
	}
	return false, fmt.Errorf("unsupported metadata type %T", a)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
