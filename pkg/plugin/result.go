package plugin

import (
	"encoding/json"
	"fmt"
)

// RiskLevel is the ordinal severity classification attached to a plugin's
// findings. The zero value means the plugin reported no risk assessment at
// all, which is distinct from an explicit RiskNone.
type RiskLevel int

const (
	// RiskUnset means the plugin did not assess risk.
	RiskUnset RiskLevel = iota
	// RiskNone means the plugin assessed the target and found nothing.
	RiskNone
	// RiskLow through RiskCritical order strictly: NONE < LOW < MEDIUM < HIGH < CRITICAL.
	RiskLow
	RiskMedium
	RiskHigh
	RiskCritical
)

// String returns the wire name of the risk level.
func (r RiskLevel) String() string {
	switch r {
	case RiskNone:
		return "NONE"
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	case RiskCritical:
		return "CRITICAL"
	default:
		return ""
	}
}

// MarshalJSON encodes the level as its wire name.
func (r RiskLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a wire name back into a level.
func (r *RiskLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "NONE":
		*r = RiskNone
	case "LOW":
		*r = RiskLow
	case "MEDIUM":
		*r = RiskMedium
	case "HIGH":
		*r = RiskHigh
	case "CRITICAL":
		*r = RiskCritical
	case "":
		*r = RiskUnset
	default:
		return fmt.Errorf("unknown risk level %q", s)
	}
	return nil
}

// Result is what one plugin run produces. The reserved fields (status,
// error, risk_level) are the conventions the scorer consumes; Extra
// carries each plugin's own structured detail (counts, nested sub-test
// outcomes). The whole thing marshals to one flat JSON object, so the
// aggregate stays a plain nested mapping suitable for direct serialization.
type Result struct {
	// Status is a short lifecycle marker, e.g. "completed" or "timeout".
	Status string

	// Error is set when the plugin itself failed; the engine substitutes
	// an error-only Result when Run returns an error or panics.
	Error string

	// Risk is the plugin's overall severity assessment.
	Risk RiskLevel

	// Extra holds plugin-specific keys merged into the same JSON object.
	// Values must be JSON-serializable. Reserved keys are ignored here.
	Extra map[string]any
}

// ErrorResult builds the substitute result for a failed plugin.
func ErrorResult(err error) Result {
	return Result{Error: err.Error()}
}

// Failed reports whether the plugin failed to produce findings.
func (r Result) Failed() bool { return r.Error != "" }

// reserved keys consumed by the scorer; Extra entries under these names
// are dropped rather than allowed to shadow the typed fields.
const (
	keyStatus = "status"
	keyError  = "error"
	keyRisk   = "risk_level"
)

// MarshalJSON flattens the reserved fields and Extra into one object.
func (r Result) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Extra)+3)
	for k, v := range r.Extra {
		if k == keyStatus || k == keyError || k == keyRisk {
			continue
		}
		m[k] = v
	}
	if r.Status != "" {
		m[keyStatus] = r.Status
	}
	if r.Error != "" {
		m[keyError] = r.Error
	}
	if r.Risk != RiskUnset {
		m[keyRisk] = r.Risk
	}
	return json.Marshal(m)
}

// UnmarshalJSON splits the flat object back into reserved fields and Extra.
func (r *Result) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*r = Result{}
	if raw, ok := m[keyStatus]; ok {
		if err := json.Unmarshal(raw, &r.Status); err != nil {
			return err
		}
		delete(m, keyStatus)
	}
	if raw, ok := m[keyError]; ok {
		if err := json.Unmarshal(raw, &r.Error); err != nil {
			return err
		}
		delete(m, keyError)
	}
	if raw, ok := m[keyRisk]; ok {
		if err := json.Unmarshal(raw, &r.Risk); err != nil {
			return err
		}
		delete(m, keyRisk)
	}
	if len(m) > 0 {
		r.Extra = make(map[string]any, len(m))
		for k, raw := range m {
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
			r.Extra[k] = v
		}
	}
	return nil
}
