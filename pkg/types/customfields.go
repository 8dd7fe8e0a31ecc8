package types

import "encoding/json"

// Well-known custom field keys the migrator depends on. TestRail prefixes all
// install-defined fields with "custom_"; everything else in the bag is
// preserved opaquely.
const (
	FieldPreconds       = "custom_preconds"
	FieldSteps          = "custom_steps"
	FieldStepsSeparated = "custom_steps_separated"
	FieldExpected       = "custom_expected"
)

// CustomFields is the open-ended per-install extension bag carried by cases,
// tests and results. Keys and value types are defined by the source install;
// the bag is stored as JSON text and must survive a parse round-trip.
type CustomFields map[string]any

// ParseCustomFields decodes a serialized bag. A bag that fails to parse is
// treated as empty, never as an error.
func ParseCustomFields(raw string) CustomFields {
	if raw == "" {
		return CustomFields{}
	}
	var cf CustomFields
	if err := json.Unmarshal([]byte(raw), &cf); err != nil {
		return CustomFields{}
	}
	if cf == nil {
		cf = CustomFields{}
	}
	return cf
}

// Encode serializes the bag to JSON text for storage.
func (cf CustomFields) Encode() string {
	if len(cf) == 0 {
		return "{}"
	}
	b, err := json.Marshal(cf)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// String returns the named field as a string, or "" if absent or not a string.
func (cf CustomFields) String(key string) string {
	s, _ := cf[key].(string)
	return s
}

// SeparatedStep is one entry of a structured steps field.
type SeparatedStep struct {
	Content  string `json:"content"`
	Expected string `json:"expected"`
}

// SeparatedSteps returns the structured step list from the
// custom_steps_separated field, or nil if the field is absent or malformed.
func (cf CustomFields) SeparatedSteps() []SeparatedStep {
	v, ok := cf[FieldStepsSeparated]
	if !ok {
		return nil
	}
	// The field arrives as decoded JSON ([]any of maps); re-marshal to get
	// strongly typed steps without caring about the intermediate shape.
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var steps []SeparatedStep
	if err := json.Unmarshal(b, &steps); err != nil {
		return nil
	}
	return steps
}
