package catalog

import "encoding/json"

// FieldMap renders p as a generic map keyed by its JSON field names, for
// the badge rule engine's dot-path condition resolver (see internal/badges).
// This is the "dynamic map projection" option from the design notes: the
// resolver walks this map rather than using reflection directly.
func (p *Product) FieldMap() map[string]any {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
