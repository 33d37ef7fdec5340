// Package metadata generates and projects on-chain token metadata.
package metadata

// Size thresholds for the on-chain metadata account, in bytes. The ceiling
// matches the additional-metadata budget of the target chain programs.
const (
	SizeCeilingBytes = 1024
	NearLimitBytes   = 900
)

// Field is one key/value entry of the additional metadata. Order is
// significant and preserved from generation through deployment.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Validation is the outcome of generating metadata. Errors make the result
// undeployable; warnings are advisory. EstimatedSize is the projected
// on-chain footprint of the additional fields.
type Validation struct {
	Valid         bool     `json:"valid"`
	Errors        []string `json:"errors,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
	EstimatedSize int      `json:"estimated_size"`
}

// Result is a generated on-chain descriptor. A regeneration replaces the
// whole value; results are never merged.
type Result struct {
	Name               string     `json:"name"`
	Symbol             string     `json:"symbol"`
	URI                string     `json:"uri"`
	AdditionalMetadata []Field    `json:"additional_metadata"`
	Validation         Validation `json:"validation"`
}

// Field returns the value of an additional metadata entry by key.
func (r *Result) Field(key string) (string, bool) {
	for _, f := range r.AdditionalMetadata {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}
