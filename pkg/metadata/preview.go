package metadata

// Status is the preview banner state, in priority order: any error wins over
// warnings, warnings win over a clean pass.
type Status string

const (
	StatusFailed   Status = "failed"
	StatusWarnings Status = "warnings"
	StatusPassed   Status = "passed"
)

// SizeSeverity classifies the estimated size against the on-chain budget.
type SizeSeverity string

const (
	SeverityNormal    SizeSeverity = "normal"
	SeverityNearLimit SizeSeverity = "near_limit"
	SeverityOverLimit SizeSeverity = "over_limit"
)

// Preview is a pure projection of a Result for display: byte breakdowns, the
// banner status and the size-pressure indicator. It never recomputes the
// builder's estimate.
type Preview struct {
	StandardFieldsBytes   int          `json:"standard_fields_bytes"`
	AdditionalFieldsBytes int          `json:"additional_fields_bytes"`
	FieldCount            int          `json:"field_count"`
	Status                Status       `json:"status"`
	Severity              SizeSeverity `json:"severity"`
	UsagePercent          int          `json:"usage_percent"`
}

// Render projects a Result into its display breakdown.
func Render(res *Result) Preview {
	p := Preview{
		StandardFieldsBytes:   len(res.Name) + len(res.Symbol) + len(res.URI),
		AdditionalFieldsBytes: res.Validation.EstimatedSize,
		FieldCount:            len(res.AdditionalMetadata),
	}

	switch {
	case len(res.Validation.Errors) > 0:
		p.Status = StatusFailed
	case len(res.Validation.Warnings) > 0:
		p.Status = StatusWarnings
	default:
		p.Status = StatusPassed
	}

	switch {
	case res.Validation.EstimatedSize > SizeCeilingBytes:
		p.Severity = SeverityOverLimit
	case res.Validation.EstimatedSize >= NearLimitBytes:
		p.Severity = SeverityNearLimit
	default:
		p.Severity = SeverityNormal
	}

	p.UsagePercent = res.Validation.EstimatedSize * 100 / SizeCeilingBytes
	if p.UsagePercent > 100 {
		p.UsagePercent = 100
	}
	return p
}
