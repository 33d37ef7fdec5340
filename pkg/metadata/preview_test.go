package metadata

import "testing"

func previewResult(size int) *Result {
	return &Result{
		Name:   "Acme Corp Stock",
		Symbol: "ACME",
		URI:    "https://example.com/acme.json",
		AdditionalMetadata: []Field{
			{Key: "asset_class", Value: "equity"},
			{Key: "instrument_type", Value: "common_stock"},
		},
		Validation: Validation{Valid: true, EstimatedSize: size},
	}
}

func TestRender_ByteBreakdown(t *testing.T) {
	res := previewResult(500)

	p := Render(res)

	wantStandard := len(res.Name) + len(res.Symbol) + len(res.URI)
	if p.StandardFieldsBytes != wantStandard {
		t.Fatalf("expected %d standard bytes, got %d", wantStandard, p.StandardFieldsBytes)
	}
	if p.AdditionalFieldsBytes != 500 {
		t.Fatalf("expected the builder's estimate verbatim, got %d", p.AdditionalFieldsBytes)
	}
	if p.FieldCount != 2 {
		t.Fatalf("expected 2 fields, got %d", p.FieldCount)
	}
}

func TestRender_SizeSeverityBands(t *testing.T) {
	tests := []struct {
		size     int
		severity SizeSeverity
	}{
		{0, SeverityNormal},
		{500, SeverityNormal},
		{899, SeverityNormal},
		{900, SeverityNearLimit},
		{1024, SeverityNearLimit},
		{1025, SeverityOverLimit},
		{4096, SeverityOverLimit},
	}

	for _, tt := range tests {
		if got := Render(previewResult(tt.size)).Severity; got != tt.severity {
			t.Errorf("size %d: expected %s, got %s", tt.size, tt.severity, got)
		}
	}
}

func TestRender_UsagePercentClampsAt100(t *testing.T) {
	if got := Render(previewResult(512)).UsagePercent; got != 50 {
		t.Fatalf("expected 50%%, got %d%%", got)
	}
	if got := Render(previewResult(2048)).UsagePercent; got != 100 {
		t.Fatalf("expected clamp at 100%%, got %d%%", got)
	}
}

func TestRender_StatusPrecedence(t *testing.T) {
	res := previewResult(500)
	res.Validation.Warnings = []string{"no off-chain metadata URI set"}
	res.Validation.Errors = []string{"symbol is required"}
	res.Validation.Valid = false

	if got := Render(res).Status; got != StatusFailed {
		t.Fatalf("errors must win: expected %s, got %s", StatusFailed, got)
	}

	res.Validation.Errors = nil
	if got := Render(res).Status; got != StatusWarnings {
		t.Fatalf("warnings beat passed: expected %s, got %s", StatusWarnings, got)
	}

	res.Validation.Warnings = nil
	if got := Render(res).Status; got != StatusPassed {
		t.Fatalf("expected %s, got %s", StatusPassed, got)
	}
}
