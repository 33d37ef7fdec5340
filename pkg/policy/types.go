// Package policy is the client boundary to the policy engine, which runs
// pre-transaction compliance validation. The engine's internals are opaque:
// this package only shapes requests and surfaces the itemized result.
package policy

import "time"

// Config holds policy engine connection settings.
type Config struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ValidationRequest describes a transaction to validate before submission.
type ValidationRequest struct {
	Operation      string            `json:"operation"`
	AssetClass     string            `json:"asset_class,omitempty"`
	InstrumentType string            `json:"instrument_type,omitempty"`
	Symbol         string            `json:"symbol,omitempty"`
	TokenRef       string            `json:"token_ref,omitempty"`
	Amount         string            `json:"amount,omitempty"`
	From           string            `json:"from,omitempty"`
	To             string            `json:"to,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// PolicyCheck is one evaluated policy.
type PolicyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// RuleCheck is one evaluated rule within a policy.
type RuleCheck struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Passed      bool   `json:"passed"`
}

// ValidationResult is the engine's verdict. Invalid is a normal outcome, not
// an error: callers refuse the operation and display Errors.
type ValidationResult struct {
	Valid       bool          `json:"valid"`
	Policies    []PolicyCheck `json:"policies,omitempty"`
	Rules       []RuleCheck   `json:"rules,omitempty"`
	Errors      []string      `json:"errors,omitempty"`
	GasEstimate string        `json:"gas_estimate,omitempty"`
}
