// Package operations exposes post-deployment actions on tokens produced by
// the wizard: mint, burn, lock, block and transfer. Every action is
// policy-checked before it is handed to the crypto operation gateway.
package operations

// ExecuteRequest is a post-deployment operation on a deployed token.
type ExecuteRequest struct {
	Amount string `json:"amount,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// ExecuteResponse reports the submitted transaction.
type ExecuteResponse struct {
	TransactionHash string `json:"transaction_hash"`
	Status          string `json:"status"`
	GasEstimate     string `json:"gas_estimate,omitempty"`
}
