// Package gateway is the client boundary to the crypto operation gateway,
// the service that actually submits chain transactions. Nonce management,
// RPC provider selection and wallet custody live behind it.
package gateway

import (
	"time"

	"github.com/tokenforge/wizard-middleware/pkg/metadata"
)

// Config holds gateway connection settings.
type Config struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DeployRequest asks the gateway to deploy a token from a completed wizard
// configuration.
type DeployRequest struct {
	AssetClass     string           `json:"asset_class"`
	InstrumentType string           `json:"instrument_type"`
	Name           string           `json:"name"`
	Symbol         string           `json:"symbol"`
	URI            string           `json:"uri,omitempty"`
	Metadata       []metadata.Field `json:"metadata,omitempty"`
}

// DeployResult identifies the deployed token.
type DeployResult struct {
	TokenRef        string `json:"token_ref"`
	TransactionHash string `json:"transaction_hash"`
}

// Operation names the post-deployment token operations the gateway exposes.
type Operation string

const (
	OpMint     Operation = "mint"
	OpBurn     Operation = "burn"
	OpLock     Operation = "lock"
	OpBlock    Operation = "block"
	OpTransfer Operation = "transfer"
)

// Valid reports whether op is a known gateway operation.
func (op Operation) Valid() bool {
	switch op {
	case OpMint, OpBurn, OpLock, OpBlock, OpTransfer:
		return true
	}
	return false
}

// OperationRequest is the payload for a post-deployment token operation.
type OperationRequest struct {
	Amount string `json:"amount,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// OperationResult reports the submitted transaction.
type OperationResult struct {
	TransactionHash string `json:"transaction_hash"`
	Status          string `json:"status"`
}
