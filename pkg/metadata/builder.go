package metadata

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/tokenforge/wizard-middleware/pkg/asset"
	"github.com/tokenforge/wizard-middleware/pkg/forms"
)

// Byte limits for the standard fields, matching the token metadata account
// layout of the deployment targets.
const (
	maxNameBytes   = 32
	maxSymbolBytes = 10
	maxURIBytes    = 200

	// Each additional field is stored TLV-encoded: 4-byte key length, key,
	// 4-byte value length, value.
	fieldOverheadBytes = 8
)

// BuildInput is the boundary payload for metadata generation: the chosen
// instrument type plus the decoded form data.
type BuildInput struct {
	AssetClass     asset.Class
	InstrumentType string
	Form           *forms.Decoded
}

// Builder produces a metadata Result from accumulated wizard input.
// A returned error means generation itself failed (malformed input); field
// level problems are reported through Result.Validation instead.
type Builder interface {
	Build(ctx context.Context, in BuildInput) (*Result, error)
}

type onChainBuilder struct {
	logger *zap.Logger
}

// NewBuilder returns the on-chain metadata builder.
func NewBuilder(logger *zap.Logger) Builder {
	return &onChainBuilder{logger: logger}
}

func (b *onChainBuilder) Build(ctx context.Context, in BuildInput) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if in.Form == nil {
		return nil, fmt.Errorf("metadata build: no form data")
	}
	if in.InstrumentType == "" {
		return nil, fmt.Errorf("metadata build: no instrument type")
	}

	res := &Result{
		Name:   in.Form.Name,
		Symbol: in.Form.Symbol,
		URI:    in.Form.URI,
	}

	res.AdditionalMetadata = append(res.AdditionalMetadata,
		Field{Key: "asset_class", Value: string(in.AssetClass)},
		Field{Key: "instrument_type", Value: in.InstrumentType},
	)
	if in.Form.Description != "" {
		res.AdditionalMetadata = append(res.AdditionalMetadata,
			Field{Key: "description", Value: in.Form.Description})
	}
	for _, f := range in.Form.Extra {
		res.AdditionalMetadata = append(res.AdditionalMetadata,
			Field{Key: f.Key, Value: f.Value})
	}
	res.AdditionalMetadata = append(res.AdditionalMetadata,
		Field{Key: "content_hash", Value: b.contentHash(res)})

	b.validate(res)

	b.logger.Debug("metadata generated",
		zap.String("symbol", res.Symbol),
		zap.String("instrument_type", in.InstrumentType),
		zap.Int("fields", len(res.AdditionalMetadata)),
		zap.Int("estimated_size", res.Validation.EstimatedSize),
		zap.Bool("valid", res.Validation.Valid),
	)
	return res, nil
}

// contentHash is the keccak-256 over the standard fields and additional
// entries, stored alongside the metadata so deployed state can be verified
// against what the wizard produced.
func (b *onChainBuilder) contentHash(res *Result) string {
	h := []byte(res.Name + "\x00" + res.Symbol + "\x00" + res.URI)
	for _, f := range res.AdditionalMetadata {
		h = append(h, '\x00')
		h = append(h, f.Key...)
		h = append(h, '=')
		h = append(h, f.Value...)
	}
	return crypto.Keccak256Hash(h).Hex()
}

func (b *onChainBuilder) validate(res *Result) {
	v := &res.Validation

	if res.Name == "" {
		v.Errors = append(v.Errors, "name is required")
	} else if len(res.Name) > maxNameBytes {
		v.Errors = append(v.Errors, fmt.Sprintf("name exceeds %d bytes", maxNameBytes))
	}
	if res.Symbol == "" {
		v.Errors = append(v.Errors, "symbol is required")
	} else if len(res.Symbol) > maxSymbolBytes {
		v.Errors = append(v.Errors, fmt.Sprintf("symbol exceeds %d bytes", maxSymbolBytes))
	}
	if len(res.URI) > maxURIBytes {
		v.Errors = append(v.Errors, fmt.Sprintf("uri exceeds %d bytes", maxURIBytes))
	}
	if res.URI == "" {
		v.Warnings = append(v.Warnings, "no off-chain metadata URI set")
	}

	size := 0
	for _, f := range res.AdditionalMetadata {
		size += fieldOverheadBytes + len(f.Key) + len(f.Value)
	}
	v.EstimatedSize = size

	switch {
	case size > SizeCeilingBytes:
		v.Errors = append(v.Errors,
			fmt.Sprintf("additional metadata is %d bytes, over the %d-byte limit", size, SizeCeilingBytes))
	case size >= NearLimitBytes:
		v.Warnings = append(v.Warnings,
			fmt.Sprintf("additional metadata is %d bytes, approaching the %d-byte limit", size, SizeCeilingBytes))
	}

	v.Valid = len(v.Errors) == 0
}
