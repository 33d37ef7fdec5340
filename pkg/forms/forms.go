// Package forms models the per-instrument-type configuration forms as typed,
// validated schemas.
//
// The frontend submits form data as a JSON object; each instrument type's
// routing entry names a form component, and this package owns the schema
// behind that name. Decoding produces a normalized Decoded value with the
// base token fields plus the instrument-specific extras in a deterministic
// order, so metadata generation is statically checkable instead of working
// over an open map.
package forms

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/creasty/defaults"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrUnknownComponent is returned when a routing entry names a form component
// this build does not implement. Non-fatal: the caller surfaces it and the
// wizard stays usable.
var ErrUnknownComponent = errors.New("form component not implemented")

// Field is one instrument-specific metadata field in display order.
type Field struct {
	Key   string
	Value string
}

// Decoded is the normalized output of a form schema.
type Decoded struct {
	Component   string
	Name        string
	Symbol      string
	URI         string
	Description string
	Extra       []Field
}

// schema is implemented by every form struct.
type schema interface {
	decoded() *Decoded
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Checksummed or plain hex EVM addresses.
	_ = v.RegisterValidation("evm_addr", func(fl validator.FieldLevel) bool {
		return common.IsHexAddress(fl.Field().String())
	})

	// Let numeric tags (gt, gte, ...) apply to decimal.Decimal fields.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	return v
}

// DecodeFunc turns raw form data into a validated Decoded value.
type DecodeFunc func(raw map[string]any) (*Decoded, error)

// Registry resolves form component names to their schemas.
type Registry struct {
	byComponent map[string]DecodeFunc
}

// NewRegistry returns a registry with every built-in form schema registered.
func NewRegistry() *Registry {
	r := &Registry{byComponent: make(map[string]DecodeFunc)}
	r.register("StructuredNoteForm", func() schema { return &StructuredNoteForm{} })
	r.register("AutocallableNoteForm", func() schema { return &AutocallableNoteForm{} })
	r.register("CommonStockForm", func() schema { return &CommonStockForm{} })
	r.register("PrivateEquityForm", func() schema { return &PrivateEquityForm{} })
	r.register("CorporateBondForm", func() schema { return &CorporateBondForm{} })
	r.register("SovereignBondForm", func() schema { return &SovereignBondForm{} })
	r.register("MutualFundForm", func() schema { return &MutualFundForm{} })
	r.register("ETFForm", func() schema { return &ETFForm{} })
	r.register("CommoditySpotForm", func() schema { return &CommoditySpotForm{} })
	r.register("RealEstateForm", func() schema { return &RealEstateForm{} })
	r.register("PrivateCreditForm", func() schema { return &PrivateCreditForm{} })
	r.register("UtilityTokenForm", func() schema { return &UtilityTokenForm{} })
	r.register("StablecoinForm", func() schema { return &StablecoinForm{} })
	r.register("NFTCollectionForm", func() schema { return &NFTCollectionForm{} })
	return r
}

func (r *Registry) register(component string, newSchema func() schema) {
	r.byComponent[component] = func(raw map[string]any) (*Decoded, error) {
		s := newSchema()
		// Defaults are applied before the payload so a submitted zero value
		// (voting_rights: false, decimals: 0) overrides the default instead
		// of being rewritten by it. The payload is authoritative.
		if err := defaults.Set(s); err != nil {
			return nil, fmt.Errorf("apply form defaults: %w", err)
		}
		if err := unmarshalForm(raw, s); err != nil {
			return nil, err
		}
		if err := validate.Struct(s); err != nil {
			return nil, fmt.Errorf("form validation: %w", err)
		}
		d := s.decoded()
		d.Component = component
		return d, nil
	}
}

// Has reports whether a form component is implemented. Used by the routing
// table's startup validation.
func (r *Registry) Has(component string) bool {
	_, ok := r.byComponent[component]
	return ok
}

// Decode validates raw form data against the named component's schema.
func (r *Registry) Decode(component string, raw map[string]any) (*Decoded, error) {
	fn, ok := r.byComponent[component]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownComponent, component)
	}
	return fn(raw)
}

func unmarshalForm(raw map[string]any, dst any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode form data: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("malformed form data: %w", err)
	}
	return nil
}
