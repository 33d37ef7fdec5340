// Package asset defines the closed set of tokenizable asset classes and the
// instrument type options attached to them.
package asset

// Class is the top-level category of a tokenizable instrument. The set is
// closed; the routing table must cover every declared class.
type Class string

const (
	ClassStructuredProduct Class = "structured_product"
	ClassEquity            Class = "equity"
	ClassFixedIncome       Class = "fixed_income"
	ClassFund              Class = "fund"
	ClassCommodity         Class = "commodity"
	ClassAlternative       Class = "alternative"
	ClassDigitalNative     Class = "digital_native"
)

// Classes returns all declared asset classes in display order.
func Classes() []Class {
	return []Class{
		ClassStructuredProduct,
		ClassEquity,
		ClassFixedIncome,
		ClassFund,
		ClassCommodity,
		ClassAlternative,
		ClassDigitalNative,
	}
}

// Valid reports whether c is one of the declared asset classes.
func (c Class) Valid() bool {
	switch c {
	case ClassStructuredProduct, ClassEquity, ClassFixedIncome,
		ClassFund, ClassCommodity, ClassAlternative, ClassDigitalNative:
		return true
	}
	return false
}

func (c Class) String() string { return string(c) }

// InstrumentOption describes one instrument type within an asset class.
// Value is the stable key, unique within the class; FormComponent names the
// form schema that collects configuration for this instrument.
type InstrumentOption struct {
	Value         string `yaml:"value" json:"value"`
	Label         string `yaml:"label" json:"label"`
	Description   string `yaml:"description" json:"description"`
	FormComponent string `yaml:"form_component" json:"form_component"`
}
