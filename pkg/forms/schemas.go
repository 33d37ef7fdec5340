package forms

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// TokenBase carries the fields shared by every instrument form. Name and
// symbol are the only universally required inputs; the URI points at the
// off-chain metadata document when one exists.
type TokenBase struct {
	Name        string `json:"name" validate:"required"`
	Symbol      string `json:"symbol" validate:"required"`
	URI         string `json:"uri" validate:"omitempty,url"`
	Description string `json:"description"`
}

func (b TokenBase) base() *Decoded {
	return &Decoded{
		Name:        b.Name,
		Symbol:      b.Symbol,
		URI:         b.URI,
		Description: b.Description,
	}
}

// add appends an extra field, skipping empty values so optional inputs do not
// consume on-chain bytes.
func (d *Decoded) add(key, value string) {
	if value != "" {
		d.Extra = append(d.Extra, Field{Key: key, Value: value})
	}
}

func (d *Decoded) addInt(key string, v int) {
	d.Extra = append(d.Extra, Field{Key: key, Value: strconv.Itoa(v)})
}

func (d *Decoded) addBool(key string, v bool) {
	d.Extra = append(d.Extra, Field{Key: key, Value: strconv.FormatBool(v)})
}

func (d *Decoded) addDecimal(key string, v decimal.Decimal) {
	if !v.IsZero() {
		d.Extra = append(d.Extra, Field{Key: key, Value: v.String()})
	}
}

// StructuredNoteForm configures a payoff-linked note.
type StructuredNoteForm struct {
	TokenBase
	Underlying      string          `json:"underlying" validate:"required"`
	BarrierLevel    decimal.Decimal `json:"barrier_level" validate:"gt=0"`
	ProtectionLevel int             `json:"protection_level" default:"100" validate:"min=0,max=100"`
	MaturityDate    string          `json:"maturity_date" validate:"required,datetime=2006-01-02"`
}

func (f *StructuredNoteForm) decoded() *Decoded {
	d := f.base()
	d.add("underlying", f.Underlying)
	d.addDecimal("barrier_level", f.BarrierLevel)
	d.addInt("protection_level", f.ProtectionLevel)
	d.add("maturity_date", f.MaturityDate)
	return d
}

// AutocallableNoteForm configures a note with early-redemption observations.
type AutocallableNoteForm struct {
	TokenBase
	Underlying           string          `json:"underlying" validate:"required"`
	AutocallLevel        decimal.Decimal `json:"autocall_level" validate:"gt=0"`
	ObservationFrequency string          `json:"observation_frequency" default:"quarterly" validate:"oneof=monthly quarterly semiannual annual"`
	MaturityDate         string          `json:"maturity_date" validate:"required,datetime=2006-01-02"`
}

func (f *AutocallableNoteForm) decoded() *Decoded {
	d := f.base()
	d.add("underlying", f.Underlying)
	d.addDecimal("autocall_level", f.AutocallLevel)
	d.add("observation_frequency", f.ObservationFrequency)
	d.add("maturity_date", f.MaturityDate)
	return d
}

// CommonStockForm configures tokenized voting shares.
type CommonStockForm struct {
	TokenBase
	Exchange         string          `json:"exchange"`
	ISIN             string          `json:"isin" validate:"omitempty,len=12"`
	AuthorizedShares decimal.Decimal `json:"authorized_shares" validate:"gt=0"`
	VotingRights     bool            `json:"voting_rights" default:"true"`
	Decimals         int             `json:"decimals" default:"0" validate:"min=0,max=18"`
}

func (f *CommonStockForm) decoded() *Decoded {
	d := f.base()
	d.add("exchange", f.Exchange)
	d.add("isin", f.ISIN)
	d.addDecimal("authorized_shares", f.AuthorizedShares)
	d.addBool("voting_rights", f.VotingRights)
	d.addInt("decimals", f.Decimals)
	return d
}

// PrivateEquityForm configures a fund LP interest.
type PrivateEquityForm struct {
	TokenBase
	FundManager   string          `json:"fund_manager" validate:"required"`
	Jurisdiction  string          `json:"jurisdiction" validate:"omitempty,iso3166_1_alpha2"`
	LockupMonths  int             `json:"lockup_months" default:"12" validate:"min=0"`
	MinInvestment decimal.Decimal `json:"min_investment" validate:"gte=0"`
}

func (f *PrivateEquityForm) decoded() *Decoded {
	d := f.base()
	d.add("fund_manager", f.FundManager)
	d.add("jurisdiction", f.Jurisdiction)
	d.addInt("lockup_months", f.LockupMonths)
	d.addDecimal("min_investment", f.MinInvestment)
	return d
}

// CorporateBondForm configures fixed-coupon corporate debt.
type CorporateBondForm struct {
	TokenBase
	ISIN         string          `json:"isin" validate:"omitempty,len=12"`
	CouponRate   decimal.Decimal `json:"coupon_rate" validate:"gte=0"`
	FaceValue    decimal.Decimal `json:"face_value" validate:"gt=0"`
	MaturityDate string          `json:"maturity_date" validate:"required,datetime=2006-01-02"`
}

func (f *CorporateBondForm) decoded() *Decoded {
	d := f.base()
	d.add("isin", f.ISIN)
	d.addDecimal("coupon_rate", f.CouponRate)
	d.addDecimal("face_value", f.FaceValue)
	d.add("maturity_date", f.MaturityDate)
	return d
}

// SovereignBondForm configures government debt.
type SovereignBondForm struct {
	TokenBase
	IssuerCountry string          `json:"issuer_country" validate:"required,iso3166_1_alpha2"`
	CouponRate    decimal.Decimal `json:"coupon_rate" validate:"gte=0"`
	FaceValue     decimal.Decimal `json:"face_value" validate:"gt=0"`
	MaturityDate  string          `json:"maturity_date" validate:"required,datetime=2006-01-02"`
}

func (f *SovereignBondForm) decoded() *Decoded {
	d := f.base()
	d.add("issuer_country", f.IssuerCountry)
	d.addDecimal("coupon_rate", f.CouponRate)
	d.addDecimal("face_value", f.FaceValue)
	d.add("maturity_date", f.MaturityDate)
	return d
}

// MutualFundForm configures an open-ended NAV-priced fund.
type MutualFundForm struct {
	TokenBase
	NAVCurrency      string `json:"nav_currency" default:"USD" validate:"iso4217"`
	ManagementFeeBps int    `json:"management_fee_bps" validate:"min=0,max=10000"`
}

func (f *MutualFundForm) decoded() *Decoded {
	d := f.base()
	d.add("nav_currency", f.NAVCurrency)
	d.addInt("management_fee_bps", f.ManagementFeeBps)
	return d
}

// ETFForm configures an exchange-traded fund.
type ETFForm struct {
	TokenBase
	UnderlyingIndex string `json:"underlying_index" validate:"required"`
	ExpenseRatioBps int    `json:"expense_ratio_bps" validate:"min=0,max=10000"`
}

func (f *ETFForm) decoded() *Decoded {
	d := f.base()
	d.add("underlying_index", f.UnderlyingIndex)
	d.addInt("expense_ratio_bps", f.ExpenseRatioBps)
	return d
}

// CommoditySpotForm configures a warehouse-receipt-backed commodity claim.
type CommoditySpotForm struct {
	TokenBase
	CommodityCode    string `json:"commodity_code" validate:"required"`
	Unit             string `json:"unit" default:"troy_ounce"`
	CustodianAddress string `json:"custodian_address" validate:"omitempty,evm_addr"`
}

func (f *CommoditySpotForm) decoded() *Decoded {
	d := f.base()
	d.add("commodity_code", f.CommodityCode)
	d.add("unit", f.Unit)
	d.add("custodian_address", f.CustodianAddress)
	return d
}

// RealEstateForm configures a fractional property interest.
type RealEstateForm struct {
	TokenBase
	PropertyID        string          `json:"property_id" validate:"required"`
	ValuationCurrency string          `json:"valuation_currency" default:"USD" validate:"iso4217"`
	Valuation         decimal.Decimal `json:"valuation" validate:"gt=0"`
}

func (f *RealEstateForm) decoded() *Decoded {
	d := f.base()
	d.add("property_id", f.PropertyID)
	d.add("valuation_currency", f.ValuationCurrency)
	d.addDecimal("valuation", f.Valuation)
	return d
}

// PrivateCreditForm configures a directly originated loan.
type PrivateCreditForm struct {
	TokenBase
	Borrower        string          `json:"borrower" validate:"required"`
	PrincipalAmount decimal.Decimal `json:"principal_amount" validate:"gt=0"`
	InterestRateBps int             `json:"interest_rate_bps" validate:"min=0,max=10000"`
}

func (f *PrivateCreditForm) decoded() *Decoded {
	d := f.base()
	d.add("borrower", f.Borrower)
	d.addDecimal("principal_amount", f.PrincipalAmount)
	d.addInt("interest_rate_bps", f.InterestRateBps)
	return d
}

// UtilityTokenForm configures a fungible protocol token.
type UtilityTokenForm struct {
	TokenBase
	Decimals      int             `json:"decimals" default:"18" validate:"min=0,max=18"`
	InitialSupply decimal.Decimal `json:"initial_supply" validate:"gt=0"`
	MintAuthority string          `json:"mint_authority" validate:"omitempty,evm_addr"`
}

func (f *UtilityTokenForm) decoded() *Decoded {
	d := f.base()
	d.addInt("decimals", f.Decimals)
	d.addDecimal("initial_supply", f.InitialSupply)
	d.add("mint_authority", f.MintAuthority)
	return d
}

// StablecoinForm configures a fiat-pegged token.
type StablecoinForm struct {
	TokenBase
	PegCurrency     string          `json:"peg_currency" default:"USD" validate:"iso4217"`
	CollateralRatio decimal.Decimal `json:"collateral_ratio" validate:"gte=1"`
	Decimals        int             `json:"decimals" default:"6" validate:"min=0,max=18"`
}

func (f *StablecoinForm) decoded() *Decoded {
	d := f.base()
	d.add("peg_currency", f.PegCurrency)
	d.addDecimal("collateral_ratio", f.CollateralRatio)
	d.addInt("decimals", f.Decimals)
	return d
}

// NFTCollectionForm configures a non-fungible collection.
type NFTCollectionForm struct {
	TokenBase
	MaxSupply  int    `json:"max_supply" validate:"min=0"`
	BaseURI    string `json:"base_uri" validate:"omitempty,url"`
	RoyaltyBps int    `json:"royalty_bps" validate:"min=0,max=10000"`
}

func (f *NFTCollectionForm) decoded() *Decoded {
	d := f.base()
	d.addInt("max_supply", f.MaxSupply)
	d.add("base_uri", f.BaseURI)
	d.addInt("royalty_bps", f.RoyaltyBps)
	return d
}
