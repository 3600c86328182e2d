package domain

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// partNumberPattern is partId "-" partCode: four digits, a dash, then four or
// more ASCII alphanumerics. \w is avoided since it admits underscores.
var partNumberPattern = regexp.MustCompile(`^(\d{4})-([A-Za-z0-9]{4,})$`)

// PartItem is a part as returned by the compatibility endpoint.
// Description, Availability and Price are only populated by a lookup.
type PartItem struct {
	PartNumber   string `json:"PartNumber"`
	Description  string `json:"Description"`
	PartCode     string `json:"PartCode"`
	PartID       string `json:"PartId"`
	Availability int    `json:"Availability"`
	Price        Price  `json:"Price"`
}

// ResultMap maps each unique, valid, non-excluded input part number to its compatible parts.
type ResultMap map[string][]PartItem

// ParsePartNumber validates raw and splits it into PartID and PartCode.
// The input is kept verbatim as PartNumber; no trimming or case folding happens.
func ParsePartNumber(raw string) (PartItem, error) {
	m := partNumberPattern.FindStringSubmatch(raw)
	if m == nil {
		return PartItem{}, &InvalidPartError{PartNumber: raw}
	}
	return PartItem{
		PartNumber: raw,
		PartID:     m[1],
		PartCode:   m[2],
	}, nil
}

// Price is a non-negative monetary amount held to cents.
// It marshals as a bare JSON number with exactly two fraction digits.
type Price struct {
	decimal.Decimal
}

// NewPrice rounds d to two decimal places.
func NewPrice(d decimal.Decimal) Price {
	return Price{Decimal: d.Round(2)}
}

// PriceFromString parses a decimal string such as "12.50".
func PriceFromString(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, err
	}
	return NewPrice(d), nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.StringFixed(2)), nil
}

// UnmarshalJSON accepts both quoted and bare numbers.
func (p *Price) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*p = NewPrice(d)
	return nil
}
