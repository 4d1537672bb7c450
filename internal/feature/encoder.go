package feature

import (
	"strings"

	"github.com/xxxsen/insuregenie/internal/reference"
)

const (
	DefaultYear          = 2020
	DefaultCurrentValue  = 10000.0
	DefaultMileage       = 50000.0
	DefaultAreaCrimeRate = 50.0
	DefaultCategory      = "standard"
	DefaultFuelType      = "Petrol"
	DefaultAreaRiskLevel = "medium"
)

// AreaLookup resolves reference data for a postal area.
type AreaLookup interface {
	Lookup(postalArea string) (reference.Entry, bool)
}

// RawAttributes are the risk-relevant attributes of an asset. Nil pointers
// and empty strings mean the attribute is unknown; Encode substitutes the
// documented default for each.
type RawAttributes struct {
	Year          *int
	CurrentValue  *float64
	Mileage       *float64
	PostalArea    string
	Category      string
	Verified      *bool
	FuelType      string
	AreaRiskLevel string
}

func (r RawAttributes) YearOrDefault() int {
	if r.Year == nil {
		return DefaultYear
	}
	return *r.Year
}

func (r RawAttributes) CurrentValueOrDefault() float64 {
	if r.CurrentValue == nil {
		return DefaultCurrentValue
	}
	return *r.CurrentValue
}

func (r RawAttributes) MileageOrDefault() float64 {
	if r.Mileage == nil {
		return DefaultMileage
	}
	return *r.Mileage
}

func (r RawAttributes) CategoryOrDefault() string {
	if c := strings.TrimSpace(r.Category); c != "" {
		return c
	}
	return DefaultCategory
}

func (r RawAttributes) VerifiedOrDefault() bool {
	return r.Verified != nil && *r.Verified
}

func (r RawAttributes) FuelTypeOrDefault() string {
	if f := strings.TrimSpace(r.FuelType); f != "" {
		return f
	}
	return DefaultFuelType
}

var fuelTypeCodes = map[string]float64{
	"petrol":   0,
	"diesel":   1,
	"hybrid":   2,
	"electric": 3,
}

var riskLevelCodes = map[string]float64{
	"low":       0,
	"medium":    1,
	"high":      2,
	"very high": 3,
	"very_high": 3,
}

// FuelTypeCode maps a fuel type to its code; unknown values map to Petrol.
func FuelTypeCode(fuelType string) float64 {
	if code, ok := fuelTypeCodes[strings.ToLower(strings.TrimSpace(fuelType))]; ok {
		return code
	}
	return 0
}

// RiskLevelCode maps a qualitative area risk level to its code; unknown
// values map to medium.
func RiskLevelCode(level string) float64 {
	if code, ok := riskLevelCodes[strings.ToLower(strings.TrimSpace(level))]; ok {
		return code
	}
	return 1
}

// Encode never fails: every missing or unrecognised input degrades to its
// default. areas may be nil.
func Encode(raw RawAttributes, areas AreaLookup) Vector {
	crimeRate := DefaultAreaCrimeRate
	level := strings.TrimSpace(raw.AreaRiskLevel)
	if areas != nil && strings.TrimSpace(raw.PostalArea) != "" {
		if entry, ok := areas.Lookup(raw.PostalArea); ok {
			crimeRate = entry.CrimeRate
			if level == "" {
				level = entry.RiskLevel
			}
		}
	}
	if level == "" {
		level = DefaultAreaRiskLevel
	}

	var v Vector
	v[IdxYear] = float64(raw.YearOrDefault())
	v[IdxCurrentValue] = raw.CurrentValueOrDefault()
	v[IdxMileage] = raw.MileageOrDefault()
	v[IdxAreaCrimeRate] = crimeRate
	switch strings.ToLower(raw.CategoryOrDefault()) {
	case "luxury":
		v[IdxIsLuxury] = 1
	case "sports":
		v[IdxIsSports] = 1
	}
	if raw.VerifiedOrDefault() {
		v[IdxIsVerified] = 1
	}
	v[IdxFuelTypeCode] = FuelTypeCode(raw.FuelTypeOrDefault())
	v[IdxLocationRiskCode] = RiskLevelCode(level)
	return v
}
