// Package feature turns raw asset attributes into the fixed-order numeric
// vector consumed by the risk model. Training and scoring both go through
// Encode, so the column order below is part of the artifact contract:
// changing it requires retraining.
package feature

const (
	IdxYear = iota
	IdxCurrentValue
	IdxMileage
	IdxAreaCrimeRate
	IdxIsLuxury
	IdxIsSports
	IdxIsVerified
	IdxFuelTypeCode
	IdxLocationRiskCode

	Size
)

// Names lists the vector columns in encoding order.
var Names = [Size]string{
	"year",
	"current_value",
	"mileage",
	"area_crime_rate",
	"is_luxury",
	"is_sports",
	"is_verified",
	"fuel_type_code",
	"location_risk_code",
}

type Vector [Size]float64

func (v Vector) Slice() []float64 {
	out := make([]float64, Size)
	copy(out, v[:])
	return out
}

// Map returns the vector keyed by column name, the form persisted as the
// risk factors of an assessment.
func (v Vector) Map() map[string]float64 {
	out := make(map[string]float64, Size)
	for i, name := range Names {
		out[name] = v[i]
	}
	return out
}

func NameList() []string {
	out := make([]string, Size)
	copy(out, Names[:])
	return out
}
