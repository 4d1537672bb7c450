package trainer

import (
	"fmt"
	"io"

	"github.com/xxxsen/insuregenie/internal/feature"
)

const (
	ColumnYear              = "year"
	ColumnCurrentValue      = "current_value"
	ColumnMileage           = "mileage"
	ColumnPostcode          = "postcode"
	ColumnCategory          = "category"
	ColumnOwnershipVerified = "ownership_verified"
	ColumnFuelType          = "fuel_type"
	ColumnAreaRiskLevel     = "area_risk_level"
	ColumnRiskScore         = "insurance_risk_score"
	ColumnMonthlyPremium    = "monthly_premium_estimate"
)

// VehicleRecord is one labelled row of the vehicle dataset. Labels are nil
// when the row does not carry them.
type VehicleRecord struct {
	Raw            feature.RawAttributes
	RiskScore      *float64
	MonthlyPremium *float64
}

// ParseVehicles reads the vehicle dataset. Rows whose numeric cells do not
// parse are skipped and counted.
func ParseVehicles(r io.Reader) ([]VehicleRecord, int, error) {
	t, err := parseCSV(r)
	if err != nil {
		return nil, 0, fmt.Errorf("vehicles: %w", err)
	}
	return t.vehicles()
}

func (t *table) vehicles() ([]VehicleRecord, int, error) {
	if err := t.require(ColumnCurrentValue); err != nil {
		return nil, 0, fmt.Errorf("vehicles: %w", err)
	}
	records := make([]VehicleRecord, 0, len(t.rows))
	skipped := 0
	for _, row := range t.rows {
		rec, err := t.vehicle(row)
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

func (t *table) vehicle(row []string) (VehicleRecord, error) {
	var (
		rec VehicleRecord
		err error
	)
	raw := &rec.Raw
	if raw.Year, err = parseOptionalInt(t.value(row, ColumnYear)); err != nil {
		return rec, err
	}
	if raw.CurrentValue, err = parseOptionalFloat(t.value(row, ColumnCurrentValue)); err != nil {
		return rec, err
	}
	if raw.Mileage, err = parseOptionalFloat(t.value(row, ColumnMileage)); err != nil {
		return rec, err
	}
	if raw.Verified, err = parseOptionalBool(t.value(row, ColumnOwnershipVerified)); err != nil {
		return rec, err
	}
	raw.PostalArea = t.value(row, ColumnPostcode)
	raw.Category = t.value(row, ColumnCategory)
	raw.FuelType = t.value(row, ColumnFuelType)
	raw.AreaRiskLevel = t.value(row, ColumnAreaRiskLevel)
	if rec.RiskScore, err = parseOptionalFloat(t.value(row, ColumnRiskScore)); err != nil {
		return rec, err
	}
	if rec.MonthlyPremium, err = parseOptionalFloat(t.value(row, ColumnMonthlyPremium)); err != nil {
		return rec, err
	}
	return rec, nil
}
