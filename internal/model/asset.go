package model

import (
	"strconv"
	"strings"

	"github.com/xxxsen/insuregenie/internal/feature"
)

const VerificationVerified = "verified"

// Asset is a registered insurable asset. The table is owned by the asset
// registry; this service only reads it.
type Asset struct {
	ID                 string   `json:"id"`
	UserID             string   `json:"user_id"`
	Name               string   `json:"name"`
	AssetType          string   `json:"asset_type"`
	CurrentValue       float64  `json:"current_value"`
	Location           string   `json:"location,omitempty"`
	Postcode           string   `json:"postcode,omitempty"`
	VerificationStatus string   `json:"verification_status"`
	Make               string   `json:"make,omitempty"`
	Model              string   `json:"model,omitempty"`
	Year               *int     `json:"year,omitempty"`
	Mileage            *float64 `json:"mileage,omitempty"`
	FuelType           string   `json:"fuel_type,omitempty"`
	Ctime              int64    `json:"ctime"`
	Mtime              int64    `json:"mtime"`
}

func (a *Asset) IsVerified() bool {
	return strings.EqualFold(strings.TrimSpace(a.VerificationStatus), VerificationVerified)
}

// RawAttributes exposes the risk-relevant fields to the feature encoder.
// The area risk level is left empty so the reference table decides it.
func (a *Asset) RawAttributes() feature.RawAttributes {
	value := a.CurrentValue
	verified := a.IsVerified()
	return feature.RawAttributes{
		Year:         a.Year,
		CurrentValue: &value,
		Mileage:      a.Mileage,
		PostalArea:   a.Postcode,
		Category:     a.AssetType,
		Verified:     &verified,
		FuelType:     a.FuelType,
	}
}

// VehicleInfo renders "year make model", skipping unknown parts.
func (a *Asset) VehicleInfo() string {
	parts := make([]string, 0, 3)
	if a.Year != nil {
		parts = append(parts, strconv.Itoa(*a.Year))
	}
	if m := strings.TrimSpace(a.Make); m != "" {
		parts = append(parts, m)
	}
	if m := strings.TrimSpace(a.Model); m != "" {
		parts = append(parts, m)
	}
	return strings.Join(parts, " ")
}
