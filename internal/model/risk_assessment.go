package model

// RiskAssessment is one append-only history record.
type RiskAssessment struct {
	ID          string             `json:"id"`
	AssetID     string             `json:"asset_id"`
	RiskScore   float64            `json:"risk_score"`
	RiskFactors map[string]float64 `json:"risk_factors"`
	Ctime       int64              `json:"ctime"`
}

type AssessmentResult struct {
	AssetID                string             `json:"asset_id"`
	RiskScore              float64            `json:"risk_score"`
	RiskLevel              string             `json:"risk_level"`
	RiskFactors            map[string]float64 `json:"risk_factors"`
	PremiumEstimate        float64            `json:"premium_estimate"`
	CoverageRecommendation string             `json:"coverage_recommendation"`
	AssessmentID           string             `json:"assessment_id"`
	Ctime                  int64              `json:"ctime"`
}
