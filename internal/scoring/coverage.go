package scoring

type Coverage string

const (
	CoverageBasic         Coverage = "basic"
	CoverageStandard      Coverage = "standard"
	CoverageComprehensive Coverage = "comprehensive"
)

func Recommend(score float64) Coverage {
	switch {
	case score > 70:
		return CoverageComprehensive
	case score > 40:
		return CoverageStandard
	default:
		return CoverageBasic
	}
}
