package retrieval

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Context carries the live values substituted into a response template.
// Nil fields leave their placeholder untouched.
type Context struct {
	Value       *float64
	RiskScore   *float64
	Premium     *float64
	Location    *string
	VehicleInfo *string
}

const (
	PlaceholderValue       = "{value}"
	PlaceholderRiskScore   = "{risk_score}"
	PlaceholderPremium     = "{premium}"
	PlaceholderLocation    = "{location}"
	PlaceholderVehicleInfo = "{vehicle_info}"
)

var currencyPrinter = message.NewPrinter(language.BritishEnglish)

func FormatValue(v float64) string {
	return currencyPrinter.Sprintf("£%.0f", v)
}

func FormatPremium(v float64) string {
	return currencyPrinter.Sprintf("£%.2f", v)
}

func FormatRiskScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}

// Personalize fills the placeholders present in c. A nil c returns the
// template verbatim.
func Personalize(template string, c *Context) string {
	if c == nil {
		return template
	}
	pairs := make([]string, 0, 10)
	if c.Value != nil {
		pairs = append(pairs, PlaceholderValue, FormatValue(*c.Value))
	}
	if c.RiskScore != nil {
		pairs = append(pairs, PlaceholderRiskScore, FormatRiskScore(*c.RiskScore))
	}
	if c.Premium != nil {
		pairs = append(pairs, PlaceholderPremium, FormatPremium(*c.Premium))
	}
	if c.Location != nil {
		pairs = append(pairs, PlaceholderLocation, *c.Location)
	}
	if c.VehicleInfo != nil {
		pairs = append(pairs, PlaceholderVehicleInfo, *c.VehicleInfo)
	}
	if len(pairs) == 0 {
		return template
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
