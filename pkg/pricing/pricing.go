// Package pricing provides the static instance pricing table and the
// size ladder used for right-sizing. Prices are injected configuration,
// not computed: the agent never calls a pricing API.
package pricing

// HoursPerMonth is the factor used to turn hourly deltas into the
// monthly savings figures reported on recommendations.
const HoursPerMonth = 24 * 30

// fallbackHourly is used for instance types missing from the table.
const fallbackHourly = 0.1

// Table maps instance types to on-demand hourly USD cost.
type Table struct {
	hourly map[string]float64
}

// defaultHourly covers the instance families the agent right-sizes.
var defaultHourly = map[string]float64{
	"t3.medium": 0.0416,
	"t3.large":  0.0832,
	"t3.xlarge": 0.1664,
	"m5.large":  0.096,
	"m5.xlarge": 0.192,
	"c5.large":  0.085,
	"c5.xlarge": 0.17,
}

// smallerType is the downsize ladder; largerType the upgrade ladder.
var smallerType = map[string]string{
	"t3.xlarge": "t3.large",
	"t3.large":  "t3.medium",
}

var largerType = map[string]string{
	"t3.medium": "t3.large",
	"t3.large":  "t3.xlarge",
}

// NewTable builds a pricing table from the defaults merged with the
// configured overrides. Overrides win on conflict.
func NewTable(overrides map[string]float64) *Table {
	hourly := make(map[string]float64, len(defaultHourly)+len(overrides))
	for t, p := range defaultHourly {
		hourly[t] = p
	}
	for t, p := range overrides {
		hourly[t] = p
	}
	return &Table{hourly: hourly}
}

// Hourly returns the on-demand hourly cost for an instance type, or a
// conservative fallback for unknown types.
func (t *Table) Hourly(instanceType string) float64 {
	if cost, ok := t.hourly[instanceType]; ok {
		return cost
	}
	return fallbackHourly
}

// Smaller returns the next size down, or "" if already at the bottom of
// the ladder.
func (t *Table) Smaller(instanceType string) string {
	return smallerType[instanceType]
}

// Larger returns the next size up, or "" if already at the top.
func (t *Table) Larger(instanceType string) string {
	return largerType[instanceType]
}

// Optimal picks the instance type that best matches the observed
// utilization (percent scale).
func (t *Table) Optimal(cpuUtil, memoryUtil float64) string {
	switch {
	case cpuUtil < 30 && memoryUtil < 40:
		return "t3.medium"
	case cpuUtil < 60 && memoryUtil < 70:
		return "t3.large"
	default:
		return "t3.xlarge"
	}
}

// MonthlySavings is the monthly cost delta of moving from one type to
// another. Positive means moving saves money.
func (t *Table) MonthlySavings(fromType, toType string) float64 {
	return (t.Hourly(fromType) - t.Hourly(toType)) * HoursPerMonth
}

// MonthlySpotSavings estimates the monthly savings of migrating an
// on-demand instance to spot, assuming spot costs 40% of on-demand.
func (t *Table) MonthlySpotSavings(instanceType string) float64 {
	onDemand := t.Hourly(instanceType)
	return (onDemand - onDemand*0.4) * HoursPerMonth
}
