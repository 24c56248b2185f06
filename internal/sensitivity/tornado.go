package sensitivity

import (
	"math"
	"sort"

	"github.com/mfreitag/solarledger/internal/finance"
)

// TornadoEntry is one bar of a tornado chart: the percent change of a
// metric at the parameter's min and max variation. Low and High are
// oriented so "low" is always the smaller change for value metrics and
// swapped for lower-is-better metrics; nil marks a failed evaluation.
type TornadoEntry struct {
	Parameter    string   `json:"parameter"`
	Low          *float64 `json:"low"`
	High         *float64 `json:"high"`
	MinValue     *float64 `json:"min_value"`
	MaxValue     *float64 `json:"max_value"`
	MinVariation string   `json:"min_variation"`
	MaxVariation string   `json:"max_variation"`
}

// TornadoResult holds per-metric parameter rankings against one shared
// baseline. Entries are sorted by descending |High−Low|, which is the
// bar order of the chart.
type TornadoResult struct {
	BaseCase   map[finance.Metric]*float64       `json:"base_case"`
	Parameters []string                          `json:"parameters"`
	Tornado    map[finance.Metric][]TornadoEntry `json:"tornado_data"`
}

// RankTornado evaluates only the min and max of each parameter's range
// against one shared baseline. The baseline is computed exactly once;
// every percent change in the result is relative to it.
func (a *Analyzer) RankTornado(in Input, parameters []string) (*TornadoResult, error) {
	if len(parameters) == 0 {
		parameters = DefaultParameterNames()
	}
	metrics := finance.TrackedMetrics()

	res := &TornadoResult{
		BaseCase:   map[finance.Metric]*float64{},
		Parameters: parameters,
		Tornado:    map[finance.Metric][]TornadoEntry{},
	}

	baseline, err := a.project(in)
	if err != nil {
		return nil, err
	}
	for _, m := range metrics {
		v, _ := m.Extract(baseline)
		res.BaseCase[m] = ptr(v)
	}

	for _, param := range parameters {
		rng := DefaultRange(param)
		minVar, maxVar := rng[0], rng[0]
		for _, v := range rng {
			minVar = math.Min(minVar, v)
			maxVar = math.Max(maxVar, v)
		}
		relative := IsRelative(param)
		minLabel := variationLabel(minVar, relative)
		maxLabel := variationLabel(maxVar, relative)

		minRun, minErr := a.projectVariation(in, param, minVar)
		maxRun, maxErr := a.projectVariation(in, param, maxVar)
		if minErr != nil || maxErr != nil {
			a.log.Warn().AnErr("min_err", minErr).AnErr("max_err", maxErr).
				Str("parameter", param).Msg("tornado variation failed")
			for _, m := range metrics {
				res.Tornado[m] = append(res.Tornado[m], TornadoEntry{
					Parameter:    param,
					MinVariation: minLabel,
					MaxVariation: maxLabel,
				})
			}
			continue
		}

		for _, m := range metrics {
			base := res.BaseCase[m]
			if base == nil || *base == 0 {
				continue
			}
			minValue, _ := m.Extract(minRun)
			maxValue, _ := m.Extract(maxRun)
			minChange := (minValue - *base) / math.Abs(*base) * 100
			maxChange := (maxValue - *base) / math.Abs(*base) * 100

			low, high := math.Min(minChange, maxChange), math.Max(minChange, maxChange)
			if m.LowerIsBetter() {
				low, high = high, low
			}

			res.Tornado[m] = append(res.Tornado[m], TornadoEntry{
				Parameter:    param,
				Low:          ptr(low),
				High:         ptr(high),
				MinValue:     ptr(minValue),
				MaxValue:     ptr(maxValue),
				MinVariation: minLabel,
				MaxVariation: maxLabel,
			})
		}
	}

	for _, m := range metrics {
		entries := res.Tornado[m]
		sort.SliceStable(entries, func(i, j int) bool {
			return tornadoMagnitude(entries[i]) > tornadoMagnitude(entries[j])
		})
		res.Tornado[m] = entries
	}
	return res, nil
}

func (a *Analyzer) projectVariation(in Input, param string, variation float64) (*finance.Result, error) {
	varied, err := applyVariation(in, param, variation)
	if err != nil {
		return nil, err
	}
	return a.project(varied)
}

func tornadoMagnitude(e TornadoEntry) float64 {
	if e.Low == nil || e.High == nil {
		return 0
	}
	return math.Abs(*e.High - *e.Low)
}
