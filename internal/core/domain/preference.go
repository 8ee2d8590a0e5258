// internal/core/domain/preference.go
package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ratioPlaces is the precision ratios are stored with
const ratioPlaces = 3

// Allocation assigns a quantity to a location
type Allocation struct {
	Location string `json:"location"`
	Quantity int    `json:"quantity"`
}

// LocationPreference is the learned placement distribution for a supplier code
type LocationPreference struct {
	Code      string             `json:"code"`
	Weights   map[string]float64 `json:"weights"`
	Ratios    map[string]float64 `json:"ratios"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewLocationPreference creates an empty preference for a code
func NewLocationPreference(code string) LocationPreference {
	return LocationPreference{
		Code:    code,
		Weights: map[string]float64{},
		Ratios:  map[string]float64{},
	}
}

// Record adds max(1, qty) to the weight of each location and renormalizes
func (p *LocationPreference) Record(allocs []Allocation, at time.Time) {
	if p.Weights == nil {
		p.Weights = map[string]float64{}
	}
	for _, a := range allocs {
		if a.Location == "" {
			continue
		}
		p.Weights[a.Location] += float64(max(1, a.Quantity))
	}
	p.Normalize()
	p.UpdatedAt = at
}

// Normalize recomputes ratios as weight / total weight rounded to three places.
// The rounding residual is given to the heaviest location so ratios sum to one.
func (p *LocationPreference) Normalize() {
	p.Ratios = make(map[string]float64, len(p.Weights))
	ranked := p.Ranked()
	if len(ranked) == 0 {
		return
	}

	total := decimal.Zero
	for _, loc := range ranked {
		total = total.Add(decimal.NewFromFloat(p.Weights[loc]))
	}
	if !total.IsPositive() {
		return
	}

	sum := decimal.Zero
	ratios := make(map[string]decimal.Decimal, len(ranked))
	for _, loc := range ranked {
		r := decimal.NewFromFloat(p.Weights[loc]).Div(total).Round(ratioPlaces)
		ratios[loc] = r
		sum = sum.Add(r)
	}
	top := ranked[0]
	ratios[top] = ratios[top].Add(decimal.NewFromInt(1).Sub(sum))

	for loc, r := range ratios {
		p.Ratios[loc] = r.InexactFloat64()
	}
}

// Ranked returns locations ordered by weight descending, then by name
func (p LocationPreference) Ranked() []string {
	out := make([]string, 0, len(p.Weights))
	for loc, w := range p.Weights {
		if w > 0 {
			out = append(out, loc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		wi, wj := p.Weights[out[i]], p.Weights[out[j]]
		if wi != wj {
			return wi > wj
		}
		return out[i] < out[j]
	})
	return out
}

// Clone returns a deep copy of the preference
func (p LocationPreference) Clone() LocationPreference {
	c := p
	c.Weights = make(map[string]float64, len(p.Weights))
	for k, v := range p.Weights {
		c.Weights[k] = v
	}
	c.Ratios = make(map[string]float64, len(p.Ratios))
	for k, v := range p.Ratios {
		c.Ratios[k] = v
	}
	return c
}

// RenameLocation moves the weight recorded for one location to another
func (p *LocationPreference) RenameLocation(from, to string) bool {
	w, ok := p.Weights[from]
	if !ok {
		return false
	}
	delete(p.Weights, from)
	p.Weights[to] += w
	p.Normalize()
	return true
}
