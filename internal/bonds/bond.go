// Package bonds reads the treasury retail bond rate workbook and derives the
// daily value series of each bond issue.
package bonds

import (
	"math"
	"strings"
	"sync"
	"time"
)

// InitialValue is the face value every bond series starts from
const InitialValue = 100.0

// BondID identifies a bond issue, e.g. "EDO1224"
type BondID string

func (id BondID) String() string {
	return string(id)
}

// Family is a retail bond product line; each has its own sheet and maturity
type Family string

const (
	FamilyEDO Family = "EDO"
	FamilyROD Family = "ROD"
)

// Families lists the bond families in lookup order
func Families() []Family {
	return []Family{FamilyEDO, FamilyROD}
}

// Years returns the maturity of the family in years
func (f Family) Years() int {
	switch f {
	case FamilyEDO:
		return 10
	case FamilyROD:
		return 12
	default:
		return 0
	}
}

// Owns reports whether a symbol names an issue of this family
func (f Family) Owns(symbol string) bool {
	return strings.HasPrefix(symbol, string(f))
}

// Bond is one bond issue with its lazily computed daily value series
type Bond struct {
	ID          BondID    `json:"id"`
	Family      Family    `json:"family"`
	InitialDate time.Time `json:"initialDate"`
	SaleEnd     time.Time `json:"saleEnd"`
	BuyoutDate  time.Time `json:"buyoutDate"`

	yearlyReturns []float64
	once          sync.Once
	values        []float64
}

// NewBond creates a bond bought at saleStart that matures after the family's
// number of years. yearlyReturns holds one annual rate per year of holding.
func NewBond(id BondID, family Family, saleStart, saleEnd time.Time, yearlyReturns []float64) *Bond {
	rates := make([]float64, len(yearlyReturns))
	copy(rates, yearlyReturns)

	return &Bond{
		ID:            id,
		Family:        family,
		InitialDate:   saleStart,
		SaleEnd:       saleEnd,
		BuyoutDate:    saleStart.AddDate(family.Years(), 0, 0),
		yearlyReturns: rates,
	}
}

// YearlyReturns returns a copy of the annual rates
func (b *Bond) YearlyReturns() []float64 {
	out := make([]float64, len(b.yearlyReturns))
	copy(out, b.yearlyReturns)
	return out
}

// Values returns the daily value series. Index 0 is the face value on the
// sale start date; index n is the value n days later. The series is computed
// on first call and the same values are returned afterwards.
func (b *Bond) Values() []float64 {
	b.once.Do(func() {
		b.values = dailyValues(b.InitialDate, b.yearlyReturns)
	})
	out := make([]float64, len(b.values))
	copy(out, b.values)
	return out
}

// DateOf returns the calendar date of a series index
func (b *Bond) DateOf(dayIndex int) time.Time {
	return b.InitialDate.AddDate(0, 0, dayIndex)
}

// dailyValues accrues each year's rate linearly over the days of that year,
// starting from the value reached at the end of the previous year. Every day
// is rounded to two decimal places.
func dailyValues(start time.Time, yearlyReturns []float64) []float64 {
	values := []float64{InitialValue}
	current := InitialValue

	for i, rate := range yearlyReturns {
		yearStart := start.AddDate(i, 0, 0)
		yearEnd := yearStart.AddDate(1, 0, 0)
		daysInYear := int(yearEnd.Sub(yearStart).Hours() / 24)

		for day := 1; day <= daysInYear; day++ {
			additional := current * (float64(day) / float64(daysInYear)) * rate
			values = append(values, twoDecimalPlaces(current+additional))
		}

		current = values[len(values)-1]
	}

	return values
}

func twoDecimalPlaces(value float64) float64 {
	return math.Round(value*100) / 100
}

// roundRate rounds an annual rate to five decimal places
func roundRate(rate float64) float64 {
	return math.Round(rate*100000) / 100000
}

// AllBonds holds every issue read from the rate workbook, one map per family
type AllBonds struct {
	EDO map[BondID]*Bond `json:"edo"`
	ROD map[BondID]*Bond `json:"rod"`
}

// Family returns the issues of a family
func (a *AllBonds) Family(f Family) map[BondID]*Bond {
	switch f {
	case FamilyEDO:
		return a.EDO
	case FamilyROD:
		return a.ROD
	default:
		return nil
	}
}

// Get finds an issue by id, looking at EDO first and ROD second
func (a *AllBonds) Get(id BondID) (*Bond, bool) {
	for _, f := range Families() {
		if bond, ok := a.Family(f)[id]; ok {
			return bond, true
		}
	}
	return nil, false
}

// Len returns the number of issues across both families
func (a *AllBonds) Len() int {
	return len(a.EDO) + len(a.ROD)
}
