package bonds

import (
	"math"
	"reflect"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func TestFamily(t *testing.T) {
	if FamilyEDO.Years() != 10 || FamilyROD.Years() != 12 {
		t.Errorf("unexpected maturities %d/%d", FamilyEDO.Years(), FamilyROD.Years())
	}
	if !FamilyEDO.Owns("EDO0134") || FamilyEDO.Owns("ROD0136") {
		t.Error("Owns() should match on the family prefix")
	}
}

func TestNewBond_BuyoutDate(t *testing.T) {
	start := date(2024, time.January, 1)
	edo := NewBond("EDO0134", FamilyEDO, start, date(2024, time.January, 31), nil)
	rod := NewBond("ROD0136", FamilyROD, start, date(2024, time.January, 31), nil)

	if !edo.BuyoutDate.Equal(date(2034, time.January, 1)) {
		t.Errorf("EDO BuyoutDate = %v", edo.BuyoutDate)
	}
	if !rod.BuyoutDate.Equal(date(2036, time.January, 1)) {
		t.Errorf("ROD BuyoutDate = %v", rod.BuyoutDate)
	}
}

func TestValues_SeriesLength(t *testing.T) {
	start := date(2024, time.January, 1)
	rates := make([]float64, 10)
	for i := range rates {
		rates[i] = 0.05
	}
	bond := NewBond("EDO0134", FamilyEDO, start, start, rates)

	want := 1
	for i := 0; i < 10; i++ {
		want += daysBetween(start.AddDate(i, 0, 0), start.AddDate(i+1, 0, 0))
	}
	// 2024, 2028 and 2032 are leap years
	if want != 1+3*366+7*365 {
		t.Fatalf("unexpected day count %d", want)
	}

	values := bond.Values()
	if len(values) != want {
		t.Errorf("len(Values()) = %d, want %d", len(values), want)
	}
	if values[0] != InitialValue {
		t.Errorf("Values()[0] = %v, want %v", values[0], InitialValue)
	}
}

func TestValues_LeapYearInsideFirstYear(t *testing.T) {
	start := date(2023, time.March, 1)
	bond := NewBond("EDO0333", FamilyEDO, start, start, []float64{0.07})

	if got := len(bond.Values()); got != 1+366 {
		t.Errorf("a year spanning 29 February has 366 days, series length = %d", got)
	}
}

func TestValues_Accrual(t *testing.T) {
	start := date(2023, time.January, 1)
	bond := NewBond("EDO0133", FamilyEDO, start, start, []float64{0.0365, 0.073})
	values := bond.Values()

	tests := []struct {
		day  int
		want float64
	}{
		{0, 100},
		{1, 100.01},
		{100, 101},
		{365, 103.65},
		// Second year accrues on the value reached at the end of the first
		{365 + 1, 103.67},
		{365 + 366, 111.22},
	}

	for _, tt := range tests {
		if values[tt.day] != tt.want {
			t.Errorf("Values()[%d] = %v, want %v", tt.day, values[tt.day], tt.want)
		}
	}
}

func TestValues_TwoDecimalPlaces(t *testing.T) {
	start := date(2022, time.July, 1)
	bond := NewBond("ROD0734", FamilyROD, start, start,
		[]float64{0.0725, 0.13234, 0.07859, 0.0665, 0.0651, 0.0612, 0.0604, 0.0598, 0.0602, 0.0597, 0.0611, 0.0609})

	for i, v := range bond.Values() {
		scaled := v * 100
		if math.Abs(scaled-math.Round(scaled)) > 1e-6 {
			t.Fatalf("Values()[%d] = %v has more than two decimal places", i, v)
		}
	}
}

func TestValues_Idempotent(t *testing.T) {
	start := date(2024, time.May, 1)
	bond := NewBond("EDO0534", FamilyEDO, start, start, []float64{0.068, 0.052})

	first := bond.Values()
	first[10] = -1

	second := bond.Values()
	if second[10] == -1 {
		t.Error("Values() must not expose the cached series")
	}

	again := NewBond("EDO0534", FamilyEDO, start, start, []float64{0.068, 0.052}).Values()
	if !reflect.DeepEqual(second, again) {
		t.Error("Values() must be deterministic")
	}
	if !reflect.DeepEqual(second, bond.Values()) {
		t.Error("Values() must return the same series on every call")
	}
}

func TestValues_NoRates(t *testing.T) {
	start := date(2025, time.January, 1)
	bond := NewBond("EDO0135", FamilyEDO, start, start, nil)

	if values := bond.Values(); len(values) != 1 || values[0] != InitialValue {
		t.Errorf("Values() = %v, want only the face value", values)
	}
}

func TestDateOf(t *testing.T) {
	bond := NewBond("EDO0224", FamilyEDO, date(2024, time.February, 1), date(2024, time.February, 29), nil)
	if got := bond.DateOf(29); !got.Equal(date(2024, time.March, 1)) {
		t.Errorf("DateOf(29) = %v", got)
	}
}

func TestRoundRate(t *testing.T) {
	if got := roundRate(0.0680000001); got != 0.068 {
		t.Errorf("roundRate() = %v, want 0.068", got)
	}
	if got := roundRate(0.123456); got != 0.12346 {
		t.Errorf("roundRate() = %v, want 0.12346", got)
	}
}
