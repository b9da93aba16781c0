// Package profile builds hourly thermal demand profiles from coarse
// consumption records so they can feed a plant configuration as an
// absolute load series.
package profile

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ppadillaq/sammoo/internal/errors"
	"github.com/ppadillaq/sammoo/internal/sim"
)

const (
	// Lower heating value of LPG.
	defaultPCIkJPerKg = 46000.0
	// Burner conversion efficiency from fuel to useful heat.
	defaultEfficiency = 0.8
	defaultYear       = 2019

	hoursPerYear   = 8760
	secondsPerHour = 3600.0
)

// ThermalLoadLPG converts monthly LPG consumption figures into an
// hourly thermal demand series. Consumption is spread uniformly over
// the active hours of each month: weekdays, 06:00 to 19:00. The year
// must be non-leap so the series has exactly 8760 samples.
type ThermalLoadLPG struct {
	monthlyKg  map[time.Month]float64
	pciKJPerKg float64
	efficiency float64
	year       int

	// energy delivered per hour slot, kJ
	hourly []float64

	log *zap.Logger
}

// LoadOption adjusts profile construction.
type LoadOption func(*ThermalLoadLPG)

// WithHeatingValue overrides the fuel lower heating value in kJ/kg.
func WithHeatingValue(pci float64) LoadOption {
	return func(t *ThermalLoadLPG) { t.pciKJPerKg = pci }
}

// WithEfficiency overrides the fuel-to-heat conversion efficiency.
func WithEfficiency(eta float64) LoadOption {
	return func(t *ThermalLoadLPG) { t.efficiency = eta }
}

// WithYear sets the calendar year used to lay out the series.
func WithYear(year int) LoadOption {
	return func(t *ThermalLoadLPG) { t.year = year }
}

// WithLoadLogger attaches a logger for export notices.
func WithLoadLogger(log *zap.Logger) LoadOption {
	return func(t *ThermalLoadLPG) { t.log = log }
}

// NewThermalLoadLPG builds the hourly series from monthly LPG masses in
// kg, keyed by calendar month.
func NewThermalLoadLPG(monthlyKg map[time.Month]float64, opts ...LoadOption) (*ThermalLoadLPG, error) {
	t := &ThermalLoadLPG{
		monthlyKg:  monthlyKg,
		pciKJPerKg: defaultPCIkJPerKg,
		efficiency: defaultEfficiency,
		year:       defaultYear,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.log == nil {
		t.log = zap.NewNop()
	}

	if len(monthlyKg) == 0 {
		return nil, errors.New(errors.KindConfiguration, "no monthly consumption data").
			WithComponent("profile")
	}
	for m, kg := range monthlyKg {
		if m < time.January || m > time.December {
			return nil, errors.Newf(errors.KindConfiguration, "invalid month %d", m).
				WithComponent("profile")
		}
		if kg < 0 {
			return nil, errors.Newf(errors.KindConfiguration, "negative consumption %.1f kg for %s", kg, m).
				WithComponent("profile")
		}
	}
	if isLeapYear(t.year) {
		return nil, errors.Newf(errors.KindConfiguration,
			"year %d is a leap year, series would not have %d samples", t.year, hoursPerYear).
			WithComponent("profile")
	}
	if t.efficiency <= 0 || t.efficiency > 1 {
		return nil, errors.Newf(errors.KindConfiguration, "efficiency %.3f out of (0, 1]", t.efficiency).
			WithComponent("profile")
	}

	t.generate()
	return t, nil
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// generate spreads each month's useful energy uniformly over that
// month's active hours.
func (t *ThermalLoadLPG) generate() {
	t.hourly = make([]float64, hoursPerYear)

	type slot struct {
		month  time.Month
		active bool
	}
	slots := make([]slot, hoursPerYear)
	activeHours := make(map[time.Month]int)

	ts := time.Date(t.year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := range slots {
		weekday := ts.Weekday()
		active := weekday != time.Saturday && weekday != time.Sunday &&
			ts.Hour() >= 6 && ts.Hour() < 19
		slots[i] = slot{month: ts.Month(), active: active}
		if active {
			activeHours[ts.Month()]++
		}
		ts = ts.Add(time.Hour)
	}

	hourlyKJ := make(map[time.Month]float64)
	for m, kg := range t.monthlyKg {
		if n := activeHours[m]; n > 0 {
			hourlyKJ[m] = kg * t.pciKJPerKg * t.efficiency / float64(n)
		}
	}
	for i, s := range slots {
		if s.active {
			t.hourly[i] = hourlyKJ[s.month]
		}
	}
}

// AveragePowerMW returns the year-round average thermal power in MW,
// non-active hours included.
func (t *ThermalLoadLPG) AveragePowerMW() float64 {
	var totalKJ float64
	for _, e := range t.hourly {
		totalKJ += e
	}
	avgKW := totalKJ / secondsPerHour / hoursPerYear
	return avgKW / 1000.0
}

// HourlyKWProfile returns the demand series in kW, one value per hour
// of the year.
func (t *ThermalLoadLPG) HourlyKWProfile() ([]float64, error) {
	if len(t.hourly) != hoursPerYear {
		return nil, errors.Newf(errors.KindEvaluation,
			"expected %d hourly values, got %d", hoursPerYear, len(t.hourly)).
			WithComponent("profile")
	}
	kw := make([]float64, len(t.hourly))
	for i, e := range t.hourly {
		kw[i] = e / secondsPerHour
	}
	return kw, nil
}

// ApplyTo pushes the demand profile and the matching design power into
// a plant configuration.
func (t *ThermalLoadLPG) ApplyTo(cfg *sim.ConfigSelection) error {
	profile, err := t.HourlyKWProfile()
	if err != nil {
		return err
	}
	if err := cfg.SetInput("timestep_load_abs", profile); err != nil {
		return errors.Wrap(err, errors.KindConfiguration, "apply load profile").
			WithComponent("profile")
	}
	if err := cfg.SetInput("q_pb_design", t.AveragePowerMW()); err != nil {
		return errors.Wrap(err, errors.KindConfiguration, "apply design power").
			WithComponent("profile")
	}
	t.log.Info("thermal load profile applied",
		zap.Float64("q_pb_design_mw", t.AveragePowerMW()))
	return nil
}

// MonthSummary holds the input and reconstructed energy totals for one
// month, in GJ. The two columns should agree up to float rounding.
type MonthSummary struct {
	Month        time.Month
	InputGJ      float64
	CalculatedGJ float64
}

// Summary returns per-month energy totals for verification, ordered by
// calendar month. Input totals are useful heat (after efficiency).
func (t *ThermalLoadLPG) Summary() []MonthSummary {
	calcKJ := make(map[time.Month]float64)
	ts := time.Date(t.year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for _, e := range t.hourly {
		calcKJ[ts.Month()] += e
		ts = ts.Add(time.Hour)
	}

	out := make([]MonthSummary, 0, 12)
	for m := time.January; m <= time.December; m++ {
		out = append(out, MonthSummary{
			Month:        m,
			InputGJ:      t.monthlyKg[m] * t.pciKJPerKg * t.efficiency / 1e6,
			CalculatedGJ: calcKJ[m] / 1e6,
		})
	}
	return out
}

// ExportCSV writes the hourly profile with energy in kJ and kWh and
// power in kW. Hourly energy in kWh and average power in kW coincide
// numerically.
func (t *ThermalLoadLPG) ExportCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, errors.KindIO, "create %q", path).WithComponent("profile")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"timestamp", "energy_kJ", "energy_kWh", "power_kW"}); err != nil {
		return errors.Wrap(err, errors.KindIO, "write header").WithComponent("profile")
	}
	ts := time.Date(t.year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for _, e := range t.hourly {
		kwh := e / secondsPerHour
		row := []string{
			ts.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.6f", e),
			fmt.Sprintf("%.6f", kwh),
			fmt.Sprintf("%.6f", kwh),
		}
		if err := w.Write(row); err != nil {
			return errors.Wrap(err, errors.KindIO, "write row").WithComponent("profile")
		}
		ts = ts.Add(time.Hour)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, errors.KindIO, "flush").WithComponent("profile")
	}
	t.log.Info("hourly profile exported", zap.String("path", path))
	return nil
}

// Months returns the months with recorded consumption, sorted.
func (t *ThermalLoadLPG) Months() []time.Month {
	out := make([]time.Month, 0, len(t.monthlyKg))
	for m := range t.monthlyKg {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
