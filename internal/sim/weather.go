package sim

import (
	"bufio"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppadillaq/sammoo/internal/errors"
)

// DNIStrategy selects how the design-point DNI is picked around solar noon.
type DNIStrategy string

const (
	// NearestNoon takes the sample whose solar time is closest to 12:00.
	NearestNoon DNIStrategy = "nearest_noon"
	// MaxWindow takes the maximum DNI within a window around solar noon.
	MaxWindow DNIStrategy = "max_window"
)

var dniColumns = []string{"DNI", "dni", "Dni", "Direct Normal Irradiance", "Direct Normal"}

var coordsFromName = regexp.MustCompile(`([-+]?\d+\.\d+)_([-+]?\d+\.\d+)`)

type weatherRecord struct {
	ts  time.Time
	dni float64
}

// WeatherDesignPoint computes the design-point DNI as the direct normal
// irradiance at solar noon on the summer solstice (June 21 in the
// northern hemisphere, December 21 in the southern).
type WeatherDesignPoint struct {
	path    string
	lat     float64
	lon     float64
	tz      float64
	hasLat  bool
	hasTZ   bool
	records []weatherRecord
	log     *zap.Logger
}

// NewWeatherDesignPoint parses a weather resource CSV: location metadata
// from the header (with a filename fallback for coordinates) and the
// hourly DNI series from the data section.
func NewWeatherDesignPoint(path string, log *zap.Logger) (*WeatherDesignPoint, error) {
	const op = "NewWeatherDesignPoint"

	if log == nil {
		log = zap.NewNop()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "open weather file %q", path).
			WithComponent("sim").WithOp(op)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "read weather file %q", path).
			WithComponent("sim").WithOp(op)
	}

	w := &WeatherDesignPoint{path: path, log: log}
	w.readMetadata(lines)

	if err := w.readSeries(lines); err != nil {
		return nil, err
	}

	return w, nil
}

// readMetadata scans the header for latitude, longitude, and time zone.
// Both "Latitude,32.1" rows and the two-row name/value header layout are
// understood; coordinates fall back to the lat_lon filename pattern.
func (w *WeatherDesignPoint) readMetadata(lines []string) {
	limit := len(lines)
	if limit > 20 {
		limit = 20
	}

	get := func(name string) (float64, bool) {
		for i := 0; i < limit; i++ {
			fields := strings.Split(lines[i], ",")
			for j, cell := range fields {
				if strings.TrimSpace(cell) != name {
					continue
				}
				if j+1 < len(fields) {
					if v, err := strconv.ParseFloat(strings.TrimSpace(fields[j+1]), 64); err == nil {
						return v, true
					}
				}
				if i+1 < len(lines) {
					next := strings.Split(lines[i+1], ",")
					if j < len(next) {
						if v, err := strconv.ParseFloat(strings.TrimSpace(next[j]), 64); err == nil {
							return v, true
						}
					}
				}
			}
		}
		return 0, false
	}

	w.lat, w.hasLat = get("Latitude")
	if lon, ok := get("Longitude"); ok {
		w.lon = lon
	} else if m := coordsFromName.FindStringSubmatch(w.path); m != nil {
		w.lat, _ = strconv.ParseFloat(m[1], 64)
		w.lon, _ = strconv.ParseFloat(m[2], 64)
		w.hasLat = true
	}
	w.tz, w.hasTZ = get("Time Zone")
}

// readSeries locates the Year/Month/Day/Hour data header and parses the
// hourly DNI column.
func (w *WeatherDesignPoint) readSeries(lines []string) error {
	const op = "readSeries"

	headerIdx := -1
	var yearCol, monthCol, dayCol, hourCol, minuteCol, dniCol int
	for i, line := range lines {
		cols := strings.Split(line, ",")
		idx := func(name string) int {
			for j, c := range cols {
				if strings.TrimSpace(c) == name {
					return j
				}
			}
			return -1
		}
		yearCol, monthCol, dayCol, hourCol = idx("Year"), idx("Month"), idx("Day"), idx("Hour")
		minuteCol = idx("Minute")
		dniCol = -1
		for _, name := range dniColumns {
			if c := idx(name); c >= 0 {
				dniCol = c
				break
			}
		}
		if yearCol >= 0 && monthCol >= 0 && dayCol >= 0 && hourCol >= 0 && dniCol >= 0 {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return errors.Newf(errors.KindConfiguration,
			"weather file %q: no Year/Month/Day/Hour header with a DNI column", w.path).
			WithComponent("sim").WithOp(op)
	}

	for _, line := range lines[headerIdx+1:] {
		cols := strings.Split(line, ",")
		if dniCol >= len(cols) {
			continue
		}
		year, err1 := strconv.Atoi(strings.TrimSpace(cols[yearCol]))
		month, err2 := strconv.Atoi(strings.TrimSpace(cols[monthCol]))
		day, err3 := strconv.Atoi(strings.TrimSpace(cols[dayCol]))
		hour, err4 := strconv.Atoi(strings.TrimSpace(cols[hourCol]))
		dni, err5 := strconv.ParseFloat(strings.TrimSpace(cols[dniCol]), 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			continue
		}
		minute := 0
		if minuteCol >= 0 && minuteCol < len(cols) {
			if m, err := strconv.Atoi(strings.TrimSpace(cols[minuteCol])); err == nil {
				minute = m
			}
		}
		w.records = append(w.records, weatherRecord{
			ts:  time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC),
			dni: dni,
		})
	}

	if len(w.records) == 0 {
		return errors.Newf(errors.KindConfiguration, "weather file %q: no data rows parsed", w.path).
			WithComponent("sim").WithOp(op)
	}
	return nil
}

// DesignPointDNI computes the design-point DNI in W/m2 and the local time
// of the selected sample. windowMinutes only applies to the MaxWindow
// strategy.
func (w *WeatherDesignPoint) DesignPointDNI(strategy DNIStrategy, windowMinutes int) (float64, time.Time, error) {
	const op = "DesignPointDNI"

	month, day := time.June, 21
	if w.hasLat && w.lat < 0 {
		month, day = time.December, 21
	}

	var solstice []weatherRecord
	for _, r := range w.records {
		if r.ts.Month() == month && r.ts.Day() == day {
			solstice = append(solstice, r)
		}
	}
	if len(solstice) == 0 {
		return 0, time.Time{}, errors.Newf(errors.KindConfiguration,
			"weather file %q: no rows for the solstice", w.path).
			WithComponent("sim").WithOp(op)
	}

	doy := solstice[0].ts.YearDay()
	offset := w.solarNoonOffsetMinutes(doy)

	solarMinutes := func(r weatherRecord) float64 {
		return float64(r.ts.Hour()*60+r.ts.Minute()) + offset
	}

	nearest := solstice[0]
	for _, r := range solstice[1:] {
		if math.Abs(solarMinutes(r)-720) < math.Abs(solarMinutes(nearest)-720) {
			nearest = r
		}
	}

	chosen := nearest
	if strategy == MaxWindow {
		half := float64(windowMinutes) / 2
		best := weatherRecord{dni: math.Inf(-1)}
		for _, r := range solstice {
			sm := solarMinutes(r)
			if sm >= 720-half && sm <= 720+half && r.dni > best.dni {
				best = r
			}
		}
		if !math.IsInf(best.dni, -1) {
			chosen = best
		}
	}

	hemisphere := "north"
	if month == time.December {
		hemisphere = "south"
	}
	w.log.Info("design-point DNI selected",
		zap.Float64("dni_w_per_m2", chosen.dni),
		zap.Time("local_time", chosen.ts),
		zap.String("hemisphere", hemisphere))

	return chosen.dni, chosen.ts, nil
}

// ApplyTo computes the design-point DNI and assigns it to the
// configuration's solar field.
func (w *WeatherDesignPoint) ApplyTo(cfg *ConfigSelection, strategy DNIStrategy, windowMinutes int) (float64, error) {
	dni, _, err := w.DesignPointDNI(strategy, windowMinutes)
	if err != nil {
		return 0, err
	}
	if err := cfg.SetInput("I_bn_des", dni); err != nil {
		return 0, err
	}
	return dni, nil
}

// solarNoonOffsetMinutes is the total correction from local clock time to
// solar time: equation of time plus longitude correction.
func (w *WeatherDesignPoint) solarNoonOffsetMinutes(doy int) float64 {
	tz := w.tz
	if !w.hasTZ {
		tz = math.Round(w.lon / 15.0)
	}
	standardMeridian := 15.0 * tz
	return equationOfTimeMinutes(doy) + 4.0*(w.lon-standardMeridian)
}

// equationOfTimeMinutes is the Spencer approximation of the equation of
// time, in minutes.
func equationOfTimeMinutes(doy int) float64 {
	b := 2 * math.Pi * float64(doy-81) / 364.0
	return 9.87*math.Sin(2*b) - 7.53*math.Cos(b) - 1.5*math.Sin(b)
}
