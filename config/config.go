// Package config loads trafficwatch settings from an optional YAML file,
// TRAFFICWATCH_ prefixed environment variables and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/swdee/go-trafficwatch"
	"github.com/swdee/go-trafficwatch/detect"
	"github.com/swdee/go-trafficwatch/plate"
	"github.com/swdee/go-trafficwatch/record"
	"github.com/swdee/go-trafficwatch/violation"
	"github.com/swdee/go-trafficwatch/zone"
)

// EnvPrefix is prepended to environment variable names, so tracker.max_age
// is read from TRAFFICWATCH_TRACKER_MAX_AGE
const EnvPrefix = "TRAFFICWATCH"

// LaneAutoValue as the lane boundary places it at the middle of the first
// frame
const LaneAutoValue = -1

type Tracker struct {
	MaxAge        int
	MinHits       int
	IoUThreshold  float64
	VelocityBlend float64
}

type Speed struct {
	PixelsPerMeter float64
	Smoothing      float64
	SpikeKmh       float64
	DefaultFPS     float64
}

type Violation struct {
	SpeedLimit float64
	// LaneBoundaryY is nil when lane checks are disabled
	LaneBoundaryY *float64
	LaneMargin    float64
	RiderOverlap  float64
	MaxRiders     int
}

type Plate struct {
	Cooldown    time.Duration
	MinLength   int
	CriminalCSV string
}

type Record struct {
	CSVPath    string
	SQLitePath string
	// RingSize is the number of recent records kept for the API
	RingSize int
}

type Repository struct {
	// DSN is the Postgres connection string, empty disables the repository
	DSN string
}

type Zone struct {
	ROI           []detect.Point
	ROIMinOverlap float64
	// CountLine is nil when counting is disabled
	CountLine *zone.Line
	CountBand float64
}

type HTTP struct {
	Addr string
}

type Log struct {
	Level  string
	Format string
}

// Config is the complete application configuration
type Config struct {
	Tracker    Tracker
	Speed      Speed
	Violation  Violation
	Plate      Plate
	Record     Record
	Repository Repository
	Zone       Zone
	HTTP       HTTP
	Log        Log
	// TrailSize is the number of track center points kept for drawing
	TrailSize int
}

// defaults are the values used for keys not set in the file or environment
var defaults = map[string]interface{}{
	"tracker.max_age":         1,
	"tracker.min_hits":        3,
	"tracker.iou_threshold":   0.3,
	"tracker.velocity_blend":  0.6,
	"speed.pixels_per_meter":  10.0,
	"speed.smoothing":         0.8,
	"speed.spike_kmh":         10.0,
	"speed.default_fps":       30.0,
	"violation.speed_limit":   60.0,
	"violation.lane_margin":   50.0,
	"violation.rider_overlap": 0.3,
	"violation.max_riders":    2,
	"plate.cooldown":          plate.DefaultCooldown,
	"plate.min_length":        plate.DefaultMinLength,
	"plate.criminal_csv":      "",
	"record.csv_path":         record.DefaultCSVPath,
	"record.sqlite_path":      "",
	"record.ring_size":        500,
	"repository.dsn":          "",
	"zone.roi_min_overlap":    zone.DefaultMinOverlap,
	"zone.count_band":         zone.DefaultBand,
	"http.addr":               ":8080",
	"log.level":               "info",
	"log.format":              "console",
	"trail.size":              30,
}

// optional keys have no default, unset disables the feature
var optional = []string{
	"violation.lane_boundary_y",
	"zone.roi",
	"zone.count_line",
}

// New returns a viper instance with defaults and environment binding set
// up, ready for flags to be bound before Load
func New() *viper.Viper {

	v := viper.New()

	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range optional {
		// keys without defaults are only seen in the environment once bound
		_ = v.BindEnv(key)
	}

	return v
}

// Load reads the YAML file, if given, and returns the validated
// configuration
func Load(v *viper.Viper, file string) (*Config, error) {

	if file != "" {
		v.SetConfigFile(file)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", file, err)
		}
	}

	cfg, err := decode(v)

	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// decode converts the viper settings into a Config
func decode(v *viper.Viper) (*Config, error) {

	cfg := &Config{
		Tracker: Tracker{
			MaxAge:        v.GetInt("tracker.max_age"),
			MinHits:       v.GetInt("tracker.min_hits"),
			IoUThreshold:  v.GetFloat64("tracker.iou_threshold"),
			VelocityBlend: v.GetFloat64("tracker.velocity_blend"),
		},
		Speed: Speed{
			PixelsPerMeter: v.GetFloat64("speed.pixels_per_meter"),
			Smoothing:      v.GetFloat64("speed.smoothing"),
			SpikeKmh:       v.GetFloat64("speed.spike_kmh"),
			DefaultFPS:     v.GetFloat64("speed.default_fps"),
		},
		Violation: Violation{
			SpeedLimit:   v.GetFloat64("violation.speed_limit"),
			LaneMargin:   v.GetFloat64("violation.lane_margin"),
			RiderOverlap: v.GetFloat64("violation.rider_overlap"),
			MaxRiders:    v.GetInt("violation.max_riders"),
		},
		Plate: Plate{
			Cooldown:    v.GetDuration("plate.cooldown"),
			MinLength:   v.GetInt("plate.min_length"),
			CriminalCSV: v.GetString("plate.criminal_csv"),
		},
		Record: Record{
			CSVPath:    v.GetString("record.csv_path"),
			SQLitePath: v.GetString("record.sqlite_path"),
			RingSize:   v.GetInt("record.ring_size"),
		},
		Repository: Repository{
			DSN: v.GetString("repository.dsn"),
		},
		Zone: Zone{
			ROIMinOverlap: v.GetFloat64("zone.roi_min_overlap"),
			CountBand:     v.GetFloat64("zone.count_band"),
		},
		HTTP: HTTP{
			Addr: v.GetString("http.addr"),
		},
		Log: Log{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		TrailSize: v.GetInt("trail.size"),
	}

	if raw := v.Get("violation.lane_boundary_y"); raw != nil && raw != "" {
		y, err := cast.ToFloat64E(raw)
		if err != nil {
			return nil, fmt.Errorf("violation.lane_boundary_y: %w", err)
		}
		cfg.Violation.LaneBoundaryY = &y
	}

	if raw := v.Get("zone.roi"); raw != nil && raw != "" {
		points, err := ParsePoints(raw)
		if err != nil {
			return nil, fmt.Errorf("zone.roi: %w", err)
		}
		cfg.Zone.ROI = points
	}

	if raw := v.Get("zone.count_line"); raw != nil && raw != "" {
		line, err := ParseLine(raw)
		if err != nil {
			return nil, fmt.Errorf("zone.count_line: %w", err)
		}
		cfg.Zone.CountLine = &line
	}

	return cfg, nil
}

// Validate checks the configuration values are usable
func (c *Config) Validate() error {

	if err := c.EngineConfig().Validate(); err != nil {
		return err
	}

	if c.Violation.RiderOverlap <= 0 || c.Violation.RiderOverlap > 1 {
		return fmt.Errorf("rider overlap %g must be within (0,1]", c.Violation.RiderOverlap)
	}

	if c.Violation.MaxRiders < 1 {
		return errors.New("max riders must be at least 1")
	}

	if len(c.Zone.ROI) > 0 && len(c.Zone.ROI) < 3 {
		return fmt.Errorf("region of interest needs at least 3 points, got %d", len(c.Zone.ROI))
	}

	if c.Record.RingSize < 1 {
		return errors.New("record ring size must be at least 1")
	}

	return nil
}

// LaneAuto reports whether the lane boundary is placed from the first frame
func (c *Config) LaneAuto() bool {
	return c.Violation.LaneBoundaryY != nil && *c.Violation.LaneBoundaryY == LaneAutoValue
}

// EngineConfig returns the Engine parameters
func (c *Config) EngineConfig() trafficwatch.Config {

	cfg := trafficwatch.DefaultConfig()

	cfg.Tracker.MaxAge = c.Tracker.MaxAge
	cfg.Tracker.MinHits = c.Tracker.MinHits
	cfg.Tracker.IoUThreshold = c.Tracker.IoUThreshold
	cfg.Tracker.VelocityBlend = c.Tracker.VelocityBlend

	cfg.Speed.PixelsPerMeter = c.Speed.PixelsPerMeter
	cfg.Speed.Smoothing = c.Speed.Smoothing
	cfg.Speed.SpikeKmh = c.Speed.SpikeKmh
	cfg.Speed.DefaultFPS = c.Speed.DefaultFPS

	cfg.Violation = violation.Config{
		SpeedLimit: c.Violation.SpeedLimit,
		LaneMargin: c.Violation.LaneMargin,
	}

	if c.LaneAuto() {
		cfg.LaneAuto = true
	} else if c.Violation.LaneBoundaryY != nil {
		y := *c.Violation.LaneBoundaryY
		cfg.Violation.LaneBoundaryY = &y
	}

	cfg.PlateCooldown = c.Plate.Cooldown
	cfg.PlateMinLength = c.Plate.MinLength
	cfg.TrailSize = c.TrailSize

	return cfg
}

// Riders returns the triple riding analyzer
func (c *Config) Riders() violation.OverlapRiders {
	return violation.OverlapRiders{
		MinOverlap: c.Violation.RiderOverlap,
		MaxRiders:  c.Violation.MaxRiders,
	}
}

// NewROI returns the configured region of interest, nil if none is set
func (c *Config) NewROI() (*zone.ROI, error) {

	if len(c.Zone.ROI) == 0 {
		return nil, nil
	}

	return zone.NewROI(c.Zone.ROI, c.Zone.ROIMinOverlap)
}

// NewCounter returns the configured counting line counter, nil if none is
// set
func (c *Config) NewCounter() (*zone.Counter, error) {

	if c.Zone.CountLine == nil {
		return nil, nil
	}

	return zone.NewCounter(*c.Zone.CountLine, c.Zone.CountBand)
}

// ParsePoints converts a list of [x,y] pairs, or a string of the form
// "x,y;x,y;...", into points
func ParsePoints(raw interface{}) ([]detect.Point, error) {

	if s, ok := raw.(string); ok {
		var pairs []interface{}

		for _, pair := range strings.Split(s, ";") {
			if pair = strings.TrimSpace(pair); pair != "" {
				pairs = append(pairs, pair)
			}
		}

		raw = pairs
	}

	items, err := cast.ToSliceE(raw)

	if err != nil {
		return nil, err
	}

	points := make([]detect.Point, 0, len(items))

	for i, item := range items {
		vals, err := floats(item)

		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}

		if len(vals) != 2 {
			return nil, fmt.Errorf("point %d: expected 2 values, got %d", i, len(vals))
		}

		points = append(points, detect.Point{X: vals[0], Y: vals[1]})
	}

	return points, nil
}

// ParseLine converts a list of [x1,y1,x2,y2], or a string "x1,y1,x2,y2",
// into a counting line
func ParseLine(raw interface{}) (zone.Line, error) {

	vals, err := floats(raw)

	if err != nil {
		return zone.Line{}, err
	}

	if len(vals) != 4 {
		return zone.Line{}, fmt.Errorf("expected 4 values, got %d", len(vals))
	}

	return zone.Line{X1: vals[0], Y1: vals[1], X2: vals[2], Y2: vals[3]}, nil
}

// floats converts a list of numbers or a comma separated string of numbers
func floats(raw interface{}) ([]float64, error) {

	if s, ok := raw.(string); ok {
		var parts []interface{}

		for _, part := range strings.Split(s, ",") {
			parts = append(parts, strings.TrimSpace(part))
		}

		raw = parts
	}

	items, err := cast.ToSliceE(raw)

	if err != nil {
		return nil, err
	}

	res := make([]float64, 0, len(items))

	for _, item := range items {
		f, err := cast.ToFloat64E(item)

		if err != nil {
			return nil, err
		}

		res = append(res, f)
	}

	return res, nil
}
