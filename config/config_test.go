package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swdee/go-trafficwatch/detect"
	"github.com/swdee/go-trafficwatch/zone"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	file := filepath.Join(t.TempDir(), "trafficwatch.yaml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	return file
}

func TestLoadDefaults(t *testing.T) {

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Tracker.MaxAge)
	assert.Equal(t, 3, cfg.Tracker.MinHits)
	assert.Equal(t, 0.3, cfg.Tracker.IoUThreshold)
	assert.Equal(t, 10.0, cfg.Speed.PixelsPerMeter)
	assert.Equal(t, 60.0, cfg.Violation.SpeedLimit)
	assert.Nil(t, cfg.Violation.LaneBoundaryY)
	assert.Equal(t, 2*time.Second, cfg.Plate.Cooldown)
	assert.Equal(t, 4, cfg.Plate.MinLength)
	assert.Equal(t, "detected_license_plates.csv", cfg.Record.CSVPath)
	assert.Empty(t, cfg.Repository.DSN)
	assert.Nil(t, cfg.Zone.ROI)
	assert.Nil(t, cfg.Zone.CountLine)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)

	roi, err := cfg.NewROI()
	require.NoError(t, err)
	assert.Nil(t, roi)

	counter, err := cfg.NewCounter()
	require.NoError(t, err)
	assert.Nil(t, counter)

	eng := cfg.EngineConfig()
	assert.False(t, eng.LaneAuto)
	assert.Nil(t, eng.Violation.LaneBoundaryY)
	require.NoError(t, eng.Validate())
}

func TestLoadFile(t *testing.T) {

	file := writeConfig(t, `
tracker:
  max_age: 2
  min_hits: 1
speed:
  pixels_per_meter: 8.5
violation:
  speed_limit: 50
  lane_boundary_y: 300
plate:
  cooldown: 5s
zone:
  roi: [[0, 0], [1280, 0], [1280, 720], [0, 720]]
  count_line: [400, 297, 673, 297]
  count_band: 20
`)

	cfg, err := Load(New(), file)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Tracker.MaxAge)
	assert.Equal(t, 1, cfg.Tracker.MinHits)
	assert.Equal(t, 8.5, cfg.Speed.PixelsPerMeter)
	assert.Equal(t, 5*time.Second, cfg.Plate.Cooldown)
	require.NotNil(t, cfg.Violation.LaneBoundaryY)
	assert.Equal(t, 300.0, *cfg.Violation.LaneBoundaryY)

	want := []detect.Point{{X: 0, Y: 0}, {X: 1280, Y: 0}, {X: 1280, Y: 720}, {X: 0, Y: 720}}
	if diff := cmp.Diff(want, cfg.Zone.ROI); diff != "" {
		t.Errorf("roi mismatch (-want +got):\n%s", diff)
	}

	require.NotNil(t, cfg.Zone.CountLine)
	assert.Equal(t, zone.Line{X1: 400, Y1: 297, X2: 673, Y2: 297}, *cfg.Zone.CountLine)

	eng := cfg.EngineConfig()
	assert.Equal(t, 50.0, eng.Violation.SpeedLimit)
	require.NotNil(t, eng.Violation.LaneBoundaryY)
	assert.Equal(t, 300.0, *eng.Violation.LaneBoundaryY)
	assert.False(t, eng.LaneAuto)

	roi, err := cfg.NewROI()
	require.NoError(t, err)
	assert.NotNil(t, roi)

	counter, err := cfg.NewCounter()
	require.NoError(t, err)
	assert.Equal(t, *cfg.Zone.CountLine, counter.Line())
}

func TestLoadEnvironment(t *testing.T) {

	t.Setenv("TRAFFICWATCH_TRACKER_MIN_HITS", "5")
	t.Setenv("TRAFFICWATCH_VIOLATION_LANE_BOUNDARY_Y", "-1")
	t.Setenv("TRAFFICWATCH_ZONE_ROI", "10,10;200,10;200,200")
	t.Setenv("TRAFFICWATCH_ZONE_COUNT_LINE", "0, 100, 640, 100")
	t.Setenv("TRAFFICWATCH_PLATE_COOLDOWN", "1500ms")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Tracker.MinHits)
	assert.Equal(t, 1500*time.Millisecond, cfg.Plate.Cooldown)
	assert.True(t, cfg.LaneAuto())
	assert.Len(t, cfg.Zone.ROI, 3)
	assert.Equal(t, detect.Point{X: 200, Y: 10}, cfg.Zone.ROI[1])
	assert.Equal(t, zone.Line{X1: 0, Y1: 100, X2: 640, Y2: 100}, *cfg.Zone.CountLine)

	eng := cfg.EngineConfig()
	assert.True(t, eng.LaneAuto)
	assert.Nil(t, eng.Violation.LaneBoundaryY)
}

func TestLoadInvalid(t *testing.T) {

	tests := []struct {
		name string
		yaml string
	}{
		{name: "pixels per meter", yaml: "speed:\n  pixels_per_meter: 0\n"},
		{name: "iou threshold", yaml: "tracker:\n  iou_threshold: 1.5\n"},
		{name: "min hits", yaml: "tracker:\n  min_hits: 0\n"},
		{name: "max age", yaml: "tracker:\n  max_age: -1\n"},
		{name: "roi points", yaml: "zone:\n  roi: [[0, 0], [10, 10]]\n"},
		{name: "roi pair", yaml: "zone:\n  roi: [[0, 0, 1], [10, 10], [5, 5]]\n"},
		{name: "count line", yaml: "zone:\n  count_line: [1, 2, 3]\n"},
		{name: "lane boundary", yaml: "violation:\n  lane_boundary_y: middle\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(New(), writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRiders(t *testing.T) {

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	riders := cfg.Riders()
	assert.Equal(t, 0.3, riders.MinOverlap)
	assert.Equal(t, 2, riders.MaxRiders)
}

func TestNewLogger(t *testing.T) {

	var buf bytes.Buffer

	log, err := NewLogger(&buf, "warn", "json")
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("plate", "AB1234").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"plate":"AB1234"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)

	_, err = NewLogger(&buf, "loud", "json")
	assert.Error(t, err)

	_, err = NewLogger(&buf, "info", "xml")
	assert.Error(t, err)

	_, err = NewLogger(&buf, "", "console")
	assert.NoError(t, err)
}
