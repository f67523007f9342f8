package violation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plates map[string]bool

func (p plates) Contains(plate string) bool {
	return p[plate]
}

func TestClassifySpeedingOnly(t *testing.T) {

	c := NewClassifier(DefaultConfig(), nil)

	res := c.Classify(Input{Speed: 75.0, CenterY: 300})

	require.Len(t, res, 1)
	assert.Equal(t, Speeding, res[0].Kind)
	assert.Equal(t, "Speeding: 75.0 km/h (> 60 km/h)", res[0].String())
}

func TestClassifyAtLimit(t *testing.T) {
	c := NewClassifier(DefaultConfig(), nil)
	assert.Empty(t, c.Classify(Input{Speed: 60}))
}

func TestClassifyLane(t *testing.T) {

	cfg := DefaultConfig()
	boundary := 360.0
	cfg.LaneBoundaryY = &boundary
	c := NewClassifier(cfg, nil)

	assert.Empty(t, c.Classify(Input{CenterY: 400}))
	assert.Empty(t, c.Classify(Input{CenterY: 310}))
	assert.True(t, c.Classify(Input{CenterY: 411}).Has(LaneCrossing))
	assert.True(t, c.Classify(Input{CenterY: 300}).Has(LaneCrossing))

	c2 := NewClassifier(DefaultConfig(), nil)
	_, ok := c2.LaneBoundary()
	assert.False(t, ok)
	c2.SetLaneBoundary(100)
	y, ok := c2.LaneBoundary()
	assert.True(t, ok)
	assert.Equal(t, 100.0, y)
}

func TestClassifyOrdering(t *testing.T) {

	cfg := DefaultConfig()
	boundary := 100.0
	cfg.LaneBoundaryY = &boundary
	c := NewClassifier(cfg, plates{"AB1234": true})

	res := c.Classify(Input{
		Speed:        90,
		CenterY:      500,
		TripleRiding: true,
		Plate:        "AB1234",
	})

	kinds := make([]Kind, len(res))
	for i, tag := range res {
		kinds[i] = tag.Kind
	}

	assert.Equal(t, []Kind{Speeding, LaneCrossing, TripleRiding, CriminalVehicle}, kinds)
	assert.Equal(t, "Speeding: 90.0 km/h (> 60 km/h);Lane Crossing;Triple Riding;Criminal Vehicle", res.String())
}

func TestCriminalRequiresPlate(t *testing.T) {
	c := NewClassifier(DefaultConfig(), plates{"": true})
	assert.False(t, c.IsCriminal(""))
	assert.Empty(t, c.Classify(Input{}))
}

func TestSetWith(t *testing.T) {

	var s Set
	assert.Equal(t, "None", s.String())

	s = s.With(Tag{Kind: CriminalVehicle})
	s = s.With(Tag{Kind: CriminalVehicle})
	assert.Len(t, s, 1)

	base := Set{{Kind: Speeding, Speed: 70, Limit: 60}}
	extended := base.With(Tag{Kind: CriminalVehicle})
	assert.Len(t, base, 1)
	assert.Equal(t, []string{"Speeding: 70.0 km/h (> 60 km/h)", "Criminal Vehicle"}, extended.Strings())
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{SpeedLimit: 0}.Validate())
	assert.Error(t, Config{SpeedLimit: 60, LaneMargin: -1}.Validate())
}
