package tracker

import (
	"github.com/swdee/go-trafficwatch/detect"
	"gonum.org/v1/gonum/mat"
)

// stateDim is the size of the motion state vector (cx, cy, vx, vy)
const stateDim = 4

// MotionModel is a constant velocity estimate of a track's center point.
// Velocity is held in pixels per second
type MotionModel struct {
	// state vector of center x, center y, velocity x, velocity y
	state *mat.VecDense
	// transitionMat is the constant velocity state transition, its dt
	// entries are set on each predict
	transitionMat *mat.Dense
	// observed is the center point of the last matched observation
	observed detect.Point
	// blend is the weight given to a newly measured velocity when mixing it
	// into the existing velocity estimate
	blend float64
}

// NewMotionModel initializes a model at the given center with zero velocity
func NewMotionModel(center detect.Point, blend float64) *MotionModel {

	// create identity matrix for the transition
	transitionMat := mat.NewDense(stateDim, stateDim, nil)

	for i := 0; i < stateDim; i++ {
		transitionMat.Set(i, i, 1.0)
	}

	return &MotionModel{
		state:         mat.NewVecDense(stateDim, []float64{center.X, center.Y, 0, 0}),
		transitionMat: transitionMat,
		observed:      center,
		blend:         blend,
	}
}

// Predict advances the position estimate by dt seconds using the current
// velocity.  The velocity is not changed
func (m *MotionModel) Predict(dt float64) {

	m.transitionMat.Set(0, 2, dt)
	m.transitionMat.Set(1, 3, dt)

	next := mat.NewVecDense(stateDim, nil)
	next.MulVec(m.transitionMat, m.state)

	m.state = next
}

// Update corrects the model with an observed center point.  dt is the time in
// seconds since the previous observation and is used to measure the velocity
// which is blended into the existing estimate
func (m *MotionModel) Update(observed detect.Point, dt float64) {

	if dt > 0 {
		measured := mat.NewVecDense(2, []float64{
			(observed.X - m.observed.X) / dt,
			(observed.Y - m.observed.Y) / dt,
		})

		velocity := mat.NewVecDense(2, []float64{m.state.AtVec(2), m.state.AtVec(3)})
		velocity.ScaleVec(1-m.blend, velocity)
		velocity.AddScaledVec(velocity, m.blend, measured)

		m.state.SetVec(2, velocity.AtVec(0))
		m.state.SetVec(3, velocity.AtVec(1))
	}

	// position snaps to the observation
	m.state.SetVec(0, observed.X)
	m.state.SetVec(1, observed.Y)

	m.observed = observed
}

// Position returns the estimated center point
func (m *MotionModel) Position() detect.Point {
	return detect.Point{X: m.state.AtVec(0), Y: m.state.AtVec(1)}
}

// Velocity returns the estimated velocity in pixels per second
func (m *MotionModel) Velocity() detect.Point {
	return detect.Point{X: m.state.AtVec(2), Y: m.state.AtVec(3)}
}

// Observed returns the center point of the last observation
func (m *MotionModel) Observed() detect.Point {
	return m.observed
}
