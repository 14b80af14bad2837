// Package smoothing holds the scalar filters used to steady fingertip coordinates.
package smoothing

// Default noise parameters for fingertip tracking in pixel space.
const (
	DefaultProcessNoise     = 2e-3
	DefaultMeasurementNoise = 6e-3
)

// Kalman is a constant-position 1D Kalman filter.
//
// The first update after construction or Reset returns the measurement
// unchanged and seeds the estimate.
type Kalman struct {
	q, r   float64
	x, p   float64
	seeded bool
}

// NewKalman creates a filter with process noise q and measurement noise r.
// Non-positive values fall back to the defaults.
func NewKalman(q, r float64) *Kalman {
	if q <= 0 {
		q = DefaultProcessNoise
	}
	if r <= 0 {
		r = DefaultMeasurementNoise
	}
	return &Kalman{q: q, r: r, p: 1}
}

// Update folds measurement z into the estimate and returns the new estimate.
func (k *Kalman) Update(z float64) float64 {
	if !k.seeded {
		k.x = z
		k.p = 1
		k.seeded = true
		return z
	}

	k.p += k.q
	gain := k.p / (k.p + k.r)
	k.x += gain * (z - k.x)
	k.p *= 1 - gain
	return k.x
}

// Reset returns the filter to the unseeded state.
func (k *Kalman) Reset() {
	k.seeded = false
	k.x = 0
	k.p = 1
}

// Seeded reports whether the filter holds an estimate.
func (k *Kalman) Seeded() bool {
	return k.seeded
}

// Estimate returns the current estimate (zero when unseeded).
func (k *Kalman) Estimate() float64 {
	return k.x
}
