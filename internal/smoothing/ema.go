package smoothing

// EMA is an exponential moving average over a 2D point.
type EMA struct {
	alpha  float64
	x, y   float64
	seeded bool
}

// NewEMA creates an average that weights each new sample by alpha (0..1].
func NewEMA(alpha float64) *EMA {
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}
	return &EMA{alpha: alpha}
}

// Update blends (x, y) into the average and returns it.
func (e *EMA) Update(x, y float64) (float64, float64) {
	if !e.seeded {
		e.x, e.y = x, y
		e.seeded = true
		return x, y
	}
	e.x = e.alpha*x + (1-e.alpha)*e.x
	e.y = e.alpha*y + (1-e.alpha)*e.y
	return e.x, e.y
}

// Reset forgets the running average.
func (e *EMA) Reset() {
	e.seeded = false
	e.x, e.y = 0, 0
}
