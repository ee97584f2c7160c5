package sketch

// Easing maps linear progress in [0, 1] to eased progress.
type Easing func(t float64) float64

// Power3InOut is a cubic ease-in-out.
func Power3InOut(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}

// tween animates one control from its current value to a target.
type tween struct {
	control  string
	from, to float32
	duration float64
	elapsed  float64
	ease     Easing
}

// step advances by dt and returns the new value and whether it finished.
func (tw *tween) step(dt float64) (float32, bool) {
	tw.elapsed += dt
	t := tw.elapsed / tw.duration
	if t >= 1 {
		return tw.to, true
	}
	return tw.from + (tw.to-tw.from)*float32(tw.ease(t)), false
}
