package timeline

import "math"

// Default zoom settings.
const (
	DefaultPixelsPerDay = 40.0
	DefaultZoomIn       = 1.25
	DefaultZoomOut      = 0.8
)

// Clamp bounds pixelsPerDay to [MinPixelsPerDay, MaxPixelsPerDay].
func Clamp(pixelsPerDay float64) float64 {
	if math.IsNaN(pixelsPerDay) {
		return DefaultPixelsPerDay
	}
	return min(MaxPixelsPerDay, max(MinPixelsPerDay, pixelsPerDay))
}

// Zoom is the zoom control surface of a chart.
type Zoom struct {
	pixelsPerDay float64
	inFactor     float64
	outFactor    float64
}

// NewZoom constructs a zoom at pixelsPerDay with the default step factors.
func NewZoom(pixelsPerDay float64) *Zoom {
	return NewZoomWithSteps(pixelsPerDay, DefaultZoomIn, DefaultZoomOut)
}

// NewZoomWithSteps constructs a zoom with custom multiplicative steps.
// Factors that would not move the zoom in the named direction fall back to the defaults.
func NewZoomWithSteps(pixelsPerDay, inFactor, outFactor float64) *Zoom {
	if inFactor <= 1 {
		inFactor = DefaultZoomIn
	}
	if outFactor <= 0 || outFactor >= 1 {
		outFactor = DefaultZoomOut
	}
	return &Zoom{
		pixelsPerDay: Clamp(pixelsPerDay),
		inFactor:     inFactor,
		outFactor:    outFactor,
	}
}

// PixelsPerDay returns the current zoom.
func (z *Zoom) PixelsPerDay() float64 {
	return z.pixelsPerDay
}

// Granularity returns the column granularity at the current zoom.
func (z *Zoom) Granularity() Granularity {
	return GranularityFor(z.pixelsPerDay)
}

// Set replaces the zoom, clamped to bounds.
func (z *Zoom) Set(pixelsPerDay float64) {
	z.pixelsPerDay = Clamp(pixelsPerDay)
}

// Adjust multiplies the zoom by factor, clamped to bounds.
func (z *Zoom) Adjust(factor float64) {
	if factor <= 0 {
		return
	}
	z.Set(z.pixelsPerDay * factor)
}

// In zooms in by one step.
func (z *Zoom) In() {
	z.Adjust(z.inFactor)
}

// Out zooms out by one step.
func (z *Zoom) Out() {
	z.Adjust(z.outFactor)
}
