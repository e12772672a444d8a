// Package coord implements the two network-coordinate subsystems: Vivaldi
// height-coordinates and Meridian concentric rings.
package coord

import (
	"errors"
	"math"
	"math/rand"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/simerr"
)

const (
	vivaldiCe     = 0.5
	vivaldiCc     = 0.25
	errMin        = 0.1
	errMax        = 10
	coordBound    = 30000
	anchorEvery   = 5
	anchorError   = 50
	maxRTTSeconds = 300
)

// Vivaldi is a 3-D height coordinate (x, y, h) with an adaptive error
// estimate/§4.3.
type Vivaldi struct {
	X, Y, H float64
	Err     float64

	rng         *rand.Rand
	sinceAnchor int
}

// NewVivaldi returns a coordinate at the origin with the initial error,
// seeded for deterministic jitter.
func NewVivaldi(seed int64) *Vivaldi {
	return &Vivaldi{Err: 1.0, rng: rand.New(rand.NewSource(seed))}
}

// Dist returns the Vivaldi-estimated distance between two coordinates:
// planar norm plus the folded height term.
func Dist(a, b Vivaldi) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx+dy*dy) + math.Abs(a.H+b.H)
}

func (v *Vivaldi) finite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.H) && !math.IsInf(v.H, 0)
}

func (v *Vivaldi) withinBounds() bool {
	return math.Abs(v.X) <= coordBound && math.Abs(v.Y) <= coordBound && math.Abs(v.H) <= coordBound
}

func (v *Vivaldi) clampError() {
	if v.Err < errMin {
		v.Err = errMin
	}
	if v.Err > errMax {
		v.Err = errMax
	}
}

func (v *Vivaldi) reset() {
	v.X, v.Y, v.H = 0, 0, 0
	v.Err = 1.0
}

// Update applies one Vivaldi step given a measured RTT (seconds) against
// peer coordinate peer with peer error peerErr. Rejected updates return a
// *simerr.SimError describing why. An RTT out of range or a zero combined
// error leaves v unchanged; a step that would make the coordinate
// non-finite or exceed the bounds resets v to the origin with the initial
// error.
func (v *Vivaldi) Update(rtt float64, peer Vivaldi, peerErr float64) error {
	if math.IsNaN(rtt) || math.IsInf(rtt, 0) || rtt <= 0 || rtt > maxRTTSeconds {
		return simerr.ErrInvariant("vivaldi_update", errRTTRange)
	}
	if v.Err+peerErr == 0 {
		return simerr.ErrInvariant("vivaldi_update", errZeroError)
	}

	w := v.Err / (v.Err + peerErr)
	dist := Dist(*v, peer)
	re := rtt - dist
	es := math.Abs(re) / rtt

	v.Err = es*vivaldiCe*w + v.Err*(1-vivaldiCe*w)
	v.clampError()

	delta := vivaldiCc * w
	dx := v.X - peer.X + jitter(v.rng)
	dy := v.Y - peer.Y + jitter(v.rng)
	dh := v.H - peer.H + jitter(v.rng)
	norm := math.Sqrt(dx*dx + dy*dy + dh*dh)
	if norm < 1e-9 {
		norm = 1e-9
	}
	ux, uy, uh := dx/norm, dy/norm, dh/norm

	nx := v.X + ux*delta*re
	ny := v.Y + uy*delta*re
	// Height is folded to non-negative, same as the reference height-
	// coordinate model: it represents access-link overhead, which has no
	// sign.
	nh := math.Abs(v.H + uh*delta*re)

	v.X, v.Y, v.H = nx, ny, nh

	if !v.finite() || !v.withinBounds() {
		v.reset()
		return simerr.ErrInvariant("vivaldi_update", errOutOfBounds)
	}

	v.sinceAnchor++
	if v.sinceAnchor >= anchorEvery {
		v.sinceAnchor = 0
		v.anchor()
	}
	return nil
}

// anchor injects a synthetic error update against the origin, with the
// origin's error set to anchorError. The synthetic RTT equals the current
// estimated distance to the origin, so the relative error is zero: anchor
// only lowers v.Err and does not move the coordinate.
func (v *Vivaldi) anchor() {
	origin := Vivaldi{}
	w := v.Err / (v.Err + anchorError)
	dist := Dist(*v, origin)
	// A zero-distance anchor RTT would be rejected by Update's rtt>0 rule;
	// anchor RTT is defined as the current estimated distance to the
	// origin, clamped away from zero.
	rtt := dist
	if rtt <= 0 {
		rtt = 1e-6
	}
	re := rtt - dist
	es := math.Abs(re) / rtt
	v.Err = es*vivaldiCe*w + v.Err*(1-vivaldiCe*w)
	v.clampError()
}

func jitter(rng *rand.Rand) float64 {
	return (rng.Float64() - 0.5) * 1e-6
}

var (
	errRTTRange    = errors.New("rtt out of (0, 300s] range")
	errZeroError   = errors.New("combined error is zero")
	errOutOfBounds = errors.New("coordinate exceeded bounds or went non-finite")
)
