package scm

import "math"

// State is a complete viewer configuration above the sphere: an
// orientation, a unit position scaled by a distance, a light direction,
// and the scalar parameters that shape motion between keyframes.
//
// States are value types. Blending functions return new states and
// leave their inputs untouched, so a path of keyframes can be sampled
// from any goroutine as long as the keyframes themselves are not
// mutated concurrently.
type State struct {
	Orientation Quat // viewer orientation
	Position    Vec3 // unit vector toward the viewer
	Light       Vec3 // unit vector toward the light source

	Speed    float64 // playback speed multiplier
	Distance float64 // viewer distance from the center
	Tension  float64 // hermite tension
	Bias     float64 // hermite bias
	Zoom     float64 // field-of-view zoom
}

// NewState returns the default state: the viewer on the +Z axis looking
// at the origin, lit from above and behind.
func NewState() *State {
	return &State{
		Orientation: QuatIdentity,
		Position:    Vec3{0, 0, 1},
		Light:       Vec3{0, 2, 1}.Normalized(),
		Speed:       1,
		Zoom:        1,
	}
}

// LerpState returns the state a fraction t of the way from a to b.
// Orientation, position and light follow great arcs; the scalar
// parameters blend linearly.
func LerpState(a, b *State, t float64) *State {
	return &State{
		Orientation: slerpQuat(a.Orientation, b.Orientation, t),
		Position:    slerpVec(a.Position, b.Position, t),
		Light:       slerpVec(a.Light, b.Light, t),
		Speed:       lerp(a.Speed, b.Speed, t),
		Distance:    lerp(a.Distance, b.Distance, t),
		Tension:     lerp(a.Tension, b.Tension, t),
		Bias:        lerp(a.Bias, b.Bias, t),
		Zoom:        lerp(a.Zoom, b.Zoom, t),
	}
}

// HermiteState returns the cubic Hermitian blend of the middle pair
// (b, c) of four consecutive keyframes, evaluated at t in [0, 1]. The
// tension and bias of the endpoints shape the tangents; speed, tension,
// bias and zoom themselves blend linearly between b and c.
func HermiteState(a, b, c, d *State, t float64) *State {
	tension := lerp(b.Tension, c.Tension, t)
	bias := lerp(b.Bias, c.Bias, t)

	// Keep all four orientations on the same hypersphere half so the
	// component-wise blend does not take the long way around.
	qa := a.Orientation
	qb := qa.sign(b.Orientation)
	qc := qb.sign(c.Orientation)
	qd := qc.sign(d.Orientation)

	var q Quat
	for i := range q {
		q[i] = hermite(qa[i], qb[i], qc[i], qd[i], t, tension, bias)
	}
	var p, l Vec3
	for i := range p {
		p[i] = hermite(a.Position[i], b.Position[i], c.Position[i], d.Position[i], t, tension, bias)
		l[i] = hermite(a.Light[i], b.Light[i], c.Light[i], d.Light[i], t, tension, bias)
	}

	return &State{
		Orientation: q.Normalized(),
		Position:    p.Normalized(),
		Light:       l.Normalized(),
		Speed:       lerp(b.Speed, c.Speed, t),
		Distance:    hermite(a.Distance, b.Distance, c.Distance, d.Distance, t, tension, bias),
		Tension:     tension,
		Bias:        bias,
		Zoom:        lerp(b.Zoom, c.Zoom, t),
	}
}

// Right returns the viewer's right vector.
func (s *State) Right() Vec3 { return s.Orientation.axisX() }

// Up returns the viewer's up vector.
func (s *State) Up() Vec3 { return s.Orientation.axisY() }

// Forward returns the viewer's line of sight.
func (s *State) Forward() Vec3 { return s.Orientation.axisZ().Scale(-1) }

// Eye returns the viewer position in world space.
func (s *State) Eye() Vec3 { return s.Position.Scale(s.Distance) }

// Matrix returns the column-major view-to-world transform: the
// orientation axes in the upper 3x3 and the eye position in the last
// column.
func (s *State) Matrix() [16]float64 {
	x := s.Orientation.axisX()
	y := s.Orientation.axisY()
	z := s.Orientation.axisZ()
	e := s.Eye()
	return [16]float64{
		x[0], x[1], x[2], 0,
		y[0], y[1], y[2], 0,
		z[0], z[1], z[2], 0,
		e[0], e[1], e[2], 1,
	}
}

// SetPitch reorients the viewer to the given pitch in radians, keeping
// its heading: zero pitch levels the view at the horizon with up along
// the position normal, negative pitch tips it toward the ground.
func (s *State) SetPitch(r float64) {
	p := s.Position.Normalized()

	// Re-orthogonalize the right vector against the position normal.
	x := s.Orientation.axisX()
	z := x.Cross(p).Normalized()
	x = p.Cross(z).Normalized()

	// The new up vector is the position normal pitched about right;
	// right is orthogonal to it, so the rotation reduces to two terms.
	u := p.Scale(math.Cos(r)).Add(x.Cross(p).Scale(math.Sin(r))).Normalized()
	z = x.Cross(u).Normalized()

	s.Orientation = matrixQuat(x, u, z)
}

// matrixQuat converts an orthonormal basis to a quaternion.
func matrixQuat(x, y, z Vec3) Quat {
	tr := x[0] + y[1] + z[2]
	var q Quat
	switch {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q = Quat{(y[2] - z[1]) / s, (z[0] - x[2]) / s, (x[1] - y[0]) / s, s / 4}
	case x[0] > y[1] && x[0] > z[2]:
		s := math.Sqrt(1+x[0]-y[1]-z[2]) * 2
		q = Quat{s / 4, (y[0] + x[1]) / s, (z[0] + x[2]) / s, (y[2] - z[1]) / s}
	case y[1] > z[2]:
		s := math.Sqrt(1+y[1]-x[0]-z[2]) * 2
		q = Quat{(y[0] + x[1]) / s, s / 4, (z[1] + y[2]) / s, (z[0] - x[2]) / s}
	default:
		s := math.Sqrt(1+z[2]-x[0]-y[1]) * 2
		q = Quat{(z[0] + x[2]) / s, (z[1] + y[2]) / s, s / 4, (x[1] - y[0]) / s}
	}
	return q.Normalized()
}

// DistanceTo returns the linear distance between the eye positions of
// two states.
func (s *State) DistanceTo(o *State) float64 {
	return s.Eye().Sub(o.Eye()).Len()
}

// fadeThreshold is the smallest view change worth a dissolve: one step
// of an 8-bit blend factor.
const fadeThreshold = 1.0 / 255.0

// FadeNeeded reports whether the view moved enough between two states
// that a frame-to-frame dissolve would be visible.
func FadeNeeded(a, b *State) bool {
	if a == nil || b == nil {
		return a != b
	}
	ma := a.Matrix()
	mb := b.Matrix()
	for i := range ma {
		if math.Abs(ma[i]-mb[i]) > fadeThreshold {
			return true
		}
	}
	return false
}
