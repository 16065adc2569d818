package scm

import "math"

// Vec3 is a 3-component double-precision vector. Positions and light
// directions on the sphere are unit vectors scaled by an explicit
// distance, so normalization shows up everywhere.
type Vec3 [3]float64

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 { return Vec3{v[0] + w[0], v[1] + w[1], v[2] + w[2]} }

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 { return Vec3{v[0] - w[0], v[1] - w[1], v[2] - w[2]} }

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v[0] * s, v[1] * s, v[2] * s} }

// Dot returns the dot product of v and w.
func (v Vec3) Dot(w Vec3) float64 { return v[0]*w[0] + v[1]*w[1] + v[2]*w[2] }

// Cross returns the cross product of v and w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v[1]*w[2] - v[2]*w[1],
		v[2]*w[0] - v[0]*w[2],
		v[0]*w[1] - v[1]*w[0],
	}
}

// Len returns the Euclidean length of v.
func (v Vec3) Len() float64 { return math.Sqrt(v.Dot(v)) }

// Normalized returns v scaled to unit length. The zero vector is
// returned unchanged.
func (v Vec3) Normalized() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Quat is a rotation quaternion (x, y, z, w).
type Quat [4]float64

// QuatIdentity is the identity rotation.
var QuatIdentity = Quat{0, 0, 0, 1}

// Dot returns the four-component dot product of q and r.
func (q Quat) Dot(r Quat) float64 {
	return q[0]*r[0] + q[1]*r[1] + q[2]*r[2] + q[3]*r[3]
}

// Neg returns -q, the same rotation on the opposite hypersphere half.
func (q Quat) Neg() Quat { return Quat{-q[0], -q[1], -q[2], -q[3]} }

// Normalized returns q scaled to unit length. The zero quaternion maps
// to the identity.
func (q Quat) Normalized() Quat {
	l := math.Sqrt(q.Dot(q))
	if l == 0 {
		return QuatIdentity
	}
	return Quat{q[0] / l, q[1] / l, q[2] / l, q[3] / l}
}

// sign flips q onto the same hypersphere half as r, so component-wise
// blends take the short way around.
func (q Quat) sign(r Quat) Quat {
	if q.Dot(r) < 0 {
		return r.Neg()
	}
	return r
}

// axisX returns the X axis of the rotation's matrix form (the view right
// vector when q is a camera orientation).
func (q Quat) axisX() Vec3 {
	return Vec3{
		1 - 2*(q[1]*q[1]+q[2]*q[2]),
		2 * (q[0]*q[1] + q[2]*q[3]),
		2 * (q[0]*q[2] - q[1]*q[3]),
	}
}

// axisY returns the Y axis of the rotation's matrix form (the view up
// vector).
func (q Quat) axisY() Vec3 {
	return Vec3{
		2 * (q[0]*q[1] - q[2]*q[3]),
		1 - 2*(q[0]*q[0]+q[2]*q[2]),
		2 * (q[1]*q[2] + q[0]*q[3]),
	}
}

// axisZ returns the Z axis of the rotation's matrix form.
func (q Quat) axisZ() Vec3 {
	return Vec3{
		2 * (q[0]*q[2] + q[1]*q[3]),
		2 * (q[1]*q[2] - q[0]*q[3]),
		1 - 2*(q[0]*q[0]+q[1]*q[1]),
	}
}

// lerp returns a + (b-a)*t.
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// slerpQuat spherically interpolates between two unit quaternions.
func slerpQuat(a, b Quat, t float64) Quat {
	b = a.sign(b)
	d := a.Dot(b)
	if d > 0.9995 {
		// Nearly parallel: fall back to a normalized linear blend.
		return Quat{
			lerp(a[0], b[0], t),
			lerp(a[1], b[1], t),
			lerp(a[2], b[2], t),
			lerp(a[3], b[3], t),
		}.Normalized()
	}
	theta := math.Acos(math.Min(math.Max(d, -1), 1))
	s := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / s
	wb := math.Sin(t*theta) / s
	return Quat{
		wa*a[0] + wb*b[0],
		wa*a[1] + wb*b[1],
		wa*a[2] + wb*b[2],
		wa*a[3] + wb*b[3],
	}.Normalized()
}

// slerpVec spherically interpolates between two unit vectors.
func slerpVec(a, b Vec3, t float64) Vec3 {
	d := a.Dot(b)
	if d > 0.9995 || d < -0.9995 {
		return Vec3{
			lerp(a[0], b[0], t),
			lerp(a[1], b[1], t),
			lerp(a[2], b[2], t),
		}.Normalized()
	}
	theta := math.Acos(math.Min(math.Max(d, -1), 1))
	s := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / s
	wb := math.Sin(t*theta) / s
	return a.Scale(wa).Add(b.Scale(wb)).Normalized()
}

// hermite evaluates the Hermitian blend of the middle pair (b, c) of four
// control values, with the given tension and bias shaping the tangents.
func hermite(a, b, c, d, t, tension, bias float64) float64 {
	e := (b-a)*(1+bias)*(1-tension)/2 + (c-b)*(1-bias)*(1-tension)/2
	f := (c-b)*(1+bias)*(1-tension)/2 + (d-c)*(1-bias)*(1-tension)/2

	t2 := t * t
	t3 := t * t2

	x0 := 2*t3 - 3*t2 + 1
	x1 := t3 - 2*t2 + t
	x2 := t3 - t2
	x3 := -2*t3 + 3*t2

	return x0*b + x1*e + x2*f + x3*c
}
