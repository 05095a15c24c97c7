package geom

import "github.com/go-gl/mathgl/mgl64"

// Affine is a 2D affine transform in homogeneous form.
// Layout (column major, as mgl64):
// | a  c  e |
// | b  d  f |
// | 0  0  1 |
type Affine mgl64.Mat3

// Identity returns the identity transform.
func Identity() Affine {
	return Affine(mgl64.Ident3())
}

// Translate returns a translation.
func Translate(d Vec) Affine {
	return Affine(mgl64.Translate2D(d.X(), d.Y()))
}

// RotateAbout returns a rotation by radians about pivot.
func RotateAbout(radians float64, pivot Vec) Affine {
	return about(mgl64.HomogRotate2D(radians), pivot)
}

// ScaleAbout returns a uniform scale by factor about pivot.
func ScaleAbout(factor float64, pivot Vec) Affine {
	return about(mgl64.Scale2D(factor, factor), pivot)
}

// Then returns the transform that applies a and then next.
func (a Affine) Then(next Affine) Affine {
	return Affine(mgl64.Mat3(next).Mul3(mgl64.Mat3(a)))
}

// Apply transforms a point.
func (a Affine) Apply(p Vec) Vec {
	return mgl64.Mat3(a).Mul3x1(p.Vec3(1)).Vec2()
}

// ApplyVector transforms a displacement, ignoring translation.
func (a Affine) ApplyVector(v Vec) Vec {
	return mgl64.Mat3(a).Mul3x1(v.Vec3(0)).Vec2()
}

// ApplyAll transforms every point in place and returns the slice.
func (a Affine) ApplyAll(points []Vec) []Vec {
	for i, p := range points {
		points[i] = a.Apply(p)
	}
	return points
}

// T(pivot) * m * T(-pivot)
func about(m mgl64.Mat3, pivot Vec) Affine {
	toOrigin := mgl64.Translate2D(-pivot.X(), -pivot.Y())
	back := mgl64.Translate2D(pivot.X(), pivot.Y())
	return Affine(back.Mul3(m).Mul3(toOrigin))
}
