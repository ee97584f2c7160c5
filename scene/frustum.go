package scene

import "github.com/go-gl/mathgl/mgl32"

// Plane is the half-space Normal·p + D >= 0.
type Plane struct {
	Normal mgl32.Vec3
	D      float32
}

// DistanceTo returns the signed distance from pt; positive is inside.
func (p Plane) DistanceTo(pt mgl32.Vec3) float32 {
	return p.Normal.Dot(pt) + p.D
}

// Frustum holds the clip planes in the order left, right, bottom, top,
// near, far.
type Frustum struct {
	Planes [6]Plane
}

// FrustumFromMatrix extracts normalised planes from a projection*view
// matrix (Gribb/Hartmann on the matrix rows).
func FrustumFromMatrix(vp mgl32.Mat4) Frustum {
	r0, r1, r2, r3 := vp.Row(0), vp.Row(1), vp.Row(2), vp.Row(3)

	var f Frustum
	for i, v := range [6]mgl32.Vec4{
		r3.Add(r0), r3.Sub(r0),
		r3.Add(r1), r3.Sub(r1),
		r3.Add(r2), r3.Sub(r2),
	} {
		f.Planes[i] = normalizePlane(v)
	}
	return f
}

func normalizePlane(v mgl32.Vec4) Plane {
	n := v.Vec3()
	l := n.Len()
	if l == 0 {
		return Plane{}
	}
	return Plane{Normal: n.Mul(1 / l), D: v[3] / l}
}

// Intersects is false only when box lies entirely outside one plane.
func (f *Frustum) Intersects(box AABB) bool {
	for _, p := range f.Planes {
		var corner mgl32.Vec3
		for a := 0; a < 3; a++ {
			corner[a] = box.Max[a]
			if p.Normal[a] < 0 {
				corner[a] = box.Min[a]
			}
		}
		if p.DistanceTo(corner) < 0 {
			return false
		}
	}
	return true
}

// WorldBounds transforms a local box by m and returns the enclosing box.
func WorldBounds(local AABB, m mgl32.Mat4) AABB {
	var out AABB
	for i := 0; i < 8; i++ {
		c := local.Min
		if i&1 != 0 {
			c[0] = local.Max[0]
		}
		if i&2 != 0 {
			c[1] = local.Max[1]
		}
		if i&4 != 0 {
			c[2] = local.Max[2]
		}
		w := mgl32.TransformCoordinate(c, m)
		if i == 0 {
			out = AABB{Min: w, Max: w}
			continue
		}
		for a := 0; a < 3; a++ {
			out.Min[a] = min(out.Min[a], w[a])
			out.Max[a] = max(out.Max[a], w[a])
		}
	}
	return out
}
