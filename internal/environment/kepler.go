package environment

import "math"

// CartesianToKeplerian converts a relative Cartesian state into semi-major
// axis, eccentricity, inclination, argument of periapsis, right ascension of
// the ascending node and true anomaly. Undefined angles of circular or
// equatorial orbits are reported as zero.
func CartesianToKeplerian(pos, vel [3]float64, mu float64) [6]float64 {
	r := norm3(pos)
	v := norm3(vel)
	h := cross(pos, vel)
	hn := norm3(h)

	node := [3]float64{-h[1], h[0], 0}
	nn := norm3(node)

	rv := dot(pos, vel)
	var ev [3]float64
	for k := 0; k < 3; k++ {
		ev[k] = ((v*v-mu/r)*pos[k] - rv*vel[k]) / mu
	}
	e := norm3(ev)

	energy := v*v/2 - mu/r
	a := math.Inf(1)
	if energy != 0 {
		a = -mu / (2 * energy)
	}

	inc := math.Acos(clamp(h[2]/hn, -1, 1))

	const eps = 1e-11
	var raan, argp, nu float64
	if nn > eps {
		raan = math.Acos(clamp(node[0]/nn, -1, 1))
		if node[1] < 0 {
			raan = 2*math.Pi - raan
		}
	}
	switch {
	case e > eps && nn > eps:
		argp = math.Acos(clamp(dot(node, ev)/(nn*e), -1, 1))
		if ev[2] < 0 {
			argp = 2*math.Pi - argp
		}
	case e > eps:
		argp = math.Atan2(ev[1], ev[0])
		if argp < 0 {
			argp += 2 * math.Pi
		}
	}
	if e > eps {
		nu = math.Acos(clamp(dot(ev, pos)/(e*r), -1, 1))
		if rv < 0 {
			nu = 2*math.Pi - nu
		}
	} else if nn > eps {
		nu = math.Acos(clamp(dot(node, pos)/(nn*r), -1, 1))
		if pos[2] < 0 {
			nu = 2*math.Pi - nu
		}
	} else {
		nu = math.Atan2(pos[1], pos[0])
		if nu < 0 {
			nu += 2 * math.Pi
		}
	}
	return [6]float64{a, e, inc, argp, raan, nu}
}

// QuaternionToEulerAngles returns the roll, pitch and yaw (3-2-1 sequence)
// of a unit quaternion (w, x, y, z).
func QuaternionToEulerAngles(w, x, y, z float64) [3]float64 {
	roll := math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))
	pitch := math.Asin(clamp(2*(w*y-z*x), -1, 1))
	yaw := math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))
	return [3]float64{roll, pitch, yaw}
}

func dot(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func norm3(a [3]float64) float64  { return math.Sqrt(dot(a, a)) }

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{a[1]*b[2] - a[2]*b[1], a[2]*b[0] - a[0]*b[2], a[0]*b[1] - a[1]*b[0]}
}

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }
