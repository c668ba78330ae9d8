package density

import (
	"math"

	"github.com/wrenfield/isocarve/pkg/math3d"
)

// perm is the canonical Perlin/simplex permutation table: a fixed shuffle of
// 0-255 shared across implementations so that noise is reproducible.
var perm = [256]uint8{151, 160, 137, 91, 90, 15,
	131, 13, 201, 95, 96, 53, 194, 233, 7, 225, 140, 36, 103, 30, 69, 142, 8, 99, 37, 240, 21, 10, 23,
	190, 6, 148, 247, 120, 234, 75, 0, 26, 197, 62, 94, 252, 219, 203, 117, 35, 11, 32, 57, 177, 33,
	88, 237, 149, 56, 87, 174, 20, 125, 136, 171, 168, 68, 175, 74, 165, 71, 134, 139, 48, 27, 166,
	77, 146, 158, 231, 83, 111, 229, 122, 60, 211, 133, 230, 220, 105, 92, 41, 55, 46, 245, 40, 244,
	102, 143, 54, 65, 25, 63, 161, 1, 216, 80, 73, 209, 76, 132, 187, 208, 89, 18, 169, 200, 196,
	135, 130, 116, 188, 159, 86, 164, 100, 109, 198, 173, 186, 3, 64, 52, 217, 226, 250, 124, 123,
	5, 202, 38, 147, 118, 126, 255, 82, 85, 212, 207, 206, 59, 227, 47, 16, 58, 17, 182, 189, 28, 42,
	223, 183, 170, 213, 119, 248, 152, 2, 44, 154, 163, 70, 221, 153, 101, 155, 167, 43, 172, 9,
	129, 22, 39, 253, 19, 98, 108, 110, 79, 113, 224, 232, 178, 185, 112, 104, 218, 246, 97, 228,
	251, 34, 242, 193, 238, 210, 144, 12, 191, 179, 162, 241, 81, 51, 145, 235, 249, 14, 239, 107,
	49, 192, 214, 31, 181, 199, 106, 157, 184, 84, 204, 176, 115, 121, 50, 45, 127, 4, 150, 254,
	138, 236, 205, 93, 222, 114, 67, 29, 24, 72, 243, 141, 128, 195, 78, 66, 215, 61, 156, 180}

func fastFloor(x float64) int {
	if float64(int(x)) <= x {
		return int(x)
	}
	return int(x) - 1
}

func grad2(hash uint8, x, y float64) float64 {
	h := hash & 7
	u, v := y, 2*x
	if h < 4 {
		u, v = x, 2*y
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}

// simplexNoise2 computes 2D simplex noise in roughly [-1, 1].
func simplexNoise2(x, y float64) float64 {
	const f2 = 0.366025403 // 0.5*(sqrt(3)-1)
	const g2 = 0.211324865 // (3-sqrt(3))/6

	s := (x + y) * f2
	xs, ys := x+s, y+s
	i, j := fastFloor(xs), fastFloor(ys)

	t := float64(i+j) * g2
	x0 := x - (float64(i) - t)
	y0 := y - (float64(j) - t)

	var i1, j1 int
	if x0 > y0 {
		i1, j1 = 1, 0
	} else {
		i1, j1 = 0, 1
	}

	x1 := x0 - float64(i1) + g2
	y1 := y0 - float64(j1) + g2
	x2 := x0 - 1 + 2*g2
	y2 := y0 - 1 + 2*g2

	ii := uint8(i)
	jj := uint8(j)

	var n0, n1, n2 float64
	if t0 := 0.5 - x0*x0 - y0*y0; t0 >= 0 {
		t0 *= t0
		n0 = t0 * t0 * grad2(perm[uint8(ii+perm[jj])], x0, y0)
	}
	if t1 := 0.5 - x1*x1 - y1*y1; t1 >= 0 {
		t1 *= t1
		n1 = t1 * t1 * grad2(perm[uint8(ii+uint8(i1)+perm[uint8(jj+uint8(j1))])], x1, y1)
	}
	if t2 := 0.5 - x2*x2 - y2*y2; t2 >= 0 {
		t2 *= t2
		n2 = t2 * t2 * grad2(perm[uint8(ii+1+perm[uint8(jj+1)])], x2, y2)
	}
	return 70 * (n0 + n1 + n2)
}

// fbm2 sums octaves of simplexNoise2 at increasing frequency and decreasing
// amplitude (fractal Brownian motion), producing natural-looking terrain.
func fbm2(x, y, frequency, lacunarity, gain float64, octaves int) float64 {
	var sum, amp float64 = 0, 1
	freq := frequency
	for o := 0; o < octaves; o++ {
		sum += amp * simplexNoise2(x*freq, y*freq)
		freq *= lacunarity
		amp *= gain
	}
	return sum
}

// Noise is a heightfield primitive: the surface is a fractal-noise terrain
// of the given amplitude sitting at baseHeight on the Y axis, wrapped over a
// square region of the XZ plane [-half, half]^2. Outside that square the
// field reports a large positive ("outside") value so the terrain does not
// wrap or bleed past its bounding square.
type Noise struct {
	BaseHeight       float64
	Amplitude        float64
	Frequency        float64
	Lacunarity, Gain float64
	Octaves          int
	HalfExtent       float64
}

// NewNoise returns a Noise terrain with reasonable defaults for Frequency,
// Lacunarity, Gain and Octaves.
func NewNoise(baseHeight, amplitude, halfExtent float64) Noise {
	return Noise{
		BaseHeight: baseHeight,
		Amplitude:  amplitude,
		Frequency:  1.0 / halfExtent,
		Lacunarity: 2.0,
		Gain:       0.5,
		Octaves:    4,
		HalfExtent: halfExtent,
	}
}

// Eval implements Field.
func (n Noise) Eval(p math3d.Vec3) float64 {
	if n.HalfExtent > 0 && (math.Abs(p.X) > n.HalfExtent || math.Abs(p.Z) > n.HalfExtent) {
		return n.HalfExtent // far outside: large positive bias away from ghost surfaces
	}
	h := n.BaseHeight + n.Amplitude*fbm2(p.X, p.Z, n.Frequency, n.Lacunarity, n.Gain, max(1, n.Octaves))
	return p.Y - h
}
