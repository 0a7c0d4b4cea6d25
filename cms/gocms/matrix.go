package gocms

import (
	"errors"
	"math"
)

type mat3 [3][3]float64
type vec3 [3]float64

var identity3 = mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

var errSingular = errors.New("gocms: singular matrix")

func (m mat3) mul(o mat3) mat3 {
	var r mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[i][0]*o[0][j] + m[i][1]*o[1][j] + m[i][2]*o[2][j]
		}
	}
	return r
}

func (m mat3) apply(v vec3) vec3 {
	return vec3{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

func (m mat3) inverse() (mat3, error) {
	det := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	if math.Abs(det) < 1e-12 {
		return mat3{}, errSingular
	}
	inv := 1 / det
	return mat3{
		{
			(m[1][1]*m[2][2] - m[1][2]*m[2][1]) * inv,
			(m[0][2]*m[2][1] - m[0][1]*m[2][2]) * inv,
			(m[0][1]*m[1][2] - m[0][2]*m[1][1]) * inv,
		},
		{
			(m[1][2]*m[2][0] - m[1][0]*m[2][2]) * inv,
			(m[0][0]*m[2][2] - m[0][2]*m[2][0]) * inv,
			(m[0][2]*m[1][0] - m[0][0]*m[1][2]) * inv,
		},
		{
			(m[1][0]*m[2][1] - m[1][1]*m[2][0]) * inv,
			(m[0][1]*m[2][0] - m[0][0]*m[2][1]) * inv,
			(m[0][0]*m[1][1] - m[0][1]*m[1][0]) * inv,
		},
	}, nil
}

func diag(v vec3) mat3 {
	return mat3{{v[0], 0, 0}, {0, v[1], 0}, {0, 0, v[2]}}
}

// columns builds a matrix whose columns are c[0], c[1], c[2].
func columns(c [3][3]float64) mat3 {
	return mat3{
		{c[0][0], c[1][0], c[2][0]},
		{c[0][1], c[1][1], c[2][1]},
		{c[0][2], c[1][2], c[2][2]},
	}
}

var bradford = mat3{
	{0.8951, 0.2664, -0.1614},
	{-0.7502, 1.7135, 0.0367},
	{0.0389, -0.0685, 1.0296},
}

// adaptationMatrix returns the Bradford transform from white src to white dst.
func adaptationMatrix(src, dst vec3) (mat3, error) {
	inv, err := bradford.inverse()
	if err != nil {
		return mat3{}, err
	}
	s := bradford.apply(src)
	d := bradford.apply(dst)
	if s[0] == 0 || s[1] == 0 || s[2] == 0 {
		return mat3{}, errSingular
	}
	scale := diag(vec3{d[0] / s[0], d[1] / s[1], d[2] / s[2]})
	return inv.mul(scale).mul(bradford), nil
}
