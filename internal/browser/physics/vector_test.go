package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorArithmetic(t *testing.T) {
	a := Vector2D{X: 3, Y: 4}
	b := Vector2D{X: 1, Y: -2}

	assert.Equal(t, Vector2D{X: 4, Y: 2}, a.Add(b))
	assert.Equal(t, Vector2D{X: 2, Y: 6}, a.Sub(b))
	assert.Equal(t, Vector2D{X: 6, Y: 8}, a.Mul(2))
	assert.Equal(t, 5.0, a.Mag())
	assert.InDelta(t, 6.324, a.Dist(b), 0.001)
}

func TestVectorNormalize(t *testing.T) {
	v := Vector2D{X: 3, Y: 4}.Normalize()
	assert.InDelta(t, 0.6, v.X, 1e-9)
	assert.InDelta(t, 0.8, v.Y, 1e-9)
	assert.InDelta(t, 1.0, v.Mag(), 1e-9)

	assert.Equal(t, Vector2D{}, Vector2D{}.Normalize())
	assert.Equal(t, Vector2D{}, Vector2D{X: 1e-12, Y: 1e-12}.Normalize())
}

func TestVectorPerpIsOrthogonal(t *testing.T) {
	v := Vector2D{X: 2, Y: 5}
	p := v.Perp()
	assert.Zero(t, v.X*p.X+v.Y*p.Y)
	assert.Equal(t, v.Mag(), p.Mag())
}
