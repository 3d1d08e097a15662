package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSquaredL2(t *testing.T) {
	t.Run("Distance", func(t *testing.T) {
		d, err := SquaredL2([]float64{1.0, 2.0, 3.0}, []float64{4.0, 6.0, 3.0})
		require.NoError(t, err)
		assert.Equal(t, 25.0, d)
	})

	t.Run("Identical", func(t *testing.T) {
		d, err := SquaredL2([]float64{0.5, -0.5}, []float64{0.5, -0.5})
		require.NoError(t, err)
		assert.Equal(t, 0.0, d)
	})

	t.Run("Empty", func(t *testing.T) {
		d, err := SquaredL2(nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 0.0, d)
	})

	t.Run("SizeMismatch", func(t *testing.T) {
		_, err := SquaredL2([]float64{1.0, 2.0}, []float64{1.0})
		assert.ErrorIs(t, err, ErrSizeMismatch)
	})
}
