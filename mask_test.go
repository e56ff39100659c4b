package anybmn

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/unixpickle/anyvec/anyvec32"
)

func TestMask(t *testing.T) {
	mask := Mask(anyvec32.CurrentCreator(), 5, 0, 0)
	data := mask.Data().([]float32)
	require.Len(t, data, 25)
	for row := 0; row < 5; row++ {
		var sum float32
		for col := 0; col < 5; col++ {
			expected := float32(0)
			if col < 5-row {
				expected = 1
			}
			require.Equal(t, expected, data[row*5+col], "row %d col %d", row, col)
			sum += data[row*5+col]
		}
		require.Equal(t, float32(5-row), sum)
	}
}

func TestMaskDurationMin(t *testing.T) {
	mask := Mask(anyvec32.CurrentCreator(), 5, 0, 2)
	data := mask.Data().([]float32)
	for i := 0; i < 10; i++ {
		require.Zero(t, data[i], "index %d", i)
	}
	require.Equal(t, []float32{1, 1, 1, 0, 0}, data[10:15])
}

func TestMaskDuration(t *testing.T) {
	c := anyvec32.CurrentCreator()
	require.Equal(t, 3, MaskRows(5, 3))
	require.Equal(t, 5, MaskRows(5, 0))
	require.Equal(t, 5, MaskRows(5, 8))

	data := Mask(c, 5, 3, 0).Data().([]float32)
	require.Equal(t, []float32{
		1, 1, 1, 1, 1,
		1, 1, 1, 1, 0,
		1, 1, 1, 0, 0,
	}, data)

	data = Mask(c, 4, 3, 1).Data().([]float32)
	require.Equal(t, []float32{
		0, 0, 0, 0,
		1, 1, 1, 0,
		1, 1, 0, 0,
	}, data)
}

func TestMaskNegativeDurationMin(t *testing.T) {
	c := anyvec32.CurrentCreator()
	data := Mask(c, 4, 0, -1).Data().([]float32)
	require.Equal(t, []float32{
		0, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
		1, 0, 0, 0,
	}, data)

	data = Mask(c, 3, 0, -5).Data().([]float32)
	require.Equal(t, Mask(c, 3, 0, 0).Data().([]float32), data)
}
