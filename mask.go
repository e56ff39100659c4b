package anybmn

import "github.com/unixpickle/anyvec"

// MaskRows returns the number of rows in a validity mask
// for the given temporal scale and maximum duration.
//
// A duration of 0 (or one larger than tscale) means that
// every row is kept.
func MaskRows(tscale, duration int) int {
	if duration <= 0 || duration > tscale {
		return tscale
	}
	return duration
}

// Mask builds the validity mask for a boundary map.
//
// The result is a row-major matrix with MaskRows(tscale,
// duration) rows and tscale columns.
// Entry (row, col) is 1 iff col < tscale-row, meaning the
// proposal stays inside the timeline.
//
// If durationMin is positive, the first durationMin rows
// are zeroed, removing the shortest proposals.
// This zeroes by row index.
// A negative durationMin counts from the last row, so
// every row except the last -durationMin is zeroed.
func Mask(c anyvec.Creator, tscale, duration, durationMin int) anyvec.Vector {
	rows := MaskRows(tscale, duration)
	firstRow := durationMin
	if firstRow < 0 {
		firstRow = max(rows+durationMin, 0)
	}
	data := make([]float64, rows*tscale)
	for row := firstRow; row < rows; row++ {
		for col := 0; col < tscale-row; col++ {
			data[row*tscale+col] = 1
		}
	}
	return c.MakeVectorData(c.MakeNumericList(data))
}
