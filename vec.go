package anybmn

import (
	"fmt"

	"github.com/unixpickle/anyvec"
)

// greaterThan creates a vector which is 1 wherever v
// exceeds t and 0 everywhere else.
func greaterThan(v anyvec.Vector, t float64) anyvec.Vector {
	res := v.Copy()
	c := res.Creator()
	res.Scale(c.MakeNumeric(-1))
	anyvec.LessThan(res, c.MakeNumeric(-t))
	return res
}

// complement computes 1-v for a new vector.
func complement(v anyvec.Vector) anyvec.Vector {
	res := v.Copy()
	res.Scale(res.Creator().MakeNumeric(-1))
	res.Add(ones(res.Creator(), res.Len()))
	return res
}

func ones(c anyvec.Creator, n int) anyvec.Vector {
	data := make([]float64, n)
	for i := range data {
		data[i] = 1
	}
	return c.MakeVectorData(c.MakeNumericList(data))
}

// repeatMask tiles a per-sample mask so that it covers a
// packed batch of mapLen components.
func repeatMask(mask anyvec.Vector, mapLen int) anyvec.Vector {
	n := batchCount(mapLen, mask.Len())
	if n == 1 {
		return mask
	}
	reps := make([]anyvec.Vector, n)
	for i := range reps {
		reps[i] = mask
	}
	return mask.Creator().Concat(reps...)
}

func batchCount(mapLen, maskLen int) int {
	if maskLen == 0 || mapLen%maskLen != 0 {
		panic(fmt.Sprintf("mask length %d does not divide map length %d",
			maskLen, mapLen))
	}
	return mapLen / maskLen
}

func vecSum(v anyvec.Vector) float64 {
	return numericFloat(anyvec.Sum(v))
}

func numericFloat(n anyvec.Numeric) float64 {
	switch n := n.(type) {
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		panic(fmt.Sprintf("unsupported numeric type: %T", n))
	}
}
