// Package anybmn implements the training losses of a
// boundary-matching network for temporal action proposal
// generation.
//
// Losses are built as anydiff graphs, so they run on
// whatever anyvec.Creator the predictions come from and
// can be back-propagated into a network's parameters.
//
// Batches are packed the way anynet packs them: each
// sample's boundary map is a row-major D x T grid (rows
// are durations, columns are starting points), and the
// samples are concatenated.
package anybmn

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

// Prediction stores the outputs of a boundary-matching
// network for a batch.
type Prediction struct {
	// BM is the boundary map, packed as [n][2][D][T].
	// Channel 0 is the regression output and channel 1 is
	// the classification output.
	BM anydiff.Res

	// Start and End are the boundary probabilities, packed
	// as [n][T].
	Start anydiff.Res
	End   anydiff.Res
}

// Target stores the ground-truth labels for a batch.
type Target struct {
	// IoU is the ground-truth IoU map, packed as [n][D][T].
	IoU anyvec.Vector

	// Start and End are binary boundary labels, packed as
	// [n][T].
	Start anyvec.Vector
	End   anyvec.Vector
}

// Losses stores the combined loss alongside its terms.
//
// Each result has one component.
// Back-propagate through Total; the other fields are for
// reporting.
type Losses struct {
	Total  anydiff.Res
	TEM    anydiff.Res
	PEMReg anydiff.Res
	PEMCls anydiff.Res
}

// LossValues stores the numerical values of Losses.
type LossValues struct {
	Total  float64
	TEM    float64
	PEMReg float64
	PEMCls float64
}

// Values extracts the numerical value of every term.
func (l *Losses) Values() *LossValues {
	return &LossValues{
		Total:  vecSum(l.Total.Output()),
		TEM:    vecSum(l.TEM.Output()),
		PEMReg: vecSum(l.PEMReg.Output()),
		PEMCls: vecSum(l.PEMCls.Output()),
	}
}
