package anybmn

import (
	"errors"
	"fmt"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

// CheckShapes verifies that a prediction, its target, and
// a per-sample mask describe the same batch.
//
// The loss functions do not check their inputs, so this
// is meant to be called wherever batches are assembled.
func CheckShapes(pred *Prediction, target *Target, mask anyvec.Vector) error {
	if err := checkShapes(pred, target, mask); err != nil {
		return essentials.AddCtx("check shapes", err)
	}
	return nil
}

func checkShapes(pred *Prediction, target *Target, mask anyvec.Vector) error {
	if mask == nil || mask.Len() == 0 {
		return errors.New("empty mask")
	}
	if target.IoU.Len() == 0 || target.IoU.Len()%mask.Len() != 0 {
		return fmt.Errorf("IoU map length %d is not a multiple of mask length %d",
			target.IoU.Len(), mask.Len())
	}
	n := target.IoU.Len() / mask.Len()
	if l := pred.BM.Output().Len(); l != 2*target.IoU.Len() {
		return fmt.Errorf("boundary map length %d should be %d", l, 2*target.IoU.Len())
	}

	seqs := []struct {
		name   string
		actual int
		label  int
	}{
		{"start", pred.Start.Output().Len(), target.Start.Len()},
		{"end", pred.End.Output().Len(), target.End.Len()},
	}
	for _, s := range seqs {
		if s.actual != s.label {
			return fmt.Errorf("%s prediction length %d does not match label length %d",
				s.name, s.actual, s.label)
		}
		if s.actual == 0 || s.actual%n != 0 {
			return fmt.Errorf("%s length %d does not hold %d samples", s.name, s.actual, n)
		}
	}
	if target.Start.Len() != target.End.Len() {
		return fmt.Errorf("start length %d does not match end length %d",
			target.Start.Len(), target.End.Len())
	}
	return nil
}
