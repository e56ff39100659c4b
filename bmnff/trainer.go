// Package bmnff connects boundary-matching losses to
// feed-forward networks trained with anysgd.
package bmnff

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/unixpickle/anybmn"
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anynet/anysgd"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

// A Batch stores the inputs and labels of a batch in a
// packed format.
type Batch struct {
	Inputs *anydiff.Const
	Target *anybmn.Target
	Num    int
}

// A Trainer can construct batches, compute gradients, and
// tally up costs for boundary-matching networks.
//
// For each sample, the network must output the start
// probabilities (T values), then the end probabilities (T
// values), then both channels of the D x T boundary map.
type Trainer struct {
	Net    anynet.Layer
	Loss   *anybmn.Loss
	Params []*anydiff.Var

	// Mask is the D x T validity mask, usually produced by
	// anybmn.Mask.
	Mask anyvec.Vector

	// Scale is the temporal scale T.
	Scale int

	// Average indicates whether or not the total cost should
	// be divided by the batch size.
	// This affects gradients, LastCost, and the output of
	// TotalCost().
	Average bool

	// After every gradient computation, LastCost is set to
	// the total cost of the batch and LastLosses to the
	// individual terms.
	// LastLosses is never divided by the batch size.
	LastCost   anyvec.Numeric
	LastLosses *anybmn.LossValues

	// MaxGos specifies the maximum goroutines to use
	// simultaneously for fetching samples.
	// If it is 0, GOMAXPROCS is used.
	MaxGos int
}

// Fetch produces a *Batch for the subset of samples.
// The s argument must implement SampleList.
// The batch may not be empty, and every sample must match
// the trainer's mask and scale.
func (t *Trainer) Fetch(s anysgd.SampleList) (anysgd.Batch, error) {
	if s.Len() == 0 {
		return nil, errors.New("fetch batch: empty batch")
	}

	l := s.(SampleList)
	samples := make([]*Sample, l.Len())

	idxChan := make(chan int, l.Len())
	for i := 0; i < l.Len(); i++ {
		idxChan <- i
	}
	close(idxChan)

	maxGos := t.MaxGos
	if maxGos == 0 {
		maxGos = runtime.GOMAXPROCS(0)
	}

	wg := sync.WaitGroup{}
	errChan := make(chan error, maxGos)
	for i := 0; i < maxGos; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idxChan {
				sample, err := l.GetSample(i)
				if err == nil {
					err = t.checkSample(sample)
				}
				if err != nil {
					errChan <- essentials.AddCtx("fetch batch",
						fmt.Errorf("sample %d: %v", i, err))
					return
				}
				samples[i] = sample
			}
		}()
	}

	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		return nil, err
	}

	var ins, ious, starts, ends []anyvec.Vector
	for _, sample := range samples {
		ins = append(ins, sample.Input)
		ious = append(ious, sample.IoU)
		starts = append(starts, sample.Start)
		ends = append(ends, sample.End)
	}
	c := ins[0].Creator()

	return &Batch{
		Inputs: anydiff.NewConst(c.Concat(ins...)),
		Target: &anybmn.Target{
			IoU:   c.Concat(ious...),
			Start: c.Concat(starts...),
			End:   c.Concat(ends...),
		},
		Num: l.Len(),
	}, nil
}

// TotalCost computes the total cost for the *Batch.
func (t *Trainer) TotalCost(batch anysgd.Batch) anydiff.Res {
	cost, _ := t.totalCost(batch.(*Batch))
	return cost
}

// Gradient computes the gradient for the batch's cost.
// It also sets t.LastCost and t.LastLosses.
//
// The b argument must be a *Batch.
func (t *Trainer) Gradient(b anysgd.Batch) anydiff.Grad {
	res := anydiff.NewGrad(t.Params...)

	cost, losses := t.totalCost(b.(*Batch))
	t.LastCost = anyvec.Sum(cost.Output())
	t.LastLosses = losses.Values()

	c := cost.Output().Creator()
	data := c.MakeNumericList([]float64{1})
	upstream := c.MakeVectorData(data)
	cost.Propagate(upstream, res)

	return res
}

func (t *Trainer) totalCost(b *Batch) (anydiff.Res, *anybmn.Losses) {
	out := t.Net.Apply(b.Inputs, b.Num)
	var losses *anybmn.Losses
	cost := anydiff.Pool(out, func(out anydiff.Res) anydiff.Res {
		losses = t.Loss.Full(t.split(out, b.Num), b.Target, t.Mask)
		return losses.Total
	})
	if t.Average {
		divisor := 1 / float64(b.Num)
		cost = anydiff.Scale(cost, cost.Output().Creator().MakeNumeric(divisor))
	}
	return cost, losses
}

// split unpacks a batch of network outputs.
func (t *Trainer) split(out anydiff.Res, n int) *anybmn.Prediction {
	sampleSize := out.Output().Len() / n
	if sampleSize != t.outputSize() || sampleSize*n != out.Output().Len() {
		panic(fmt.Sprintf("network output size %d should be %d per sample",
			out.Output().Len()/n, t.outputSize()))
	}
	var starts, ends, bms []anydiff.Res
	for i := 0; i < n; i++ {
		offset := i * sampleSize
		starts = append(starts, anydiff.Slice(out, offset, offset+t.Scale))
		ends = append(ends, anydiff.Slice(out, offset+t.Scale, offset+2*t.Scale))
		bms = append(bms, anydiff.Slice(out, offset+2*t.Scale, offset+sampleSize))
	}
	return &anybmn.Prediction{
		Start: anydiff.Concat(starts...),
		End:   anydiff.Concat(ends...),
		BM:    anydiff.Concat(bms...),
	}
}

func (t *Trainer) outputSize() int {
	return 2*t.Scale + 2*t.Mask.Len()
}

func (t *Trainer) checkSample(s *Sample) error {
	if s.Input == nil || s.Input.Len() == 0 {
		return errors.New("missing input")
	}
	if s.IoU == nil || s.IoU.Len() != t.Mask.Len() {
		return fmt.Errorf("IoU map should have %d entries", t.Mask.Len())
	}
	for _, seq := range []anyvec.Vector{s.Start, s.End} {
		if seq == nil || seq.Len() != t.Scale {
			return fmt.Errorf("boundary labels should have %d entries", t.Scale)
		}
	}
	return nil
}
