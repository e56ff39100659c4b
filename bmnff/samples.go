package bmnff

import (
	"github.com/unixpickle/anynet/anysgd"
	"github.com/unixpickle/anyvec"
)

// A Sample is a training sample for a boundary-matching
// network.
// It stores the network's input and the labels that the
// losses compare the network's output against.
type Sample struct {
	Input anyvec.Vector

	// IoU is the D x T ground-truth IoU map.
	IoU anyvec.Vector

	// Start and End are the T binary boundary labels.
	Start anyvec.Vector
	End   anyvec.Vector
}

// A SampleList is an anysgd.SampleList that produces
// boundary-matching samples.
type SampleList interface {
	anysgd.SampleList

	GetSample(idx int) (*Sample, error)
}

// A SliceSampleList is a concrete SampleList with
// predetermined samples.
type SliceSampleList []*Sample

// Len returns the number of samples.
func (s SliceSampleList) Len() int {
	return len(s)
}

// Swap swaps two samples.
func (s SliceSampleList) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

// Slice copies a sub-slice of the list.
func (s SliceSampleList) Slice(i, j int) anysgd.SampleList {
	return append(SliceSampleList{}, s[i:j]...)
}

// GetSample returns the sample at the index.
func (s SliceSampleList) GetSample(idx int) (*Sample, error) {
	return s[idx], nil
}
