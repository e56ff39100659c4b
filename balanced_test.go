package anybmn

import (
	"math"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anydiff/anydifftest"
	"github.com/unixpickle/anyvec/anyvec32"
	"github.com/unixpickle/anyvec/anyvec64"
)

func TestBalancedLogLoss(t *testing.T) {
	pred := anydiff.NewConst(anyvec32.MakeVectorData([]float32{0.8, 0.3, 0.6, 0.1}))
	labels := anyvec32.MakeVectorData([]float32{1, 0, 0, 0})

	actual := BalancedLogLoss(pred, labels, 1e-6).Output().Data().([]float32)
	expected := 0.3412913426229849
	if len(actual) != 1 {
		t.Fatalf("expected 1 component but got %d", len(actual))
	}
	if a := float64(actual[0]); math.IsNaN(a) || math.Abs(a-expected) > 1e-4 {
		t.Errorf("expected %f but got %f", expected, a)
	}
}

func TestBalancedLogLossNoPositives(t *testing.T) {
	pred := anydiff.NewConst(anyvec32.MakeVectorData([]float32{0.8, 0.3, 0.6}))
	labels := anyvec32.MakeVectorData([]float32{0, 0.5, 0.2})
	actual := BalancedLogLoss(pred, labels, 1e-6).Output().Data().([]float32)
	if !math.IsNaN(float64(actual[0])) {
		t.Errorf("expected NaN but got %f", actual[0])
	}
}

func TestBalancedLogLossProp(t *testing.T) {
	pred := anydiff.NewVar(anyvec64.MakeVectorData([]float64{0.8, 0.3, 0.6, 0.1, 0.45}))
	labels := anyvec64.MakeVectorData([]float64{1, 0, 0.7, 0, 0})
	checker := &anydifftest.ResChecker{
		F: func() anydiff.Res {
			return BalancedLogLoss(pred, labels, 1e-6)
		},
		V: []*anydiff.Var{pred},
	}
	checker.FullCheck(t)
}

func TestTEM(t *testing.T) {
	l := &Loss{}
	start := anydiff.NewConst(anyvec32.MakeVectorData([]float32{0.8, 0.3, 0.6, 0.1}))
	end := anydiff.NewConst(anyvec32.MakeVectorData([]float32{0.2, 0.1, 0.3, 0.9}))
	gtStart := anyvec32.MakeVectorData([]float32{1, 0, 0, 0})
	gtEnd := anyvec32.MakeVectorData([]float32{0, 0, 1, 1})

	startLoss := BalancedLogLoss(start, gtStart, 1e-6).Output().Data().([]float32)[0]
	endLoss := BalancedLogLoss(end, gtEnd, 1e-6).Output().Data().([]float32)[0]

	expected := startLoss + endLoss
	tem := l.TEM(start, end, gtStart, gtEnd).Output().Data().([]float32)[0]
	node := l.Node(start, end, gtStart, gtEnd).Output().Data().([]float32)[0]
	if math.Abs(float64(tem-expected)) > 1e-5 {
		t.Errorf("TEM: expected %f but got %f", expected, tem)
	}
	if node != tem {
		t.Errorf("Node: expected %f but got %f", tem, node)
	}
}
