package anybmn

import (
	"math/rand"

	"github.com/cyclopcam/logs"
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

const (
	defaultHighIoU        = 0.7
	defaultLowIoU         = 0.3
	defaultPositiveIoU    = 0.9
	defaultEpsilon        = 1e-6
	defaultClsSmoothing   = 10
	defaultRegWeight      = 10
	defaultClsWeight      = 1
	defaultTEMWeight      = 1
	defaultSubgraphWeight = 10
)

func init() {
	var l Loss
	serializer.RegisterTypedDeserializer(l.SerializerType(), DeserializeLoss)
}

// Loss computes boundary-matching losses.
//
// Any numeric field which is 0 is replaced by its default.
type Loss struct {
	// HighIoU separates the high and medium regression
	// tiers (default 0.7).
	HighIoU float64

	// LowIoU separates the medium and low regression tiers
	// (default 0.3).
	LowIoU float64

	// PositiveIoU is the IoU above which a cell counts as a
	// positive for classification (default 0.9).
	PositiveIoU float64

	// Epsilon is added inside every log (default 1e-6).
	Epsilon float64

	// ClsSmoothing is added to the classification counts
	// (default 10).
	ClsSmoothing float64

	// Weights of the terms in Full (defaults 10, 1, 1).
	RegWeight float64
	ClsWeight float64
	TEMWeight float64

	// SubgraphWeight scales the classification term in
	// Subgraph (default 10).
	SubgraphWeight float64

	// Rand is used to subsample regression tiers.
	// If nil, the global source is used.
	Rand *rand.Rand

	// Log, if non-nil, receives diagnostics such as NaN
	// losses.
	Log logs.Log
}

// DeserializeLoss deserializes a Loss.
// Rand and Log will be nil.
func DeserializeLoss(d []byte) (*Loss, error) {
	var res Loss
	err := serializer.DeserializeAny(d, &res.HighIoU, &res.LowIoU, &res.PositiveIoU,
		&res.Epsilon, &res.ClsSmoothing, &res.RegWeight, &res.ClsWeight,
		&res.TEMWeight, &res.SubgraphWeight)
	if err != nil {
		return nil, essentials.AddCtx("deserialize Loss", err)
	}
	return &res, nil
}

// TEM computes the temporal evaluation loss: the sum of
// the balanced log-losses of the start and end
// probabilities.
func (l *Loss) TEM(predStart, predEnd anydiff.Res, gtStart, gtEnd anyvec.Vector) anydiff.Res {
	return anydiff.Add(
		BalancedLogLoss(predStart, gtStart, l.epsilon()),
		BalancedLogLoss(predEnd, gtEnd, l.epsilon()),
	)
}

// Node computes the boundary loss of a subgraph head.
// It is identical to TEM.
func (l *Loss) Node(predStart, predEnd anydiff.Res, gtStart, gtEnd anyvec.Vector) anydiff.Res {
	return l.TEM(predStart, predEnd, gtStart, gtEnd)
}

// Subgraph computes the boundary-map loss of a subgraph
// head: PEMReg on channel 0 plus SubgraphWeight times
// PEMCls on channel 1.
//
// Unlike Full, gtIoU is used as given, without applying
// the mask to it first.
func (l *Loss) Subgraph(predBM anydiff.Res, gtIoU, mask anyvec.Vector) anydiff.Res {
	n := batchCount(gtIoU.Len(), mask.Len())
	c := predBM.Output().Creator()
	return anydiff.Pool(predBM, func(bm anydiff.Res) anydiff.Res {
		reg, cls := splitChannels(bm, n)
		return anydiff.Add(
			l.PEMReg(reg, gtIoU, mask),
			anydiff.Scale(l.PEMCls(cls, gtIoU, mask), c.MakeNumeric(l.subgraphWeight())),
		)
	})
}

// Full computes the complete boundary-matching loss.
//
// The ground-truth IoU map is multiplied by the mask, and
// then the total is computed as
//
//	TEMWeight*TEM + RegWeight*PEMReg + ClsWeight*PEMCls
//
// The mask covers one sample and is shared by the batch.
func (l *Loss) Full(pred *Prediction, target *Target, mask anyvec.Vector) *Losses {
	fullMask := repeatMask(mask, target.IoU.Len())
	n := target.IoU.Len() / mask.Len()
	gtIoU := target.IoU.Copy()
	gtIoU.Mul(fullMask)

	c := pred.BM.Output().Creator()
	res := &Losses{
		TEM: l.TEM(pred.Start, pred.End, target.Start, target.End),
	}
	res.Total = anydiff.Pool(pred.BM, func(bm anydiff.Res) anydiff.Res {
		reg, cls := splitChannels(bm, n)
		res.PEMReg = l.PEMReg(reg, gtIoU, mask)
		res.PEMCls = l.PEMCls(cls, gtIoU, mask)
		return anydiff.Add(
			anydiff.Add(
				anydiff.Scale(res.TEM, c.MakeNumeric(l.temWeight())),
				anydiff.Scale(res.PEMReg, c.MakeNumeric(l.regWeight())),
			),
			anydiff.Scale(res.PEMCls, c.MakeNumeric(l.clsWeight())),
		)
	})
	return res
}

// SerializerType returns the unique ID used to serialize
// a Loss with the serializer package.
func (l *Loss) SerializerType() string {
	return "github.com/unixpickle/anybmn.Loss"
}

// Serialize serializes the numeric settings of the Loss.
func (l *Loss) Serialize() ([]byte, error) {
	return serializer.SerializeAny(l.HighIoU, l.LowIoU, l.PositiveIoU, l.Epsilon,
		l.ClsSmoothing, l.RegWeight, l.ClsWeight, l.TEMWeight, l.SubgraphWeight)
}

func (l *Loss) highIoU() float64 {
	return valueOrDefault(l.HighIoU, defaultHighIoU)
}

func (l *Loss) lowIoU() float64 {
	return valueOrDefault(l.LowIoU, defaultLowIoU)
}

func (l *Loss) positiveIoU() float64 {
	return valueOrDefault(l.PositiveIoU, defaultPositiveIoU)
}

func (l *Loss) epsilon() float64 {
	return valueOrDefault(l.Epsilon, defaultEpsilon)
}

func (l *Loss) clsSmoothing() float64 {
	return valueOrDefault(l.ClsSmoothing, defaultClsSmoothing)
}

func (l *Loss) regWeight() float64 {
	return valueOrDefault(l.RegWeight, defaultRegWeight)
}

func (l *Loss) clsWeight() float64 {
	return valueOrDefault(l.ClsWeight, defaultClsWeight)
}

func (l *Loss) temWeight() float64 {
	return valueOrDefault(l.TEMWeight, defaultTEMWeight)
}

func (l *Loss) subgraphWeight() float64 {
	return valueOrDefault(l.SubgraphWeight, defaultSubgraphWeight)
}

func valueOrDefault(value, def float64) float64 {
	if value == 0 {
		return def
	}
	return value
}

// splitChannels separates a packed [n][2][M] boundary map
// into its [n][M] channels.
func splitChannels(bm anydiff.Res, n int) (ch0, ch1 anydiff.Res) {
	chanSize := bm.Output().Len() / (2 * n)
	if chanSize*2*n != bm.Output().Len() {
		panic("boundary map length must be twice the IoU map length")
	}
	var first, second []anydiff.Res
	for i := 0; i < n; i++ {
		offset := i * 2 * chanSize
		first = append(first, anydiff.Slice(bm, offset, offset+chanSize))
		second = append(second, anydiff.Slice(bm, offset+chanSize, offset+2*chanSize))
	}
	return anydiff.Concat(first...), anydiff.Concat(second...)
}
