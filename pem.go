package anybmn

import (
	"math"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

// RegWeights computes the per-cell weights used by
// PEMReg.
//
// Cells are split into tiers by ground-truth IoU: high
// (above HighIoU), medium (above LowIoU, up to HighIoU)
// and low (above 0, up to LowIoU, and valid according to
// mask).
// Medium and low cells are subsampled so that each tier
// contributes roughly as many cells as the high tier.
// A tier cell is kept when tier*u > 1-high/tierCount for
// a uniform random u.
//
// The three tier selections are added together.
// When a tier has fewer cells than the high tier, its
// threshold is negative and every cell of the map is
// selected for that tier.
//
// The mask may cover a single sample, in which case it is
// repeated across the batch packed in gtIoU.
func (l *Loss) RegWeights(gtIoU, mask anyvec.Vector) anyvec.Vector {
	fullMask := repeatMask(mask, gtIoU.Len())

	hmask := greaterThan(gtIoU, l.highIoU())
	mmask := greaterThan(gtIoU, l.lowIoU())
	mmask.Sub(hmask)
	lmask := greaterThan(gtIoU, 0)
	lmask.Sub(greaterThan(gtIoU, l.lowIoU()))
	lmask.Mul(fullMask)

	numH := vecSum(hmask)
	numM := vecSum(mmask)
	numL := vecSum(lmask)

	weights := hmask
	weights.Add(l.subsample(mmask, numH/numM))
	weights.Add(l.subsample(lmask, numH/numL))
	return weights
}

func (l *Loss) subsample(tier anyvec.Vector, ratio float64) anyvec.Vector {
	u := tier.Creator().MakeVector(tier.Len())
	anyvec.Rand(u, anyvec.Uniform, l.Rand)
	u.Mul(tier)
	return greaterThan(u, 1-ratio)
}

// PEMReg computes the regression loss between a predicted
// IoU map and the ground-truth IoU map.
//
// The loss is the squared error over the cells selected by
// RegWeights, normalized as 0.5*sum(err^2)/sum(weights).
// The weights are constants and receive no gradient.
//
// A NaN result (e.g. from an empty tier) is reported to
// l.Log, if it is set.
func (l *Loss) PEMReg(pred anydiff.Res, gtIoU, mask anyvec.Vector) anydiff.Res {
	weights := l.RegWeights(gtIoU, mask)
	target := gtIoU.Copy()
	target.Mul(weights)

	c := pred.Output().Creator()
	diff := anydiff.Sub(
		anydiff.Mul(pred, anydiff.NewConst(weights)),
		anydiff.NewConst(target),
	)
	normalizer := 0.5 / vecSum(weights)
	res := anydiff.Scale(anydiff.Sum(anydiff.Square(diff)), c.MakeNumeric(normalizer))

	if l.Log != nil && math.IsNaN(vecSum(res.Output())) {
		l.Log.Warnf("PEM regression loss is NaN (weight sum %v)", 1/(2*normalizer))
	}

	return res
}

// PEMCls computes the classification loss between a
// predicted confidence map and the ground-truth IoU map.
//
// Cells above PositiveIoU are positives; the remaining
// cells which are valid according to mask are negatives.
// This is a class-balanced log-loss like BalancedLogLoss,
// except that ClsSmoothing is added to the positive count
// (and again to the entry count) so that batches without
// positives stay finite, and the weighted log-likelihood
// is summed and divided by the smoothed entry count.
func (l *Loss) PEMCls(pred anydiff.Res, gtIoU, mask anyvec.Vector) anydiff.Res {
	fullMask := repeatMask(mask, gtIoU.Len())
	pmask := greaterThan(gtIoU, l.positiveIoU())
	nmask := complement(pmask)
	nmask.Mul(fullMask)

	smoothing := l.clsSmoothing()
	numPositive := smoothing + vecSum(pmask)
	numEntries := smoothing + numPositive + vecSum(nmask)
	coef1, coef0 := balanceCoefs(numEntries, numPositive)

	sum := weightedLogLikelihood(pred, pmask, nmask, coef1, coef0, l.epsilon())
	return anydiff.Scale(sum, sum.Output().Creator().MakeNumeric(-1/numEntries))
}
