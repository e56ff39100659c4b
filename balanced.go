package anybmn

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

// BalancedLogLoss computes a class-balanced binary
// log-loss between predicted probabilities and binary
// labels.
//
// Labels above 0.5 are positives.
// With N entries and P positives, positives are weighted
// by 0.5*N/P and negatives by 0.5*(N/P)/(N/P-1), so that
// both classes contribute equally regardless of skew.
// The result is the negated mean of the weighted
// log-likelihoods, where eps is added inside each log.
//
// If there are no positives (or no negatives), the
// weights are undefined and the result is NaN.
func BalancedLogLoss(pred anydiff.Res, labels anyvec.Vector, eps float64) anydiff.Res {
	pmask := greaterThan(labels, 0.5)
	nmask := complement(pmask)

	numEntries := float64(pmask.Len())
	numPositive := vecSum(pmask)
	coef1, coef0 := balanceCoefs(numEntries, numPositive)

	sum := weightedLogLikelihood(pred, pmask, nmask, coef1, coef0, eps)
	return anydiff.Scale(sum, sum.Output().Creator().MakeNumeric(-1/numEntries))
}

// balanceCoefs computes the positive and negative
// weights for a balanced log-loss.
func balanceCoefs(numEntries, numPositive float64) (coef1, coef0 float64) {
	ratio := numEntries / numPositive
	coef0 = 0.5 * ratio / (ratio - 1)
	coef1 = 0.5 * ratio
	return
}

// weightedLogLikelihood sums
//
//	coef1*log(p+eps)*pmask + coef0*log(1-p+eps)*nmask
//
// over every component, producing a one-component result.
func weightedLogLikelihood(pred anydiff.Res, pmask, nmask anyvec.Vector,
	coef1, coef0, eps float64) anydiff.Res {
	c := pred.Output().Creator()
	return anydiff.Pool(pred, func(pred anydiff.Res) anydiff.Res {
		posTerm := anydiff.Mul(logOffset(pred, eps), anydiff.NewConst(pmask))
		negTerm := anydiff.Mul(
			logOffset(anydiff.Complement(pred), eps),
			anydiff.NewConst(nmask),
		)
		return anydiff.Sum(anydiff.Add(
			anydiff.Scale(posTerm, c.MakeNumeric(coef1)),
			anydiff.Scale(negTerm, c.MakeNumeric(coef0)),
		))
	})
}
