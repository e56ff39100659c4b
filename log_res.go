package anybmn

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

type logRes struct {
	In     anydiff.Res
	OutVec anyvec.Vector
}

// logOffset computes log(in + eps) component-wise.
func logOffset(in anydiff.Res, eps float64) anydiff.Res {
	shifted := anydiff.AddScalar(in, in.Output().Creator().MakeNumeric(eps))
	out := shifted.Output().Copy()
	anyvec.Log(out)
	return &logRes{In: shifted, OutVec: out}
}

func (l *logRes) Output() anyvec.Vector {
	return l.OutVec
}

func (l *logRes) Vars() anydiff.VarSet {
	return l.In.Vars()
}

func (l *logRes) Propagate(u anyvec.Vector, g anydiff.Grad) {
	u.Div(l.In.Output())
	l.In.Propagate(u, g)
}
