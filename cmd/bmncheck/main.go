// Command bmncheck evaluates the boundary-matching losses
// on a seeded synthetic batch.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/unixpickle/anybmn"
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec32"
)

func check(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	logger, err := logs.NewLog()
	check(err)

	parser := argparse.NewParser("bmncheck", "Evaluate boundary-matching losses on a synthetic batch")
	tscale := parser.Int("t", "tscale", &argparse.Options{Help: "Temporal scale", Default: 100})
	duration := parser.Int("d", "duration", &argparse.Options{Help: "Maximum proposal duration (0 for tscale)", Default: 0})
	durationMin := parser.Int("m", "duration-min", &argparse.Options{Help: "Number of short-duration rows to mask out", Default: 0})
	batchSize := parser.Int("n", "batch", &argparse.Options{Help: "Batch size", Default: 4})
	seed := parser.Int("s", "seed", &argparse.Options{Help: "Random seed", Default: 1})
	printMask := parser.Flag("p", "print-mask", &argparse.Options{Help: "Print the validity mask"})
	err = parser.Parse(os.Args)
	if err != nil {
		logger.Errorf("%v", parser.Usage(err))
		os.Exit(1)
	}
	if *tscale < 2 || *batchSize < 1 {
		logger.Errorf("tscale must be at least 2 and batch at least 1")
		os.Exit(1)
	}

	c := anyvec32.CurrentCreator()
	mask := anybmn.Mask(c, *tscale, *duration, *durationMin)
	rows := anybmn.MaskRows(*tscale, *duration)
	if *printMask {
		dumpMask(mask.Data().([]float32), rows, *tscale)
	}

	r := rand.New(rand.NewSource(int64(*seed)))
	pred, target := syntheticBatch(c, r, *batchSize, rows, *tscale)
	if err := anybmn.CheckShapes(pred, target, mask); err != nil {
		logger.Errorf("Invalid synthetic batch: %v", err)
		os.Exit(1)
	}

	loss := &anybmn.Loss{Rand: r, Log: logger}
	v := loss.Full(pred, target, mask).Values()
	logger.Infof("Mask: %d x %d, %d valid cells", rows, *tscale, int(anyvec.Sum(mask).(float32)))
	logger.Infof("Total: %f", v.Total)
	logger.Infof("TEM: %f", v.TEM)
	logger.Infof("PEM regression: %f", v.PEMReg)
	logger.Infof("PEM classification: %f", v.PEMCls)
}

func dumpMask(data []float32, rows, cols int) {
	for row := 0; row < rows; row++ {
		var line strings.Builder
		for _, x := range data[row*cols : (row+1)*cols] {
			if x != 0 {
				line.WriteByte('1')
			} else {
				line.WriteByte('.')
			}
		}
		fmt.Println(line.String())
	}
}

// syntheticBatch creates random predictions and the labels
// for one random ground-truth segment per sample.
//
// Row d, column s of a map is the proposal covering
// timesteps s through s+d.
func syntheticBatch(c anyvec.Creator, r *rand.Rand, n, rows, tscale int) (*anybmn.Prediction, *anybmn.Target) {
	var iou, starts, ends []float64
	for i := 0; i < n; i++ {
		length := 1 + r.Intn(tscale/2)
		gtStart := r.Intn(tscale - length + 1)
		gtEnd := gtStart + length

		for d := 0; d < rows; d++ {
			for s := 0; s < tscale; s++ {
				iou = append(iou, segmentIoU(s, s+d+1, gtStart, gtEnd))
			}
		}
		start := make([]float64, tscale)
		end := make([]float64, tscale)
		start[gtStart] = 1
		end[gtEnd-1] = 1
		starts = append(starts, start...)
		ends = append(ends, end...)
	}

	probs := func(size int) anydiff.Res {
		data := make([]float64, size)
		for i := range data {
			data[i] = 0.05 + 0.9*r.Float64()
		}
		return anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(data)))
	}
	mk := func(data []float64) anyvec.Vector {
		return c.MakeVectorData(c.MakeNumericList(data))
	}
	pred := &anybmn.Prediction{
		BM:    probs(2 * len(iou)),
		Start: probs(len(starts)),
		End:   probs(len(ends)),
	}
	target := &anybmn.Target{
		IoU:   mk(iou),
		Start: mk(starts),
		End:   mk(ends),
	}
	return pred, target
}

func segmentIoU(start1, end1, start2, end2 int) float64 {
	inter := min(end1, end2) - max(start1, start2)
	if inter <= 0 {
		return 0
	}
	union := max(end1, end2) - min(start1, start2)
	return float64(inter) / float64(union)
}
