package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// IsolationForest is an ensemble of random isolation trees used for novelty
// detection. Predict returns -1 for anomalies and 1 for inliers, and
// ScoreSamples returns negative novelty scores where lower means more
// anomalous.
type IsolationForest struct {
	Trees      []*isoTree `json:"trees"`
	SampleSize int        `json:"sample_size"`
	// Offset is the ScoreSamples threshold below which a sample is
	// predicted anomalous, fixed at fit time from the contamination rate.
	Offset        float64 `json:"offset"`
	NumTrees      int     `json:"num_trees"`
	Contamination float64 `json:"contamination"`
	Seed          int64   `json:"seed"`
}

type isoTree struct {
	Left    *isoTree `json:"left,omitempty"`
	Right   *isoTree `json:"right,omitempty"`
	Split   float64  `json:"split"`
	Feature int      `json:"feature"`
	// Size is the number of training samples that reached this node when
	// it became a leaf; used for the average path length correction.
	Size int `json:"size"`
}

// NewIsolationForest creates an unfitted forest. A contamination of 0.05
// matches the anomaly rate assumed by the training pipeline.
func NewIsolationForest(numTrees int, contamination float64, seed int64) *IsolationForest {
	if numTrees <= 0 {
		numTrees = 100
	}
	if contamination <= 0 || contamination >= 0.5 {
		contamination = 0.05
	}
	return &IsolationForest{
		NumTrees:      numTrees,
		Contamination: contamination,
		Seed:          seed,
	}
}

// Fit trains the forest on data assumed to be mostly normal. Each tree is
// grown on a random subsample of at most 256 rows, the standard subsample
// size for isolation forests.
func (f *IsolationForest) Fit(x [][]float64) error {
	if len(x) == 0 {
		return fmt.Errorf("cannot fit isolation forest on empty data")
	}

	rng := rand.New(rand.NewSource(f.Seed))

	f.SampleSize = 256
	if len(x) < f.SampleSize {
		f.SampleSize = len(x)
	}
	maxDepth := int(math.Ceil(math.Log2(float64(f.SampleSize)))) + 1

	f.Trees = make([]*isoTree, f.NumTrees)
	for t := 0; t < f.NumTrees; t++ {
		sample := make([][]float64, f.SampleSize)
		for i := range sample {
			sample[i] = x[rng.Intn(len(x))]
		}
		f.Trees[t] = growTree(sample, 0, maxDepth, rng)
	}

	// Fix the decision threshold so roughly the contamination fraction of
	// the training data scores as anomalous.
	scores := make([]float64, len(x))
	for i, row := range x {
		scores[i] = f.scoreSample(row)
	}
	sort.Float64s(scores)
	k := int(float64(len(scores)) * f.Contamination)
	if k >= len(scores) {
		k = len(scores) - 1
	}
	f.Offset = scores[k]

	return nil
}

func growTree(x [][]float64, depth, maxDepth int, rng *rand.Rand) *isoTree {
	if depth >= maxDepth || len(x) <= 1 || allIdentical(x) {
		return &isoTree{Feature: -1, Size: len(x)}
	}

	feature := rng.Intn(len(x[0]))
	lo, hi := x[0][feature], x[0][feature]
	for _, row := range x {
		if row[feature] < lo {
			lo = row[feature]
		}
		if row[feature] > hi {
			hi = row[feature]
		}
	}
	if lo == hi {
		// Constant feature: retry once with another feature, then give up.
		feature = rng.Intn(len(x[0]))
		lo, hi = x[0][feature], x[0][feature]
		for _, row := range x {
			if row[feature] < lo {
				lo = row[feature]
			}
			if row[feature] > hi {
				hi = row[feature]
			}
		}
		if lo == hi {
			return &isoTree{Feature: -1, Size: len(x)}
		}
	}

	split := lo + rng.Float64()*(hi-lo)

	var left, right [][]float64
	for _, row := range x {
		if row[feature] < split {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &isoTree{Feature: -1, Size: len(x)}
	}

	return &isoTree{
		Feature: feature,
		Split:   split,
		Left:    growTree(left, depth+1, maxDepth, rng),
		Right:   growTree(right, depth+1, maxDepth, rng),
	}
}

func allIdentical(x [][]float64) bool {
	for i := 1; i < len(x); i++ {
		for j := range x[i] {
			if x[i][j] != x[0][j] {
				return false
			}
		}
	}
	return true
}

func pathLength(node *isoTree, row []float64, depth float64) float64 {
	if node.Feature < 0 {
		return depth + avgPathLength(node.Size)
	}
	if row[node.Feature] < node.Split {
		return pathLength(node.Left, row, depth+1)
	}
	return pathLength(node.Right, row, depth+1)
}

// avgPathLength is c(n), the expected path length of an unsuccessful BST
// search over n samples; the standard isolation forest normalizer.
func avgPathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	fn := float64(n)
	return 2*(math.Log(fn-1)+0.5772156649) - 2*(fn-1)/fn
}

// scoreSample returns the negated anomaly score for one sample: values close
// to -1 are highly anomalous, values near -0.4 are typical inliers.
func (f *IsolationForest) scoreSample(row []float64) float64 {
	var total float64
	for _, tree := range f.Trees {
		total += pathLength(tree, row, 0)
	}
	mean := total / float64(len(f.Trees))
	anomaly := math.Pow(2, -mean/avgPathLength(f.SampleSize))
	return -anomaly
}

// ScoreSamples returns the per-sample novelty scores; lower means more anomalous.
func (f *IsolationForest) ScoreSamples(x [][]float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, fmt.Errorf("isolation forest is not fitted")
	}
	scores := make([]float64, len(x))
	for i, row := range x {
		scores[i] = f.scoreSample(row)
	}
	return scores, nil
}

// Predict returns -1 for samples considered anomalous and 1 otherwise.
func (f *IsolationForest) Predict(x [][]float64) ([]int, error) {
	scores, err := f.ScoreSamples(x)
	if err != nil {
		return nil, err
	}
	preds := make([]int, len(scores))
	for i, s := range scores {
		if s < f.Offset {
			preds[i] = -1
		} else {
			preds[i] = 1
		}
	}
	return preds, nil
}
