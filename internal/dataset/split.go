package dataset

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrBadSplitRatio reports train/valid ratios that do not leave room for a
// valid three-way split.
var ErrBadSplitRatio = errors.New("invalid split ratio")

// DefaultSeed is the split seed used when the caller does not pick one, so
// repeated runs over the same corpus produce identical splits.
const DefaultSeed = 42

// Splits holds the three partitions of a dataset.
type Splits struct {
	Train []Example
	Valid []Example
	Test  []Example
}

// Split shuffles examples with the given seed and partitions them into
// train/valid/test by the given ratios. The test share is the remainder.
// The input slice is not modified.
func Split(examples []Example, trainRatio, validRatio float64, seed int64) (Splits, error) {
	if trainRatio <= 0 || validRatio < 0 || trainRatio+validRatio > 1 {
		return Splits{}, fmt.Errorf("%w: train=%.3f valid=%.3f", ErrBadSplitRatio, trainRatio, validRatio)
	}

	shuffled := make([]Example, len(examples))
	copy(shuffled, examples)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	n := len(shuffled)
	trainEnd := int(float64(n) * trainRatio)
	validEnd := int(float64(n) * (trainRatio + validRatio))

	return Splits{
		Train: shuffled[:trainEnd],
		Valid: shuffled[trainEnd:validEnd],
		Test:  shuffled[validEnd:],
	}, nil
}
