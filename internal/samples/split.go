package samples

import (
	"fmt"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/FlavioCFOliveira/scgneuron/internal/weights"
)

// Sampler splits n sample indices into disjoint train, validation and test
// subsets by percentage ratios.
type Sampler interface {
	Split(n, trainRatio, validationRatio, testRatio int) (train, validation, test []int, err error)
}

// RandomSplit draws the subsets uniformly at random. The train and validation
// sizes are floor(ratio*n/100); the test subset takes the rest.
type RandomSplit struct {
	// Src is the random source, nil for the global one.
	Src rand.Source
}

func (r RandomSplit) Split(n, trainRatio, validationRatio, testRatio int) (train, validation, test []int, err error) {
	if n < 0 {
		return nil, nil, nil, fmt.Errorf("sample count %d: %w", n, weights.ErrInvalidArgument)
	}
	if err := CheckRatios(trainRatio, validationRatio, testRatio); err != nil {
		return nil, nil, nil, err
	}

	numTrain := trainRatio * n / 100
	numValidation := validationRatio * n / 100

	train = pick(allIndices(n), numTrain, r.Src)
	rest := without(allIndices(n), train)
	validation = pick(rest, numValidation, r.Src)
	test = without(rest, validation)
	return train, validation, test, nil
}

// CheckRatios validates percentage ratios: train in [1, 100], validation and
// test in [0, 100], summing to 100.
func CheckRatios(trainRatio, validationRatio, testRatio int) error {
	if trainRatio < 1 || trainRatio > 100 {
		return fmt.Errorf("train ratio %d not in [1, 100]: %w", trainRatio, weights.ErrInvalidArgument)
	}
	if validationRatio < 0 || validationRatio > 100 {
		return fmt.Errorf("validation ratio %d not in [0, 100]: %w", validationRatio, weights.ErrInvalidArgument)
	}
	if testRatio < 0 || testRatio > 100 {
		return fmt.Errorf("test ratio %d not in [0, 100]: %w", testRatio, weights.ErrInvalidArgument)
	}
	if trainRatio+validationRatio+testRatio != 100 {
		return fmt.Errorf("ratios %d+%d+%d do not sum to 100: %w", trainRatio, validationRatio, testRatio, weights.ErrInvalidArgument)
	}
	return nil
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// pick returns k sorted elements of from chosen without replacement.
func pick(from []int, k int, src rand.Source) []int {
	if k == 0 {
		return []int{}
	}
	pos := make([]int, k)
	sampleuv.WithoutReplacement(pos, len(from), src)
	out := make([]int, k)
	for i, p := range pos {
		out[i] = from[p]
	}
	sort.Ints(out)
	return out
}

// without returns the elements of from that are not in taken.
func without(from, taken []int) []int {
	skip := make(map[int]bool, len(taken))
	for _, t := range taken {
		skip[t] = true
	}
	out := make([]int, 0, len(from)-len(taken))
	for _, f := range from {
		if !skip[f] {
			out = append(out, f)
		}
	}
	return out
}

// Subset returns the rows of data at the given indices. Rows are shared, not copied.
func Subset(data [][]float64, indices []int) [][]float64 {
	out := make([][]float64, len(indices))
	for i, idx := range indices {
		out[i] = data[idx]
	}
	return out
}
