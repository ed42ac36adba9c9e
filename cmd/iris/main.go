package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/FlavioCFOliveira/scgneuron/scgneuron"
)

// Iris dataset: 3 classes (Setosa, Versicolor, Virginica)
// Each sample has 4 features (sepal length, sepal width, petal length, petal width)
func main() {
	fmt.Println("Training Iris classifier (4-8-6-3 network)...")

	init, err := scgneuron.RandomRange(-0.5, 0.5, 42)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	network, err := scgneuron.NewNetwork(4, []int{8, 6}, 3, init)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	// Class 0: Setosa, Class 1: Versicolor, Class 2: Virginica
	trainX, trainY := generateIrisData()

	trainer, err := newTrainer(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	// Inputs are normalized in place by StartTrain.
	if err := trainer.StartTrain(network, trainX, trainY); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	trained, err := trainer.TrainedNetwork()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	acc := evaluate(trained, trainX, trainY)
	fmt.Printf("\nFinal Accuracy: %.1f%%\n", acc*100)

	fmt.Println("\nSample predictions:")
	for i := 0; i < 90; i += 9 {
		pred, _ := scgneuron.Output(trained, trainX[i])
		fmt.Printf("Sample %d: Predicted=%d, Actual=%d\n", i, maxIndex(pred), maxIndex(trainY[i]))
	}
}

// newTrainer trains on 80% of the samples, logging every 50 epochs and
// stopping after 20 epochs without improvement.
func newTrainer(log *slog.Logger) (*scgneuron.Trainer, error) {
	cfg := scgneuron.DefaultConfig()
	cfg.MaxEpoch = 300
	cfg.TrainRatio, cfg.ValidationRatio, cfg.TestRatio = 80, 0, 20
	cfg.Logger = log
	trainer, err := scgneuron.NewTrainer(cfg)
	if err != nil {
		return nil, err
	}
	if err := trainer.RegisterListener(scgneuron.LogListener{Logger: log, Interval: 50}); err != nil {
		return nil, err
	}
	if err := trainer.RegisterListener(scgneuron.NewEarlyStopping(20, 1e-5, trainer.StopTraining)); err != nil {
		return nil, err
	}
	return trainer, nil
}

func generateIrisData() ([][]float64, [][]float64) {
	// Simplified Iris data - using mean values for each class
	// In a real scenario, you'd load the full dataset
	// Class 0: Setosa (sepal length 5.0, sepal width 3.4, petal length 1.5, petal width 0.2)
	// Class 1: Versicolor (sepal length 5.9, sepal width 2.8, petal length 4.3, petal width 1.3)
	// Class 2: Virginica (sepal length 6.6, sepal width 3.0, petal length 5.6, petal width 2.0)

	trainX := make([][]float64, 90)
	trainY := make([][]float64, 90)

	for i := 0; i < 30; i++ {
		// Setosa
		trainX[i] = addNoise([]float64{5.0, 3.4, 1.5, 0.2}, 0.2)
		trainY[i] = oneHot(0, 3)
	}

	for i := 30; i < 60; i++ {
		// Versicolor
		trainX[i] = addNoise([]float64{5.9, 2.8, 4.3, 1.3}, 0.25)
		trainY[i] = oneHot(1, 3)
	}

	for i := 60; i < 90; i++ {
		// Virginica
		trainX[i] = addNoise([]float64{6.6, 3.0, 5.6, 2.0}, 0.25)
		trainY[i] = oneHot(2, 3)
	}

	return trainX, trainY
}

func addNoise(sample []float64, noise float64) []float64 {
	result := make([]float64, len(sample))
	for i, v := range sample {
		result[i] = v + (rand.Float64()*2-1)*noise
	}
	return result
}

func oneHot(idx, size int) []float64 {
	result := make([]float64, size)
	result[idx] = 1.0
	return result
}

func evaluate(n *scgneuron.Network, X [][]float64, y [][]float64) float64 {
	correct := 0
	for i := range X {
		pred, err := scgneuron.Output(n, X[i])
		if err != nil {
			continue
		}
		if maxIndex(pred) == maxIndex(y[i]) {
			correct++
		}
	}
	return float64(correct) / float64(len(X))
}

func maxIndex(slice []float64) int {
	maxIdx := 0
	for i := 1; i < len(slice); i++ {
		if slice[i] > slice[maxIdx] {
			maxIdx = i
		}
	}
	return maxIdx
}
