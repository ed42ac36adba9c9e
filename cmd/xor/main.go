package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/FlavioCFOliveira/scgneuron/scgneuron"
)

func main() {
	fmt.Println("=== XOR Training Example ===")

	// 2 inputs -> 3 hidden -> 1 output, sigmoid everywhere
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	init, err := scgneuron.RandomRange(-1, 1, 42)
	if err != nil {
		fmt.Printf("Error creating initializer: %v\n", err)
		return
	}
	network, err := scgneuron.NewNetwork(2, []int{3}, 1, init)
	if err != nil {
		fmt.Printf("Error creating network: %v\n", err)
		return
	}
	fmt.Printf("Network architecture: %s\n", network)
	fmt.Println("Loss function: cross-entropy")
	fmt.Println("Optimizer: scaled conjugate gradient")

	trainX := [][]float64{
		{0, 0},
		{0, 1},
		{1, 0},
		{1, 1},
	}
	trainY := [][]float64{
		{0},
		{1},
		{1},
		{0},
	}

	cfg := scgneuron.DefaultConfig()
	cfg.MaxEpoch = 1000
	cfg.PerformanceGoal = 1e-3
	cfg.Logger = log
	trainer, err := scgneuron.NewTrainer(cfg)
	if err != nil {
		fmt.Printf("Error creating trainer: %v\n", err)
		return
	}
	err = trainer.RegisterListener(&scgneuron.ListenerFuncs{
		Epoch: func(e scgneuron.TrainerEvent) {
			if e.Epoch()%100 == 0 {
				fmt.Printf("Epoch %d, Loss: %.6f\n", e.Epoch(), e.Performance())
			}
		},
		Complete: func(e scgneuron.TrainerEvent) {
			fmt.Printf("Finished after %d epochs, Loss: %.6f\n", e.Epoch(), e.Performance())
		},
	})
	if err != nil {
		fmt.Printf("Error registering listener: %v\n", err)
		return
	}

	if err := trainer.StartTrain(network, trainX, trainY); err != nil {
		fmt.Printf("Error starting training: %v\n", err)
		return
	}
	trained, err := trainer.TrainedNetwork()
	if err != nil {
		fmt.Printf("Error training network: %v\n", err)
		return
	}

	fmt.Println("\nTesting trained network:")
	for i := range trainX {
		pred, _ := scgneuron.Output(trained, trainX[i])
		fmt.Printf("Input: %v, Predicted: %.4f, Target: %v\n", trainX[i], pred[0], trainY[i][0])
	}

	fmt.Println("\nSaving network to disk...")
	if err := trained.Save("xor_network.gob"); err != nil {
		fmt.Printf("Error saving network: %v\n", err)
		return
	}

	loaded, err := scgneuron.Load("xor_network.gob")
	if err != nil {
		fmt.Printf("Error loading network: %v\n", err)
		return
	}

	fmt.Println("\nVerifying loaded network:")
	allMatch := true
	for i := range trainX {
		originalPred, _ := scgneuron.Output(trained, trainX[i])
		loadedPred, _ := scgneuron.Output(loaded, trainX[i])
		match := "OK"
		if math.Abs(originalPred[0]-loadedPred[0]) > 1e-12 {
			match = "MISMATCH"
			allMatch = false
		}
		fmt.Printf("Input: %v, Original: %.4f, Loaded: %.4f [%s]\n", trainX[i], originalPred[0], loadedPred[0], match)
	}

	if allMatch {
		fmt.Println("\nSUCCESS: All predictions match between original and loaded network!")
	} else {
		fmt.Println("\nFAILURE: Predictions differ between original and loaded network!")
	}
}
