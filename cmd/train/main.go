// scg-train trains a network on a CSV file with Scaled Conjugate Gradient.
//
// Usage:
//
//	scg-train --data=energy.csv --targets=8,9 --hidden=10,5 --epochs=500 --out=energy.gob
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/cpuid/v2"

	"github.com/FlavioCFOliveira/scgneuron/scgneuron"
)

var (
	dataFile   = flag.String("data", "", "CSV file with one sample per row")
	targetCols = flag.String("targets", "", "Comma separated target column indices")
	header     = flag.Bool("header", true, "Skip the first CSV row")
	hidden     = flag.String("hidden", "10", "Comma separated hidden layer sizes")
	epochs     = flag.Int("epochs", 100, "Maximum number of epochs")
	goal       = flag.Float64("goal", 1e-2, "Stop once the training error drops below this value")
	trainRatio = flag.Int("train", 70, "Percentage of samples used for training")
	valRatio   = flag.Int("validation", 15, "Percentage of samples held out for validation")
	testRatio  = flag.Int("test", 15, "Percentage of samples held out for testing")
	patience   = flag.Int("patience", 0, "Stop after this many epochs without improvement (0 disables)")
	seed       = flag.Uint64("seed", 42, "Random seed")
	outFile    = flag.String("out", "", "Write the trained network to this file")
	csvLog     = flag.String("csv-log", "", "Write per-epoch progress to this CSV file")
	logEvery   = flag.Int("log-every", 10, "Log every n-th epoch")
	logLevel   = flag.String("log-level", "info", "Log level: debug, info, warn, error")
)

func main() {
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("training failed", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	if *dataFile == "" {
		return errors.New("--data is required")
	}
	log.Info("hardware",
		"cpu", cpuid.CPU.BrandName,
		"physical_cores", cpuid.CPU.PhysicalCores,
		"logical_cores", cpuid.CPU.LogicalCores,
		"avx2", cpuid.CPU.Supports(cpuid.AVX2),
	)

	cols, err := parseInts(*targetCols)
	if err != nil {
		return fmt.Errorf("--targets: %w", err)
	}
	if len(cols) == 0 {
		return errors.New("--targets is required")
	}
	sizes, err := parseInts(*hidden)
	if err != nil {
		return fmt.Errorf("--hidden: %w", err)
	}

	data, err := scgneuron.LoadCSV(*dataFile, cols, *header)
	if err != nil {
		return err
	}
	log.Info("dataset loaded", "file", *dataFile, "samples", data.Len(),
		"inputs", len(data.Inputs[0]), "outputs", len(data.Targets[0]))

	init, err := scgneuron.RandomRange(-0.5, 0.5, *seed)
	if err != nil {
		return err
	}
	n, err := scgneuron.NewNetwork(len(data.Inputs[0]), sizes, len(data.Targets[0]), init)
	if err != nil {
		return err
	}

	cfg := scgneuron.DefaultConfig()
	cfg.MaxEpoch = *epochs
	cfg.PerformanceGoal = *goal
	cfg.TrainRatio, cfg.ValidationRatio, cfg.TestRatio = *trainRatio, *valRatio, *testRatio
	cfg.Logger = log
	trainer, err := scgneuron.NewTrainer(cfg)
	if err != nil {
		return err
	}

	if err := trainer.RegisterListener(scgneuron.LogListener{Logger: log, Interval: *logEvery}); err != nil {
		return err
	}
	if *csvLog != "" {
		if err := trainer.RegisterListener(scgneuron.NewCSVLogger(*csvLog, false)); err != nil {
			return err
		}
	}
	if *patience > 0 {
		if err := trainer.RegisterListener(scgneuron.NewEarlyStopping(*patience, 1e-6, trainer.StopTraining)); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		trainer.StopTraining()
	}()

	start := time.Now()
	if err := trainer.StartTrain(n, data.Inputs, data.Targets); err != nil {
		return err
	}
	trained, err := trainer.TrainedNetwork()
	if err != nil {
		return err
	}

	perf, err := scgneuron.MeanPerformance(trained, data.Inputs, data.Targets)
	if err != nil {
		return err
	}
	log.Info("training finished",
		"outcome", trainer.CurrentTask().Outcome(),
		"network", trained.String(),
		"performance", perf,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if *outFile != "" {
		if err := trained.Save(*outFile); err != nil {
			return err
		}
		log.Info("network saved", "file", *outFile)
	}
	return nil
}

func parseInts(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
