package train

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"sync"
	"time"
)

// Listener receives training events. All methods run on the training
// goroutine, so implementations must not block for long.
type Listener interface {
	OnTrainingEpochComplete(e TrainerEvent)
	// OnTrainingComplete is called once when training reaches a stop condition.
	OnTrainingComplete(e TrainerEvent)
	// OnTrainingCanceled is called once when training is canceled or fails.
	OnTrainingCanceled(e TrainerEvent)
}

// BaseListener provides empty implementations for embedding.
type BaseListener struct{}

func (BaseListener) OnTrainingEpochComplete(TrainerEvent) {}
func (BaseListener) OnTrainingComplete(TrainerEvent)      {}
func (BaseListener) OnTrainingCanceled(TrainerEvent)      {}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	Epoch    func(TrainerEvent)
	Complete func(TrainerEvent)
	Canceled func(TrainerEvent)
}

func (f *ListenerFuncs) OnTrainingEpochComplete(e TrainerEvent) {
	if f.Epoch != nil {
		f.Epoch(e)
	}
}

func (f *ListenerFuncs) OnTrainingComplete(e TrainerEvent) {
	if f.Complete != nil {
		f.Complete(e)
	}
}

func (f *ListenerFuncs) OnTrainingCanceled(e TrainerEvent) {
	if f.Canceled != nil {
		f.Canceled(e)
	}
}

// LogListener logs training progress.
type LogListener struct {
	Logger *slog.Logger
	// Interval logs every Interval-th epoch; 0 logs only the final event.
	Interval int
}

func (l LogListener) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

func (l LogListener) OnTrainingEpochComplete(e TrainerEvent) {
	if l.Interval > 0 && e.Epoch()%l.Interval == 0 {
		l.logger().Info("training epoch finished", "epoch", e.Epoch(), "performance", e.Performance())
	}
}

func (l LogListener) OnTrainingComplete(e TrainerEvent) {
	l.logger().Info("training complete", "epoch", e.Epoch(), "performance", e.Performance())
}

func (l LogListener) OnTrainingCanceled(e TrainerEvent) {
	l.logger().Warn("training canceled", "epoch", e.Epoch(), "performance", e.Performance())
}

// EarlyStopping calls Stop once the performance has not improved by more
// than Threshold for Patience consecutive epochs.
type EarlyStopping struct {
	BaseListener
	Patience  int
	Threshold float64
	// Stop is typically Trainer.StopTraining.
	Stop func()

	mu           sync.Mutex
	best         float64
	numBadEpochs int
	stopped      bool
}

func NewEarlyStopping(patience int, threshold float64, stop func()) *EarlyStopping {
	return &EarlyStopping{
		Patience:  patience,
		Threshold: threshold,
		Stop:      stop,
		best:      math.Inf(1),
	}
}

func (c *EarlyStopping) OnTrainingEpochComplete(e TrainerEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e.Performance() < c.best-c.Threshold {
		c.best = e.Performance()
		c.numBadEpochs = 0
		return
	}
	c.numBadEpochs++
	if c.numBadEpochs >= c.Patience && !c.stopped {
		c.stopped = true
		if c.Stop != nil {
			c.Stop()
		}
	}
}

// Stopped reports whether Stop has been called.
func (c *EarlyStopping) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// CSVLogger writes one row per epoch to a CSV file. The file is opened on the
// first epoch and closed on the final event.
type CSVLogger struct {
	Filename string
	Append   bool
	Logger   *slog.Logger

	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
	start  time.Time
}

// NewCSVLogger creates a new CSVLogger.
func NewCSVLogger(filename string, append bool) *CSVLogger {
	return &CSVLogger{
		Filename: filename,
		Append:   append,
	}
}

func (c *CSVLogger) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *CSVLogger) open() error {
	mode := os.O_CREATE | os.O_WRONLY
	if c.Append {
		mode |= os.O_APPEND
	} else {
		mode |= os.O_TRUNC
	}

	file, err := os.OpenFile(c.Filename, mode, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", c.Filename, err)
	}
	c.file = file
	c.writer = csv.NewWriter(file)
	c.start = time.Now()

	info, err := file.Stat()
	if err == nil && (info.Size() == 0 || !c.Append) {
		return c.write("epoch", "performance", "time_seconds", "status")
	}
	return nil
}

func (c *CSVLogger) write(record ...string) error {
	if err := c.writer.Write(record); err != nil {
		return err
	}
	c.writer.Flush()
	return c.writer.Error()
}

func (c *CSVLogger) record(e TrainerEvent, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writer == nil {
		if err := c.open(); err != nil {
			c.logger().Error("csv logger", "error", err)
			return
		}
	}
	err := c.write(
		strconv.Itoa(e.Epoch()),
		strconv.FormatFloat(e.Performance(), 'g', 10, 64),
		fmt.Sprintf("%.2f", time.Since(c.start).Seconds()),
		status,
	)
	if err != nil {
		c.logger().Error("csv logger: failed to write record", "error", err)
	}
}

func (c *CSVLogger) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.file != nil {
		c.writer.Flush()
		c.file.Close()
		c.file = nil
		c.writer = nil
	}
}

func (c *CSVLogger) OnTrainingEpochComplete(e TrainerEvent) {
	c.record(e, "epoch")
}

func (c *CSVLogger) OnTrainingComplete(e TrainerEvent) {
	c.record(e, "complete")
	c.close()
}

func (c *CSVLogger) OnTrainingCanceled(e TrainerEvent) {
	c.record(e, "canceled")
	c.close()
}
