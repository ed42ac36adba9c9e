package samples

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Dataset holds input samples and their targets row by row.
type Dataset struct {
	Inputs  [][]float64
	Targets [][]float64
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Inputs)
}

// LoadCSV loads data from a CSV file.
// targetCols lists the columns used as targets, in target order. All other
// columns are inputs. hasHeader skips the first line.
func LoadCSV(filename string, targetCols []int, hasHeader bool) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file, targetCols, hasHeader)
}

// ReadCSV is LoadCSV over an io.Reader.
func ReadCSV(r io.Reader, targetCols []int, hasHeader bool) (*Dataset, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv file is empty")
	}

	startRow := 0
	if hasHeader {
		startRow = 1
	}
	if len(records) <= startRow {
		return nil, fmt.Errorf("csv file has no data rows")
	}
	if len(targetCols) == 0 {
		return nil, fmt.Errorf("no target columns given")
	}

	numCols := len(records[startRow])
	isTarget := make(map[int]bool, len(targetCols))
	for _, col := range targetCols {
		if col < 0 || col >= numCols {
			return nil, fmt.Errorf("target column %d not in [0, %d)", col, numCols)
		}
		if isTarget[col] {
			return nil, fmt.Errorf("target column %d given twice", col)
		}
		isTarget[col] = true
	}
	if len(targetCols) == numCols {
		return nil, fmt.Errorf("every column is a target, no inputs left")
	}

	ds := &Dataset{
		Inputs:  make([][]float64, 0, len(records)-startRow),
		Targets: make([][]float64, 0, len(records)-startRow),
	}
	row := make([]float64, numCols)
	for i := startRow; i < len(records); i++ {
		record := records[i]
		if len(record) != numCols {
			return nil, fmt.Errorf("inconsistent number of columns at row %d", i)
		}
		for j, s := range record {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse value at row %d, col %d: %w", i, j, err)
			}
			row[j] = v
		}

		input := make([]float64, 0, numCols-len(targetCols))
		for j, v := range row {
			if !isTarget[j] {
				input = append(input, v)
			}
		}
		target := make([]float64, len(targetCols))
		for k, col := range targetCols {
			target[k] = row[col]
		}
		ds.Inputs = append(ds.Inputs, input)
		ds.Targets = append(ds.Targets, target)
	}
	return ds, nil
}
