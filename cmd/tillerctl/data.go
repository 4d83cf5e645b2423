package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"tiller/internal/artifact"
	"tiller/internal/model"
)

func testGraph(kind string, width int) (model.PolicyGraph, int, error) {
	switch kind {
	case "identity":
		return artifact.IdentityGraph(width), width, nil
	case "sum":
		return artifact.SumGraph(width), 1, nil
	default:
		return model.PolicyGraph{}, 0, fmt.Errorf("unknown test policy kind: %s", kind)
	}
}

func readObservationRows(path string) ([][]float64, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return parseObservationCSV(r)
}

func parseObservationCSV(r io.Reader) ([][]float64, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var rows [][]float64
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read observation row %d: %w", line, err)
		}
		line++
		if len(record) == 1 && record[0] == "" {
			continue
		}

		row := make([]float64, len(record))
		for i, field := range record {
			value, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("observation row %d column %d: %w", line, i, err)
			}
			row[i] = value
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// newActionPrinter writes one CSV row per tick to w.
func newActionPrinter(w io.Writer) func(tick int, act []float64) error {
	writer := csv.NewWriter(w)
	return func(_ int, act []float64) error {
		record := make([]string, len(act))
		for i, value := range act {
			record[i] = strconv.FormatFloat(value, 'g', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
		writer.Flush()
		return writer.Error()
	}
}

func writeTraceCSV(w io.Writer, ticks []model.TickRecord) error {
	writer := csv.NewWriter(w)
	for _, tick := range ticks {
		record := make([]string, 0, 1+len(tick.Observation)+len(tick.Action))
		record = append(record, strconv.Itoa(tick.Tick))
		for _, value := range tick.Observation {
			record = append(record, strconv.FormatFloat(value, 'g', -1, 64))
		}
		for _, value := range tick.Action {
			record = append(record, strconv.FormatFloat(value, 'g', -1, 64))
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
