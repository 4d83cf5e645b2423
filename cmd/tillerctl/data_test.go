package main

import (
	"bytes"
	"strings"
	"testing"

	"tiller/internal/model"
)

func TestParseObservationCSV(t *testing.T) {
	input := "1.0,2.0,3.0\n0.25,-0.5,1e-3\n"
	rows, err := parseObservationCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1][2] != 1e-3 {
		t.Fatalf("unexpected value: %f", rows[1][2])
	}
}

func TestParseObservationCSVRejectsNonNumeric(t *testing.T) {
	if _, err := parseObservationCSV(strings.NewReader("1.0,abc\n")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestTestGraphKinds(t *testing.T) {
	graph, actDim, err := testGraph("identity", 3)
	if err != nil {
		t.Fatalf("identity: %v", err)
	}
	if graph.OutWidth() != 3 || actDim != 3 {
		t.Fatalf("unexpected identity shape: out=%d act=%d", graph.OutWidth(), actDim)
	}

	graph, actDim, err = testGraph("sum", 3)
	if err != nil {
		t.Fatalf("sum: %v", err)
	}
	if graph.OutWidth() != 1 || actDim != 1 {
		t.Fatalf("unexpected sum shape: out=%d act=%d", graph.OutWidth(), actDim)
	}

	if _, _, err := testGraph("warp", 3); err == nil {
		t.Fatal("expected unknown kind error")
	}
}

func TestWriteTraceCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	ticks := []model.TickRecord{
		{Tick: 0, Observation: []float64{1, 2}, Action: []float64{3}},
	}
	if err := writeTraceCSV(buf, ticks); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "0,1,2,3" {
		t.Fatalf("unexpected csv: %q", got)
	}
}

func TestActionPrinter(t *testing.T) {
	buf := &bytes.Buffer{}
	print := newActionPrinter(buf)
	if err := print(0, []float64{6}); err != nil {
		t.Fatalf("print: %v", err)
	}
	if err := print(1, []float64{15}); err != nil {
		t.Fatalf("print: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "6\n15" {
		t.Fatalf("unexpected csv: %q", got)
	}
}
