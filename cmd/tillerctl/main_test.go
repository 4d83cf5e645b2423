package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestEndToEndExportInspectRun(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	out := filepath.Join(dir, "sum.tilr")

	if err := run(ctx, []string{"export-test", "-kind", "sum", "-width", "3", "-out", out}); err != nil {
		t.Fatalf("export-test: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "sum.json")); err != nil {
		t.Fatalf("expected metadata descriptor: %v", err)
	}

	if err := run(ctx, []string{"inspect", "-artifact", out}); err != nil {
		t.Fatalf("inspect: %v", err)
	}

	input := filepath.Join(dir, "obs.csv")
	if err := os.WriteFile(input, []byte("1,2,3\n4,5,6\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	if err := run(ctx, []string{"run", "-artifact", out, "-metadata", "-input", input}); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if err := run(context.Background(), []string{"bogus"}); err == nil {
		t.Fatal("expected usage error")
	}
	if err := run(context.Background(), nil); err == nil {
		t.Fatal("expected usage error for missing command")
	}
}
