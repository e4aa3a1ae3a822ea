package runlog

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestJSONLStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "setup.jsonl")

	store, err := Open(context.Background(), Options{JSONLPath: path})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	rec := Record{
		JobID:         "job-9",
		Strategy:      "OBIMomentum",
		Brokerage:     "sim-broker",
		State:         "Failed",
		Errors:        []string{"error connecting to brokerage: refused"},
		StartingValue: decimal.RequireFromString("1234.56"),
		StartedAt:     time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}
	if err := store.Save(context.Background(), rec); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := store.Save(context.Background(), rec); err == nil {
		t.Fatalf("expected error saving to closed store")
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open recorded file: %v", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		t.Fatalf("expected one line in store output")
	}
	var decoded Record
	if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	if decoded.JobID != rec.JobID || decoded.OK() || !decoded.StartingValue.Equal(rec.StartingValue) {
		t.Fatalf("unexpected decoded record %+v", decoded)
	}
}
