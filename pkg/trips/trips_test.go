package trips

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAndLookup(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "trips.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer store.Close()

	manifest := filepath.Join(t.TempDir(), "trips.csv")
	data := "claim_number,vehicle,origin,destination\n" +
		"CLM100,AMB-12,123 MAIN ST,GENERAL HOSPITAL\n" +
		"CLM200,AMB-07,55 OAK AVE,ST MARYS ER\n"
	if err := os.WriteFile(manifest, []byte(data), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	n, err := store.LoadCSV(context.Background(), manifest)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 trips loaded, got %d", n)
	}

	trip, ok, err := store.LookupTrip(context.Background(), "CLM100")
	if err != nil {
		t.Fatalf("LookupTrip: %v", err)
	}
	if !ok {
		t.Fatal("expected trip for CLM100")
	}
	if trip["vehicle"] != "AMB-12" || trip["origin"] != "123 MAIN ST" || trip["destination"] != "GENERAL HOSPITAL" {
		t.Fatalf("wrong trip: %v", trip)
	}

	_, ok, err = store.LookupTrip(context.Background(), "CLM999")
	if err != nil {
		t.Fatalf("LookupTrip miss: %v", err)
	}
	if ok {
		t.Fatal("CLM999 should not exist")
	}
}

func TestLoadCSVReplacesExisting(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "trips.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer store.Close()

	dir := t.TempDir()
	first := filepath.Join(dir, "a.csv")
	second := filepath.Join(dir, "b.csv")
	os.WriteFile(first, []byte("CLM100,AMB-12,A,B\n"), 0o644)
	os.WriteFile(second, []byte("CLM100,AMB-99,C,D\n"), 0o644)

	if _, err := store.LoadCSV(context.Background(), first); err != nil {
		t.Fatalf("LoadCSV first: %v", err)
	}
	if _, err := store.LoadCSV(context.Background(), second); err != nil {
		t.Fatalf("LoadCSV second: %v", err)
	}

	trip, ok, err := store.LookupTrip(context.Background(), "CLM100")
	if err != nil || !ok {
		t.Fatalf("LookupTrip: ok=%v err=%v", ok, err)
	}
	if trip["vehicle"] != "AMB-99" {
		t.Fatalf("expected replacement, got %v", trip)
	}
}
