package config

import "testing"

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultBudget != Defaults().DefaultBudget {
		t.Errorf("expected default budget, got %d", cfg.DefaultBudget)
	}
}

func TestSaveThenLoadRoundtrips(t *testing.T) {
	dir := t.TempDir()
	cfg := Defaults()
	cfg.DefaultBudget = 12345
	cfg.DefaultFormat = "xml"

	if err := Save(dir, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Initialized(dir) {
		t.Error("expected Initialized to report true after Save")
	}

	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.DefaultBudget != 12345 || got.DefaultFormat != "xml" {
		t.Errorf("unexpected roundtrip config: %+v", got)
	}
}
