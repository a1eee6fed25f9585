package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadProgramsParsesYAML(t *testing.T) {
	yamlBody := `
programs:
  - name: raydium-cpmm
    program_id: 675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8
    kind: constant_product
  - name: orca-whirlpool
    program_id: whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc
    kind: concentrated_liquidity
`
	path := filepath.Join(t.TempDir(), "programs.yaml")
	if err := os.WriteFile(path, []byte(yamlBody), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := LoadPrograms(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 program entries, got %d", len(entries))
	}
	if entries[0].Name != "raydium-cpmm" || entries[0].Kind != "constant_product" {
		t.Fatalf("unexpected first entry: %#v", entries[0])
	}
	if entries[1].Name != "orca-whirlpool" || entries[1].Kind != "concentrated_liquidity" {
		t.Fatalf("unexpected second entry: %#v", entries[1])
	}
}

func TestLoadProgramsMissingFileErrors(t *testing.T) {
	if _, err := LoadPrograms(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected an error reading a nonexistent programs file")
	}
}

func TestLoadProgramsMalformedYAMLErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("programs: [this is not: valid: yaml"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := LoadPrograms(path); err == nil {
		t.Fatalf("expected an error parsing malformed YAML")
	}
}
