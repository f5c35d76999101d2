package host

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/cfgdot/pkg/cfg"
	"github.com/matzehuels/cfgdot/pkg/errors"
)

const sampleJSON = `{
  "name": "check_license",
  "views": {
    "asm": {"blocks": [
      {"index": 0, "lines": [{"address": 4096, "text": "test eax, eax"}], "edges": [1, 2]},
      {"index": 1, "lines": [{"address": 4098, "text": "ret"}]},
      {"index": 2, "lines": [{"address": 4099, "text": "call abort"}]}
    ]},
    "HLIL": {"blocks": [
      {"index": 0, "lines": [{"address": 4096, "text": "return x != 0"}]}
    ]}
  }
}`

const sampleYAML = `
name: check_license
views:
  mlil:
    blocks:
      - index: 0
        lines:
          - {address: 0x1000, text: "rax = 0"}
        edges: [0]
`

func TestDecodeJSON(t *testing.T) {
	f, err := DecodeJSON([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("DecodeJSON() error: %v", err)
	}
	if f.Name() != "check_license" {
		t.Errorf("Name() = %q", f.Name())
	}

	v, err := f.View(cfg.KindAsm)
	if err != nil {
		t.Fatalf("View(asm) error: %v", err)
	}
	if len(v.Blocks) != 3 {
		t.Fatalf("asm blocks = %d, want 3", len(v.Blocks))
	}
	b := v.Blocks[0]
	if b.Kind != cfg.KindAsm {
		t.Errorf("block kind = %q, want asm", b.Kind)
	}
	if len(b.Edges) != 2 || b.Edges[0].Target != 1 || b.Edges[1].Target != 2 {
		t.Errorf("edges = %+v", b.Edges)
	}
	if b.Lines[0].Address != 0x1000 {
		t.Errorf("address = %#x, want 0x1000", b.Lines[0].Address)
	}

	hv, err := f.View(cfg.KindHLIL)
	if err != nil {
		t.Fatalf("View(hlil) error: %v", err)
	}
	if hv.Blocks[0].Kind != cfg.KindHLIL {
		t.Errorf("display-name view key should map to hlil, got %q", hv.Blocks[0].Kind)
	}

	if got := f.Kinds(); len(got) != 2 || got[0] != cfg.KindAsm || got[1] != cfg.KindHLIL {
		t.Errorf("Kinds() = %v", got)
	}
}

func TestViewUnavailable(t *testing.T) {
	f, _ := DecodeJSON([]byte(sampleJSON))

	_, err := f.View(cfg.KindLLIL)
	if !errors.Is(err, errors.ErrCodeViewUnavailable) {
		t.Errorf("View(llil) error = %v, want VIEW_UNAVAILABLE", err)
	}
}

func TestDecodeYAML(t *testing.T) {
	f, err := DecodeYAML([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("DecodeYAML() error: %v", err)
	}
	v, err := f.View(cfg.KindMLIL)
	if err != nil {
		t.Fatalf("View(mlil) error: %v", err)
	}
	if v.Blocks[0].Kind != cfg.KindMLIL || v.Blocks[0].Edges[0].Target != 0 {
		t.Errorf("block = %+v", v.Blocks[0])
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad json", `{"name": `},
		{"unknown view", `{"views": {"bytecode": {"blocks": []}}}`},
		{"unknown field", `{"name": "f", "extra": 1}`},
		{"aliased views", `{"views": {"asm": {"blocks": []}, "Disassembly": {"blocks": []}}}`},
		{"raw and disasm", `{"views": {"raw": {"blocks": []}, "disasm": {"blocks": []}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSON([]byte(tt.data))
			if !errors.Is(err, errors.ErrCodeInvalidExport) {
				t.Errorf("DecodeJSON() error = %v, want INVALID_EXPORT", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "f.json")
	yamlPath := filepath.Join(dir, "f.yml")
	os.WriteFile(jsonPath, []byte(sampleJSON), 0o644)
	os.WriteFile(yamlPath, []byte(sampleYAML), 0o644)

	if _, err := Load(jsonPath); err != nil {
		t.Errorf("Load(json) error: %v", err)
	}
	f, err := Load(yamlPath)
	if err != nil {
		t.Fatalf("Load(yaml) error: %v", err)
	}
	if _, err := f.View(cfg.KindMLIL); err != nil {
		t.Errorf("Load(yaml) should pick the YAML decoder: %v", err)
	}

	_, err = Load(filepath.Join(dir, "missing.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestViewReturnsCopy(t *testing.T) {
	f := NewFunction("f", &cfg.View{Kind: cfg.KindAsm, Blocks: []cfg.Block{{Index: 0, Kind: cfg.KindAsm}}})

	v1, _ := f.View(cfg.KindAsm)
	v1.Blocks[0].Index = 99

	v2, _ := f.View(cfg.KindAsm)
	if v2.Blocks[0].Index != 0 {
		t.Error("View() should not expose internal storage")
	}
}

func TestLoadBundledExamples(t *testing.T) {
	tests := []struct {
		file  string
		name  string
		kinds []cfg.Kind
	}{
		{"check_license.json", "check_license", []cfg.Kind{cfg.KindAsm, cfg.KindLLIL, cfg.KindHLIL}},
		{"sub_401000.yaml", "sub_401000", []cfg.Kind{cfg.KindMLIL}},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			f, err := Load(filepath.Join("..", "..", "examples", "exports", tt.file))
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if f.Name() != tt.name {
				t.Errorf("Name() = %q, want %q", f.Name(), tt.name)
			}
			got := f.Kinds()
			if len(got) != len(tt.kinds) {
				t.Fatalf("Kinds() = %v, want %v", got, tt.kinds)
			}
			for i := range got {
				if got[i] != tt.kinds[i] {
					t.Errorf("Kinds()[%d] = %q, want %q", i, got[i], tt.kinds[i])
				}
			}
		})
	}
}
