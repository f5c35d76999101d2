package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/matzehuels/cfgdot/pkg/cfg"
	"github.com/matzehuels/cfgdot/pkg/clipboard"
	"github.com/matzehuels/cfgdot/pkg/config"
	"github.com/matzehuels/cfgdot/pkg/errors"
	"github.com/matzehuels/cfgdot/pkg/raster"
)

const testExport = `{
  "name": "check_license",
  "views": {
    "asm": {"blocks": [
      {"index": 0, "lines": [{"address": 4096, "text": "test eax, eax"}], "edges": [1]},
      {"index": 1, "lines": [{"address": 4098, "text": "ret"}]}
    ]},
    "hlil": {"blocks": [
      {"index": 0, "lines": [{"address": 4096, "text": "return \"ok\""}]}
    ]}
  }
}`

// swapStdout redirects command output and returns a restore func.
func swapStdout(w io.Writer) func() {
	old := stdout
	stdout = w
	return func() { stdout = old }
}

// testEnv isolates config and cache dirs and writes the sample export.
func testEnv(t *testing.T) (export string) {
	t.Helper()
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(root, "cache"))

	export = filepath.Join(root, "check_license.json")
	if err := os.WriteFile(export, []byte(testExport), 0o644); err != nil {
		t.Fatal(err)
	}
	return export
}

// fakeDot writes a dot stand-in that copies its input to its output.
func fakeDot(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script rasterizer needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "dot")
	// args: -T<fmt> -Gdpi=<n> -o <out> <in>
	if err := os.WriteFile(path, []byte("#!/bin/sh\ncp \"$5\" \"$4\"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	restore := swapStdout(&out)
	defer restore()

	c := New(&logs, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&logs)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDotCommand(t *testing.T) {
	export := testEnv(t)

	out, err := execute(t, "dot", export)
	if err != nil {
		t.Fatalf("dot: %v", err)
	}
	for _, want := range []string{
		"digraph {",
		"  asm_0 -> asm_1;",
		`asm_0[label="00001000:  test eax, eax\l" shape=box fontname="Courier" fontsize=10];`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDotCommandOptions(t *testing.T) {
	export := testEnv(t)

	out, err := execute(t, "dot", export, "--mode", "HLIL", "--font", "Menlo", "--size", "99")
	if err != nil {
		t.Fatalf("dot: %v", err)
	}
	want := `hlil_0[label="00001000:  return \"ok\"\l" shape=box fontname="Menlo" fontsize=40];`
	if !strings.Contains(out, want) {
		t.Errorf("output missing %q:\n%s", want, out)
	}
}

func TestDotCommandOutputFile(t *testing.T) {
	export := testEnv(t)
	path := filepath.Join(t.TempDir(), "graph.dot")

	if _, err := execute(t, "dot", export, "-o", path); err != nil {
		t.Fatalf("dot: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "digraph {") || !strings.HasSuffix(string(data), "}") {
		t.Errorf("file = %q", data)
	}
}

func TestDotCommandErrors(t *testing.T) {
	export := testEnv(t)

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"missing view", []string{"dot", export, "--mode", "mlil"}, errors.ErrCodeViewUnavailable},
		{"missing file", []string{"dot", filepath.Join(t.TempDir(), "nope.json")}, errors.ErrCodeFileNotFound},
		{"bad dpi", []string{"dot", export, "--dpi", "9000"}, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}

	t.Run("unknown mode", func(t *testing.T) {
		if _, err := execute(t, "dot", export, "--mode", "pcode"); err == nil {
			t.Error("expected an error for an unknown mode")
		}
	})
}

func TestConfigFileAndFlags(t *testing.T) {
	export := testEnv(t)
	dir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), appName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	conf := "default_font = \"Menlo\"\ndefault_font_size = 12\ndpi = 200\n"
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(conf), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "dot", export)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `fontname="Menlo" fontsize=12`) {
		t.Errorf("config defaults not applied:\n%s", out)
	}

	out, err = execute(t, "config", "show", "--dpi", "96", "--dot-path", "builtin")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"dpi = 96", `dot_path = "builtin"`, `default_font = "Menlo"`} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestConfigPath(t *testing.T) {
	testEnv(t)

	out, err := execute(t, "config", "path")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), appName, "config.toml")
	if strings.TrimSpace(out) != want {
		t.Errorf("config path = %q, want %q", out, want)
	}

	out, _ = execute(t, "config", "path", "--config", "/etc/cfgdot.toml")
	if strings.TrimSpace(out) != "/etc/cfgdot.toml" {
		t.Errorf("config path with --config = %q", out)
	}
}

func TestCachePathAndClear(t *testing.T) {
	testEnv(t)
	want := filepath.Join(os.Getenv("XDG_CACHE_HOME"), appName)

	out, err := execute(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", out, want)
	}

	out, err = execute(t, "cache", "clear")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Cache is empty") {
		t.Errorf("cache clear on missing dir = %q", out)
	}
}

func TestCacheStatsAfterRender(t *testing.T) {
	export := testEnv(t)
	exe := fakeDot(t)

	if _, err := execute(t, "render", export, "--dot-path", exe, "-o", filepath.Join(t.TempDir(), "a.png")); err != nil {
		t.Fatalf("render: %v", err)
	}
	out, err := execute(t, "cache", "stats")
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "Images") {
			if f := strings.Fields(line); f[len(f)-1] != "1" {
				t.Errorf("Images line = %q, want 1 entry", line)
			}
			return
		}
	}
	t.Errorf("cache stats output has no Images line: %q", out)
}

func TestRenderCommand(t *testing.T) {
	export := testEnv(t)
	exe := fakeDot(t)
	path := filepath.Join(t.TempDir(), "out.png")

	out, err := execute(t, "render", export, "--dot-path", exe, "--no-cache", "-o", path, "--size", "14")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// The fake dot copies its input, so the image is the DOT text itself.
	if !strings.Contains(string(data), "fontsize=14") {
		t.Errorf("image = %q", data)
	}
	if !strings.Contains(out, "Rendered check_license") {
		t.Errorf("stdout = %q", out)
	}
}

func TestRenderCopy(t *testing.T) {
	export := testEnv(t)
	exe := fakeDot(t)

	c := New(io.Discard, LogInfo)
	c.Config.DotPath = exe
	c.Config.NoCache = true
	restore := swapStdout(io.Discard)
	defer restore()

	var clip clipboard.Memory
	opts := renderOpts{format: "png", output: filepath.Join(t.TempDir(), "g.png"), copy: true}
	if err := c.runRender(context.Background(), export, opts, &clip); err != nil {
		t.Fatalf("runRender: %v", err)
	}
	if !strings.HasPrefix(string(clip.Image), "digraph {") {
		t.Errorf("clipboard image = %q", clip.Image)
	}

	opts.format = "svg"
	if err := c.runRender(context.Background(), export, opts, &clip); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("--copy with svg: error = %v, want INVALID_INPUT", err)
	}
}

func TestRenderFailure(t *testing.T) {
	export := testEnv(t)

	_, err := execute(t, "render", export, "--dot-path", filepath.Join(t.TempDir(), "no-such-dot"), "--no-cache",
		"-o", filepath.Join(t.TempDir(), "g.png"))
	if !errors.Is(err, errors.ErrCodeRenderFailed) {
		t.Errorf("error = %v, want RENDER_FAILED", err)
	}
}

func TestInfoCommand(t *testing.T) {
	export := testEnv(t)

	out, err := execute(t, "info", export)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"check_license", "Disassembly", "HLIL", "unavailable"} {
		if !strings.Contains(out, want) {
			t.Errorf("info output missing %q:\n%s", want, out)
		}
	}
}

func TestViewOptsResolve(t *testing.T) {
	conf := config.Default()

	kind, font, size, err := viewOpts{}.resolve(conf)
	if err != nil || kind != cfg.KindAsm || font != "Courier" || size != 10 {
		t.Errorf("resolve(zero) = %q %q %d %v", kind, font, size, err)
	}

	kind, font, size, _ = viewOpts{mode: "mlil", font: "Menlo", size: 3}.resolve(conf)
	if kind != cfg.KindMLIL || font != "Menlo" || size != config.MinFontSize {
		t.Errorf("resolve = %q %q %d", kind, font, size)
	}
}

func TestDefaultImageName(t *testing.T) {
	if got := defaultImageName("main", cfg.KindHLIL, raster.FormatSVG); got != "main_hlil.svg" {
		t.Errorf("defaultImageName() = %q", got)
	}
}
