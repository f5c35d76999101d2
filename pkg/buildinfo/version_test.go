package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func stubBuildInfo(t *testing.T, info *debug.BuildInfo) {
	t.Helper()
	old := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, info != nil }
	t.Cleanup(func() { readBuildInfo = old })
}

func TestLdflagsWin(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{
		Main:     debug.Module{Version: "v0.2.0"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "deadbeef"}},
	})
	oldV, oldC := Version, Commit
	Version, Commit = "v0.3.1", "abc123"
	defer func() { Version, Commit = oldV, oldC }()

	if got := Template(); !strings.HasPrefix(got, "{{.Name}} version v0.3.1\ncommit: abc123\n") {
		t.Errorf("Template() = %q", got)
	}
}

func TestFallsBackToModuleInfo(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Version: "v0.2.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "deadbeef"},
			{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
		},
	})

	v, c, d := Resolve()
	if v != "v0.2.0" || c != "deadbeef" || d != "2026-10-01T12:00:00Z" {
		t.Errorf("Resolve() = %q, %q, %q", v, c, d)
	}
}

func TestDevelBuild(t *testing.T) {
	stubBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	if !strings.Contains(String(), "version: dev\n") {
		t.Errorf("String() = %q", String())
	}

	stubBuildInfo(t, nil)
	if v, _, _ := Resolve(); v != "dev" {
		t.Errorf("Resolve() version = %q without build info, want dev", v)
	}
}
