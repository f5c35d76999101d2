package raster

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cfgdot/pkg/errors"
	"github.com/matzehuels/cfgdot/pkg/observability"
)

// baseName is the stem of the reused temp files.
const baseName = "cfgdot"

// tempFiles serializes every Exec run, across instances and formats, since
// they share the input file.
var tempFiles sync.Mutex

// Exec runs an external Graphviz executable.
type Exec struct {
	Path    string // dot executable
	DPI     int
	Format  Format
	TempDir string // defaults to os.TempDir()
	Logger  *log.Logger
}

// Paths returns the input and output files used by every invocation.
func (e *Exec) Paths() (in, out string) {
	dir := e.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, baseName+".dot"), filepath.Join(dir, baseName+"."+string(e.format()))
}

// Args returns the rasterizer arguments: -T<format> -Gdpi=<dpi> -o <out> <in>.
func (e *Exec) Args(in, out string) []string {
	return []string{
		"-T" + string(e.format()),
		"-Gdpi=" + strconv.Itoa(e.DPI),
		"-o", out,
		in,
	}
}

// Rasterize writes dot to the input file, runs the executable synchronously
// and reads back the output file.
func (e *Exec) Rasterize(ctx context.Context, dot string) (img []byte, err error) {
	tempFiles.Lock()
	defer tempFiles.Unlock()

	start := time.Now()
	observability.Render().OnRenderStart(ctx, "exec", string(e.format()))
	defer func() {
		observability.Render().OnRenderComplete(ctx, "exec", string(e.format()), len(img), time.Since(start), err)
	}()

	in, out := e.Paths()
	if err := os.WriteFile(in, []byte(dot), 0o644); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "write %s", in)
	}
	// A leftover image from the previous run must never be read back.
	if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "remove stale %s", out)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Path, e.Args(in, out)...)
	cmd.Stderr = &stderr
	runErr := e.describe(cmd.Run(), &stderr)

	img, readErr := os.ReadFile(out)
	if readErr != nil {
		if runErr != nil {
			return nil, errors.Wrap(errors.ErrCodeRenderFailed, runErr, "run %s", e.Path)
		}
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, readErr, "%s produced no output", e.Path)
	}
	if runErr != nil {
		e.logger().Debug("rasterizer reported failure, using its output", "err", runErr)
	}
	return img, nil
}

// describe turns an *exec.ExitError into an errors.ExitError with stderr.
func (e *Exec) describe(err error, stderr *bytes.Buffer) error {
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		return &errors.ExitError{Exe: e.Path, ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
	}
	return err
}

func (e *Exec) format() Format {
	if e.Format == "" {
		return FormatPNG
	}
	return e.Format
}

func (e *Exec) logger() *log.Logger {
	if e.Logger == nil {
		return log.Default()
	}
	return e.Logger
}

var _ Rasterizer = (*Exec)(nil)
