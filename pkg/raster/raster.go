// Package raster turns DOT text into images.
//
// # Backends
//
//   - [Exec] shells out to a Graphviz dot executable, the way the host plugin
//     always has: the text is written to a reused temp file and dot is run as
//     `dot -Tpng -Gdpi=150 -o <out> <in>`.
//   - [Builtin] renders in process with go-graphviz, for machines without a
//     Graphviz install.
//
// [Cached] wraps either backend with a [cache.Cache]. [Placeholder] draws the
// blank image shown when rendering fails.
//
// # Failure model
//
// The exec backend does not treat a non-zero exit status as fatal. Whatever
// image exists at the output path afterwards is returned; only a missing
// output file is an error. Callers degrade to a blank preview on error.
package raster

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cfgdot/pkg/cache"
	"github.com/matzehuels/cfgdot/pkg/config"
	"github.com/matzehuels/cfgdot/pkg/errors"
)

// Rasterizer renders DOT text to image bytes.
type Rasterizer interface {
	Rasterize(ctx context.Context, dot string) ([]byte, error)
}

// Func adapts a plain function to the Rasterizer interface.
type Func func(ctx context.Context, dot string) ([]byte, error)

// Rasterize calls f.
func (f Func) Rasterize(ctx context.Context, dot string) ([]byte, error) { return f(ctx, dot) }

// Format is an output image format understood by Graphviz.
type Format string

// Supported formats. PNG is the raster format used for previews and
// clipboard images.
const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPNG, FormatSVG:
		return f, nil
	case "":
		return FormatPNG, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported image format %q (want png or svg)", s)
	}
}

// ContentType returns the MIME type of images in this format.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// New builds the backend selected by c, wrapped with store unless store is nil.
func New(c config.Config, format Format, store cache.Cache, logger *log.Logger) Rasterizer {
	if logger == nil {
		logger = log.Default()
	}

	var r Rasterizer
	backend, tool := "exec", c.DotPath
	if c.Builtin() {
		tool = ""
		r = &Builtin{DPI: c.DPI, Format: format}
		backend = config.BuiltinRenderer
	} else {
		r = &Exec{Path: c.DotPath, DPI: c.DPI, Format: format, TempDir: c.TempDir, Logger: logger}
	}

	if store == nil {
		return r
	}
	return NewCached(r, store, cache.ImageKeyOpts{Backend: backend, Tool: tool, Format: string(format), DPI: c.DPI})
}
