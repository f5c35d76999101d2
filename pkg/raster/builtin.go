package raster

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/cfgdot/pkg/dot"
	"github.com/matzehuels/cfgdot/pkg/errors"
	"github.com/matzehuels/cfgdot/pkg/observability"
)

// Builtin renders with the Graphviz library embedded through go-graphviz.
// The resolution is carried in the DOT text since there is no -Gdpi flag.
type Builtin struct {
	DPI    int
	Format Format
}

// Rasterize parses and renders text in process.
func (b *Builtin) Rasterize(ctx context.Context, text string) (img []byte, err error) {
	format := b.Format
	if format == "" {
		format = FormatPNG
	}

	start := time.Now()
	observability.Render().OnRenderStart(ctx, "builtin", string(format))
	defer func() {
		observability.Render().OnRenderComplete(ctx, "builtin", string(format), len(img), time.Since(start), err)
	}()

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot.WithDPI(text, b.DPI)))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.Format(format), &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "render %s", format)
	}
	if format == FormatSVG {
		return normalizeViewBox(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the SVG scales from the
// origin. Graphviz emits a pt-sized width/height that browsers render blurry
// when zoomed.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

var _ Rasterizer = (*Builtin)(nil)
