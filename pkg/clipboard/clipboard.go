// Package clipboard copies DOT text and rendered images to the system
// clipboard.
//
// Text goes through github.com/atotto/clipboard. That library only handles
// text, so images are piped to the platform's own tool: wl-copy on Wayland,
// xclip on X11 and osascript on macOS.
package clipboard

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/atotto/clipboard"

	"github.com/matzehuels/cfgdot/pkg/errors"
)

// Clipboard receives copied text and PNG images.
type Clipboard interface {
	WriteText(text string) error
	WriteImage(png []byte) error
}

// System is the desktop clipboard.
type System struct{}

// WriteText replaces the clipboard contents with text.
func (System) WriteText(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return errors.Wrap(errors.ErrCodeClipboardFailed, err, "copy text")
	}
	return nil
}

// WriteImage replaces the clipboard contents with a PNG image.
func (System) WriteImage(png []byte) error {
	if len(png) == 0 {
		return errors.New(errors.ErrCodeClipboardFailed, "no image to copy")
	}

	cmd, cleanup, err := imageCommand(png)
	if err != nil {
		return err
	}
	defer cleanup()

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrap(errors.ErrCodeClipboardFailed, err, "%s: %s", cmd.Path, bytes.TrimSpace(stderr.Bytes()))
	}
	return nil
}

// imageCommand picks the platform tool. osascript cannot read stdin, so on
// macOS the image goes through a temp file that cleanup removes.
func imageCommand(png []byte) (*exec.Cmd, func(), error) {
	noop := func() {}

	switch runtime.GOOS {
	case "darwin":
		f, err := os.CreateTemp("", "cfgdot-clip-*.png")
		if err != nil {
			return nil, noop, errors.Wrap(errors.ErrCodeClipboardFailed, err, "stage image")
		}
		if _, err := f.Write(png); err != nil {
			f.Close()
			os.Remove(f.Name())
			return nil, noop, errors.Wrap(errors.ErrCodeClipboardFailed, err, "stage image")
		}
		f.Close()
		script := fmt.Sprintf(`set the clipboard to (read (POSIX file %q) as «class PNGf»)`, filepath.ToSlash(f.Name()))
		return exec.Command("osascript", "-e", script), func() { os.Remove(f.Name()) }, nil

	case "linux", "freebsd", "openbsd", "netbsd":
		var cmd *exec.Cmd
		switch {
		case os.Getenv("WAYLAND_DISPLAY") != "" && lookPath("wl-copy"):
			cmd = exec.Command("wl-copy", "--type", "image/png")
		case lookPath("xclip"):
			cmd = exec.Command("xclip", "-selection", "clipboard", "-t", "image/png", "-i")
		default:
			return nil, noop, errors.New(errors.ErrCodeClipboardFailed, "copying images needs wl-copy or xclip")
		}
		cmd.Stdin = bytes.NewReader(png)
		return cmd, noop, nil
	}

	return nil, noop, errors.New(errors.ErrCodeUnsupported, "image clipboard not supported on %s", runtime.GOOS)
}

func lookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Memory is an in-process clipboard, handy in tests and headless runs.
type Memory struct {
	Text  string
	Image []byte
}

// WriteText stores text.
func (m *Memory) WriteText(text string) error {
	m.Text = text
	return nil
}

// WriteImage stores a copy of png.
func (m *Memory) WriteImage(png []byte) error {
	if len(png) == 0 {
		return errors.New(errors.ErrCodeClipboardFailed, "no image to copy")
	}
	m.Image = append([]byte(nil), png...)
	return nil
}

var (
	_ Clipboard = System{}
	_ Clipboard = (*Memory)(nil)
)
