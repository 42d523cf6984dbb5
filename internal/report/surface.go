package report

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"

	"github.com/giantswarm/sf-fields/internal/logging"
)

// Surface displays a rendered document to the user.
type Surface interface {
	Show(ctx context.Context, title string, doc []byte) error
}

// openDocument is replaced in tests.
var openDocument = openBrowser

// FileSurface writes the document to disk and opens it in the browser.
type FileSurface struct {
	// Dir receives a new sf-fields-<uuid>.html per call. Defaults to the
	// OS temp directory.
	Dir string
	// Path, when set, is overwritten on every call instead.
	Path string
	// Open launches the platform browser on the written file.
	Open   bool
	Logger *logging.Logger
}

// Show writes doc and optionally opens it. A browser that fails to start is
// reported but does not fail the call; the file is already in place.
func (s *FileSurface) Show(ctx context.Context, title string, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := s.Path
	if path == "" {
		dir := s.Dir
		if dir == "" {
			dir = os.TempDir()
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		path = filepath.Join(dir, fmt.Sprintf("sf-fields-%s.html", uuid.NewString()))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid output path %q: %w", path, err)
	}
	if err := os.WriteFile(abs, doc, 0o600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	s.Logger.Success("%s written to %s", title, abs)

	if !s.Open {
		return nil
	}
	target := (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	if err := openDocument(target); err != nil {
		s.Logger.Warning("Could not open browser automatically: %v", err)
		s.Logger.Info("Please open this file in your browser:")
		s.Logger.Info("%s", abs)
	}
	return nil
}

// WriterSurface prints the document to W.
type WriterSurface struct {
	W io.Writer
}

func (s *WriterSurface) Show(ctx context.Context, _ string, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.W.Write(doc); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// openBrowser opens the specified URL in the default browser
func openBrowser(urlStr string) error {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	switch parsedURL.Scheme {
	case "http", "https", "file":
	default:
		return fmt.Errorf("invalid URL scheme for browser: %s (only http/https/file allowed)", parsedURL.Scheme)
	}

	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", urlStr)
	case "darwin":
		cmd = exec.Command("open", urlStr)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", urlStr)
	default:
		return fmt.Errorf("unsupported platform")
	}

	return cmd.Start()
}
