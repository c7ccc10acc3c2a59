package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	pkglogger "github.com/gituserindia/eptest-sub000/pkg/logger"
	"github.com/gituserindia/eptest-sub000/pkg/storage"
)

// ToolProfile describes how to invoke one rasterizer CLI
type ToolProfile struct {
	Name   string
	Binary string
	// Args builds the argument list; outPattern is an absolute printf pattern for raw pages
	Args func(pdfPath, outPattern string, opts Options) []string
	// Pattern is the printf pattern of raw page files inside the output directory
	Pattern string
}

// Ghostscript renders with gs; pages are numbered from 1 and zero padded
func Ghostscript(binary string) ToolProfile {
	if binary == "" {
		binary = "gs"
	}
	return ToolProfile{
		Name:    EngineGhostscript,
		Binary:  binary,
		Pattern: rawPrefix + "%03d.jpg",
		Args: func(pdfPath, outPattern string, opts Options) []string {
			return []string{
				"-dSAFER", "-dBATCH", "-dNOPAUSE", "-dQUIET",
				"-sDEVICE=jpeg",
				"-r" + strconv.Itoa(opts.Density),
				"-dJPEGQ=" + strconv.Itoa(opts.Quality),
				"-dTextAlphaBits=4", "-dGraphicsAlphaBits=4",
				"-sOutputFile=" + outPattern,
				pdfPath,
			}
		},
	}
}

// ImageMagick renders with magick; scenes are numbered from 0 without padding
func ImageMagick(binary string) ToolProfile {
	if binary == "" {
		binary = "magick"
	}
	return ToolProfile{
		Name:    EngineImageMagick,
		Binary:  binary,
		Pattern: rawPrefix + "%d.jpg",
		Args: func(pdfPath, outPattern string, opts Options) []string {
			return []string{
				"-density", strconv.Itoa(opts.Density),
				pdfPath,
				"-background", "white", "-alpha", "remove",
				"-quality", strconv.Itoa(opts.Quality),
				outPattern,
			}
		},
	}
}

// CLIConverter runs an external rasterizer and renumbers its outputs
type CLIConverter struct {
	profile ToolProfile
	path    string // resolved executable, empty when not found
	timeout time.Duration
}

// NewCLIConverter resolves the profile's binary; a missing binary is logged and reported on Render
func NewCLIConverter(profile ToolProfile, timeout time.Duration) *CLIConverter {
	path, err := exec.LookPath(profile.Binary)
	if err != nil {
		pkglogger.GetLogger().Warn().
			Str("engine", profile.Name).
			Str("binary", profile.Binary).
			Msg("rasterizer binary not found in PATH, conversions will fail")
	}
	return &CLIConverter{
		profile: profile,
		path:    path,
		timeout: timeout,
	}
}

// Render implements Converter
func (c *CLIConverter) Render(ctx context.Context, pdfPath, outDir string, opts Options) (*Result, error) {
	if c.path == "" {
		return nil, fmt.Errorf("%w: %s", ErrToolMissing, c.profile.Binary)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	outPattern := filepath.Join(outDir, c.profile.Pattern)
	cmd := exec.CommandContext(ctx, c.path, c.profile.Args(pdfPath, outPattern, opts)...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %v", ErrTimeout, c.timeout)
		}
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		pkglogger.FromContext(ctx).Error().
			Str("engine", c.profile.Name).
			Int("exit_code", exitCode).
			Str("stderr", tail(stderrBuf.String(), 2048)).
			Dur("duration", elapsed).
			Msg("rasterizer exited with error")
		return nil, fmt.Errorf("%w: exit code %d: %v", ErrToolFailed, exitCode, err)
	}

	if s := strings.TrimSpace(stderrBuf.String()); s != "" {
		pkglogger.FromContext(ctx).Warn().
			Str("engine", c.profile.Name).
			Str("stderr", tail(s, 2048)).
			Msg("rasterizer stderr output")
	}

	pages, err := NormalizePages(outDir)
	if err != nil {
		return nil, err
	}
	if pages == 0 {
		return nil, ErrNoOutput
	}

	pkglogger.FromContext(ctx).Info().
		Str("engine", c.profile.Name).
		Int("pages", pages).
		Dur("duration", elapsed).
		Msg("pdf rasterized")

	return &Result{
		PageCount: pages,
		FirstPage: filepath.Join(outDir, storage.PageImageName(1)),
	}, nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
