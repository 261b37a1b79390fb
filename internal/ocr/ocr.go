// Package ocr reads the single-character ball labels off a preprocessed
// screenshot.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/ballsort/internal/geometry"
	"github.com/vancomm/ballsort/internal/shell"
	"github.com/vancomm/ballsort/internal/vision"
)

// Whitelist is the label alphabet the game draws on balls.
const Whitelist = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

type GlyphReader interface {
	// ReadGlyph returns the text on page, which holds a single character
	// or nothing at all.
	ReadGlyph(ctx context.Context, page image.Image) (string, error)
}

// Tesseract reads glyphs with the tesseract command line tool in single
// character mode.
type Tesseract struct {
	Runner shell.Runner
	Path   string
}

func (t *Tesseract) ReadGlyph(ctx context.Context, page image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, page); err != nil {
		return "", fmt.Errorf("failed to encode glyph: %w", err)
	}
	path := t.Path
	if path == "" {
		path = "tesseract"
	}
	out, err := t.Runner.Run(ctx, buf.Bytes(), path,
		"stdin", "stdout",
		"-l", "eng", "--oem", "3", "--psm", "10",
		"-c", "tessedit_char_whitelist="+Whitelist,
	)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

type Recognizer struct {
	log     logrus.FieldLogger
	reader  GlyphReader
	workers int
}

// NewRecognizer returns a Recognizer that runs at most workers reads at
// once. Zero or less means one.
func NewRecognizer(log logrus.FieldLogger, reader GlyphReader, workers int) *Recognizer {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Recognizer{log: log, reader: reader, workers: max(workers, 1)}
}

// Recognize reads the glyph inside each of rects. The result is aligned with
// rects; outline fragments come back as empty strings.
func (r *Recognizer) Recognize(ctx context.Context, mask *image.Gray, rects []geometry.Rect) ([]string, error) {
	glyphs := make([]string, len(rects))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, rect := range rects {
		g.Go(func() error {
			txt, err := r.reader.ReadGlyph(ctx, vision.Glyph(mask, rect))
			if err != nil {
				return fmt.Errorf("failed to read glyph at %s: %w", rect, err)
			}
			r.log.WithField("rect", rect.String()).Debugf("found %q", txt)
			glyphs[i] = txt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return glyphs, nil
}
