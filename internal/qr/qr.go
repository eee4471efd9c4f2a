// Package qr renders the PNG codes used to hand a patient report to another
// device.
package qr

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// Options controls the rendered image. A zero BoxSize means 10px modules
// and empty colors mean black on white; Border > 0 keeps the standard quiet
// zone while 0 drops it.
type Options struct {
	BoxSize   int
	Border    int
	FillColor string
	BackColor string
}

// Generate renders the content as a PNG QR code with medium error
// correction.
func Generate(content string, opts Options) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("qr content is empty")
	}
	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	fill, err := parseHexColor(opts.FillColor, color.Black)
	if err != nil {
		return nil, err
	}
	back, err := parseHexColor(opts.BackColor, color.White)
	if err != nil {
		return nil, err
	}
	code.ForegroundColor = fill
	code.BackgroundColor = back
	// The library only knows the standard four-module quiet zone; a zero
	// border disables it entirely.
	code.DisableBorder = opts.Border == 0
	boxSize := opts.BoxSize
	if boxSize <= 0 {
		boxSize = 10
	}
	png, err := code.PNG(-boxSize)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}
	return png, nil
}

// parseHexColor accepts #RGB and #RRGGBB, with or without the hash. An empty
// string selects the fallback.
func parseHexColor(s string, fallback color.Color) (color.Color, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if s == "" {
		return fallback, nil
	}
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return nil, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
