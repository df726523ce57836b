package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Color is an RGBA colour with 8-bit channels.
type Color struct {
	R int `json:"r" validate:"gte=0,lte=255"`
	G int `json:"g" validate:"gte=0,lte=255"`
	B int `json:"b" validate:"gte=0,lte=255"`
	A int `json:"a" validate:"gte=0,lte=255"`
}

var (
	// DefaultPrimaryColor is used when a backend has no primary colour configured.
	DefaultPrimaryColor = Color{R: 255, G: 255, B: 255, A: 255}
	// DefaultSecondaryColor is used when a backend has no secondary colour configured.
	DefaultSecondaryColor = Color{R: 0, G: 0, B: 128, A: 255}
)

var namedColors = map[string]Color{
	"white": DefaultPrimaryColor,
	"navy":  DefaultSecondaryColor,
	"black": {R: 0, G: 0, B: 0, A: 255},
	"red":   {R: 255, G: 0, B: 0, A: 255},
	"green": {R: 0, G: 128, B: 0, A: 255},
	"blue":  {R: 0, G: 0, B: 255, A: 255},
	"gray":  {R: 128, G: 128, B: 128, A: 255},
	"grey":  {R: 128, G: 128, B: 128, A: 255},
}

// NewColor validates every channel and returns the colour.
func NewColor(r, g, b, a int) (Color, error) {
	c := Color{R: r, G: g, B: b, A: a}
	if err := Validate(c); err != nil {
		return Color{}, err
	}
	return c, nil
}

// ParseColor accepts a channel mapping, a colour name or a hex string.
// Missing channels in a mapping default to 0, alpha to 255.
func ParseColor(value any) (Color, error) {
	switch v := value.(type) {
	case Color:
		return NewColor(v.R, v.G, v.B, v.A)
	case string:
		return parseColorString(v)
	case map[string]any:
		c := Color{A: 255}
		if err := Decode(v, &c); err != nil {
			return Color{}, err
		}
		return c, nil
	default:
		return Color{}, fmt.Errorf("%w: unsupported colour value %T", ErrValidation, value)
	}
}

func parseColorString(raw string) (Color, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if named, ok := namedColors[trimmed]; ok {
		return named, nil
	}
	hex, ok := strings.CutPrefix(trimmed, "#")
	if !ok {
		return Color{}, fmt.Errorf("%w: unknown colour %q", ErrValidation, raw)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return Color{}, fmt.Errorf("%w: malformed hex colour %q", ErrValidation, raw)
	}
	channels := make([]int, 4)
	for i := range channels {
		n, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("%w: malformed hex colour %q", ErrValidation, raw)
		}
		channels[i] = int(n)
	}
	return NewColor(channels[0], channels[1], channels[2], channels[3])
}

// String renders the colour as a CSS rgba() value.
func (c Color) String() string {
	alpha := math.Round(float64(c.A)/255*100) / 100
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, strconv.FormatFloat(alpha, 'f', -1, 64))
}

// Hex renders the colour as "#rrggbbaa", accepted back by ParseColor.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
