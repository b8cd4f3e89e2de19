package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Theme names one of the dashboard colour schemes.
type Theme string

const (
	ThemeBlue   Theme = "Blue"
	ThemeGreen  Theme = "Green"
	ThemeOrange Theme = "Orange"
	ThemeGrey   Theme = "Grey"
)

// Themes lists every theme in menu order.
var Themes = []Theme{ThemeBlue, ThemeGreen, ThemeOrange, ThemeGrey}

// RegressionLineColor is the colour of every fitted line.
const RegressionLineColor = "#6C2666"

// Palette is the set of colours a theme resolves to. ColorMap names the
// sequential ramp used for bars and heatmap cells, which runs from RampLow to
// RampHigh.
type Palette struct {
	Header     string `json:"header"`
	Background string `json:"background"`
	ColorMap   string `json:"color_map"`
	RampLow    string `json:"ramp_low"`
	RampHigh   string `json:"ramp_high"`
}

var palettes = map[Theme]Palette{
	ThemeBlue:   {Header: "#0279B1", Background: "#F4FAFD", ColorMap: "Blues", RampLow: "#F7FBFF", RampHigh: "#08306B"},
	ThemeGreen:  {Header: "#2F9F23", Background: "#E5F5E4", ColorMap: "Greens", RampLow: "#F7FCF5", RampHigh: "#00441B"},
	ThemeOrange: {Header: "#D85109", Background: "#FAECE0", ColorMap: "Oranges", RampLow: "#FFF5EB", RampHigh: "#7F2704"},
	ThemeGrey:   {Header: "#131316", Background: "#DEE2E6", ColorMap: "Greys", RampLow: "#FFFFFF", RampHigh: "#000000"},
}

// PaletteFor returns the palette of theme. Unknown themes fall back to Blue.
func PaletteFor(theme Theme) Palette {
	if p, ok := palettes[theme]; ok {
		return p
	}
	return palettes[ThemeBlue]
}

type rgb struct{ r, g, b float64 }

func parseHex(s string) rgb {
	s = strings.TrimPrefix(s, "#")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || len(s) != 6 {
		return rgb{}
	}
	return rgb{
		r: float64(v>>16&0xFF) / 255,
		g: float64(v>>8&0xFF) / 255,
		b: float64(v&0xFF) / 255,
	}
}

func (c rgb) hex() string {
	to := func(f float64) int { return int(math.Round(math.Max(0, math.Min(1, f)) * 255)) }
	return fmt.Sprintf("#%02X%02X%02X", to(c.r), to(c.g), to(c.b))
}

// luminance is the perceived brightness in [0, 1].
func (c rgb) luminance() float64 {
	return 0.299*c.r + 0.587*c.g + 0.114*c.b
}

// Ramp samples n evenly spaced colours from the palette's ramp, lightest
// first.
func (p Palette) Ramp(n int) []string {
	if n <= 0 {
		return nil
	}
	lo, hi := parseHex(p.RampLow), parseHex(p.RampHigh)
	out := make([]string, n)
	for i := range out {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		out[i] = rgb{
			r: lo.r + (hi.r-lo.r)*t,
			g: lo.g + (hi.g-lo.g)*t,
			b: lo.b + (hi.b-lo.b)*t,
		}.hex()
	}
	return out
}

// ContrastColor returns the label colour readable on top of fill.
func ContrastColor(fill string) string {
	if parseHex(fill).luminance() < 0.5 {
		return "white"
	}
	return "black"
}
