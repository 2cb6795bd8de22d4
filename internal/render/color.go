package render

import (
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
)

const (
	derivedSaturation = 0.65
	derivedLightness  = 0.55

	// Perceived brightness at or above this is a light background.
	luminanceThreshold = 128
)

// DeriveColor maps an identity string onto a stable #rrggbb color. Different
// strings may collide; that is fine for name tinting.
func DeriveColor(identity string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(identity))
	hue := float64(h.Sum32() % 360)

	r, g, b := hslToRGB(hue, derivedSaturation, derivedLightness)
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// ContrastText picks black or white text for the given background color.
// Unparseable colors get white text.
func ContrastText(background string) string {
	r, g, b, ok := parseHex(background)
	if !ok {
		return "#ffffff"
	}
	if (299*r+587*g+114*b)/1000 >= luminanceThreshold {
		return "#000000"
	}
	return "#ffffff"
}

// parseHex accepts #rgb and #rrggbb.
func parseHex(s string) (r, g, b int, ok bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	hp := h / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))

	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	m := l - c/2
	return toByte(r + m), toByte(g + m), toByte(b + m)
}

func toByte(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
