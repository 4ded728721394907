package ui

import (
	"golang.org/x/term"
)

const (
	fallbackWidth  = 80
	fallbackHeight = 24
)

// Geometry is the size of the terminal in character cells.
type Geometry struct {
	Width  int
	Height int
}

// FallbackGeometry is used whenever the terminal cannot be queried.
var FallbackGeometry = Geometry{Width: fallbackWidth, Height: fallbackHeight}

// getSize is replaced in tests.
var getSize = term.GetSize

// ProbeGeometry queries the terminal attached to fd. Any failure, including
// fd not being a terminal, yields FallbackGeometry.
func ProbeGeometry(fd int) Geometry {
	width, height, err := getSize(fd)
	if err != nil || width <= 0 || height <= 0 {
		return FallbackGeometry
	}
	return Geometry{Width: width, Height: height}
}
