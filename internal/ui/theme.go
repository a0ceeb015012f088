package ui

import "github.com/gdamore/tcell/v2"

// Theme colors for the panel.
var (
	ColorText   = tcell.NewHexColor(0xcdd6f4)
	ColorBorder = tcell.NewHexColor(0x45475a)
)
