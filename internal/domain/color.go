package domain

// Color is a member of the fixed highlight palette.
type Color string

const (
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorPink   Color = "pink"
	ColorOrange Color = "orange"
	ColorPurple Color = "purple"
	ColorRed    Color = "red"
	ColorGray   Color = "gray"
)

// DefaultColor is used when a draft or command carries no color.
const DefaultColor = ColorYellow

// palette maps each color to its rendered hex value.
var palette = map[Color]string{
	ColorYellow: "#FFEB3B",
	ColorGreen:  "#4CAF50",
	ColorBlue:   "#2196F3",
	ColorPink:   "#E91E63",
	ColorOrange: "#FF9800",
	ColorPurple: "#9C27B0",
	ColorRed:    "#F44336",
	ColorGray:   "#9E9E9E",
}

// Colors returns the palette members in display order.
func Colors() []Color {
	return []Color{
		ColorYellow, ColorGreen, ColorBlue, ColorPink,
		ColorOrange, ColorPurple, ColorRed, ColorGray,
	}
}

// Valid reports whether c is a palette member.
func (c Color) Valid() bool {
	_, ok := palette[c]
	return ok
}

// Hex returns the hex value for c, falling back to gray for unknown
// colors so a stale record still renders.
func (c Color) Hex() string {
	if hex, ok := palette[c]; ok {
		return hex
	}
	return palette[ColorGray]
}
