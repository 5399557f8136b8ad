// Package diagram turns task graphs and live status overlays into
// deterministic graph descriptions. The same inputs always produce the same
// bytes, so hosts can diff successive outputs to skip redundant re-layouts.
package diagram

import "github.com/fresque-dev/fresque/pkg/schema"

// Theme selects the background and default ink of a graph description.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Palette holds the colors of one theme.
type Palette struct {
	Background  string
	Stroke      string
	DefaultText string
}

var palettes = map[Theme]Palette{
	ThemeDark:  {Background: "#182230F7", Stroke: "#FFFFFF", DefaultText: "#FFFFFFB3"},
	ThemeLight: {Background: "#FFFFFF", Stroke: "#000000", DefaultText: "#00000099"},
}

// PaletteFor returns the palette of a theme, defaulting to dark.
func PaletteFor(theme Theme) Palette {
	if p, ok := palettes[theme]; ok {
		return p
	}
	return palettes[ThemeDark]
}

// statusColors maps task statuses onto their display color, shared between
// graph descriptions and any host that renders status chips.
var statusColors = map[schema.TaskStatus]string{
	schema.StatusIdle:     "#A4ABB6",
	schema.StatusWaiting:  "#FCE83A",
	schema.StatusRunning:  "#56F000",
	schema.StatusFinished: "#2DCCFF",
	schema.StatusWarning:  "#FFB302",
	schema.StatusError:    "#FF3838",
}

// StatusColor returns the display color of a task status, or "" for an
// unknown status.
func StatusColor(s schema.TaskStatus) string {
	return statusColors[s]
}
