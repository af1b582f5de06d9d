package deck

import "strings"

// Theme is a visual preset applied at serialization time.
type Theme struct {
	Name       string
	Background string // CSS color
	Surface    string // slide panel color
	Heading    string
	Body       string
	Accent     string
	FontFamily string
}

var themes = map[string]Theme{
	"corporate": {
		Name:       "corporate",
		Background: "#0F172A",
		Surface:    "#FFFFFF",
		Heading:    "#1E293B",
		Body:       "#334155",
		Accent:     "#2563EB",
		FontFamily: "Helvetica, Arial, sans-serif",
	},
	"minimal": {
		Name:       "minimal",
		Background: "#F8FAFC",
		Surface:    "#FFFFFF",
		Heading:    "#111827",
		Body:       "#374151",
		Accent:     "#6B7280",
		FontFamily: "Georgia, 'Times New Roman', serif",
	},
	"dark": {
		Name:       "dark",
		Background: "#020617",
		Surface:    "#1E293B",
		Heading:    "#F1F5F9",
		Body:       "#CBD5E1",
		Accent:     "#38BDF8",
		FontFamily: "Helvetica, Arial, sans-serif",
	},
	"vibrant": {
		Name:       "vibrant",
		Background: "#4C1D95",
		Surface:    "#FDF4FF",
		Heading:    "#6D28D9",
		Body:       "#3B0764",
		Accent:     "#F43F5E",
		FontFamily: "'Trebuchet MS', Verdana, sans-serif",
	},
}

// ThemeByName resolves a theme preset. Unknown names fall back to
// minimal; the second return value reports whether the name matched.
func ThemeByName(name string) (Theme, bool) {
	t, ok := themes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return themes["minimal"], false
	}
	return t, true
}

// ThemeNames lists the available presets.
func ThemeNames() []string {
	return []string{"corporate", "minimal", "dark", "vibrant"}
}
