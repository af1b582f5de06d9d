package texts

import "strings"

// Style tunes the voice and length of composed text. It never changes
// which facts are mentioned, only how many sentences carry them.
type Style string

// Recognized styles. "light" is a legacy alias accepted by Normalize.
const (
	StyleShort     Style = "short"
	StyleNormal    Style = "normal"
	StyleExecutive Style = "executive"
)

// Normalize maps user-supplied style names onto a preset. Unknown names
// and the legacy "light" alias settle on StyleNormal.
func Normalize(name string) Style {
	switch Style(strings.ToLower(strings.TrimSpace(name))) {
	case StyleShort:
		return StyleShort
	case StyleExecutive:
		return StyleExecutive
	case StyleNormal, "light", "":
		return StyleNormal
	default:
		return StyleNormal
	}
}

// preset holds the tuning knobs for one style.
type preset struct {
	MaxSentences   int
	Recommendation bool // append an action-oriented closing line
}

var presets = map[Style]preset{
	StyleShort:     {MaxSentences: 2},
	StyleNormal:    {MaxSentences: 4},
	StyleExecutive: {MaxSentences: 5, Recommendation: true},
}

func presetFor(s Style) preset {
	if p, ok := presets[s]; ok {
		return p
	}
	return presets[StyleNormal]
}
