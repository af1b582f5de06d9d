// Package deck assembles composed text and rendered charts into an
// ordered slide deck and serializes it to a self-contained document.
//
// Assembly is failure-isolated per slide: a bad chart or missing image
// downgrades that one slide (placeholder or omission plus a warning)
// and never sinks the deck.
package deck

// SlideKind identifies the layout of a slide.
type SlideKind string

// Slide layouts.
const (
	SlideTitle      SlideKind = "title"
	SlideOverview   SlideKind = "overview"
	SlideChart      SlideKind = "chart"
	SlideConclusion SlideKind = "conclusion"
)

// Slide is one rendered page of the deck.
type Slide struct {
	Kind        SlideKind
	Title       string
	Body        []string // paragraphs
	ImagePath   string   // chart PNG, for SlideChart
	Placeholder bool     // image could not be embedded
	Footer      string   // watermark or footer text, may be empty
}

// Deck is the assembled presentation.
type Deck struct {
	Title  string
	Theme  Theme
	Slides []Slide
}

// SlideCount returns the number of slides.
func (d *Deck) SlideCount() int { return len(d.Slides) }
