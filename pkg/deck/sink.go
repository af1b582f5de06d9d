package deck

import (
	"encoding/base64"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
)

// WriteHTML serializes the deck as a single self-contained HTML
// document: one 1280x720 section per slide, chart images embedded as
// base64 so the file has no external references.
func WriteHTML(d *Deck, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var b strings.Builder
	writeHead(&b, d)
	for i := range d.Slides {
		writeSlide(&b, &d.Slides[i], d.Theme)
	}
	b.WriteString("</body>\n</html>\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

func writeHead(b *strings.Builder, d *Deck) {
	t := d.Theme
	fmt.Fprintf(b, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { margin: 0; background: %s; font-family: %s; }
section.slide {
  width: 1280px; height: 720px; margin: 24px auto; padding: 48px 64px;
  box-sizing: border-box; background: %s; border-radius: 8px;
  position: relative; overflow: hidden;
}
section.slide h1 { color: %s; font-size: 44px; margin: 0 0 24px; }
section.slide h1::after {
  content: ""; display: block; width: 96px; height: 4px;
  margin-top: 12px; background: %s;
}
section.slide p { color: %s; font-size: 20px; line-height: 1.5; }
section.slide img { max-width: 100%%; max-height: 420px; display: block; margin: 16px auto; }
section.slide .placeholder {
  height: 360px; display: flex; align-items: center; justify-content: center;
  border: 2px dashed %s; color: %s; font-size: 22px; margin: 16px 0;
}
section.slide footer {
  position: absolute; bottom: 16px; right: 24px;
  color: %s; font-size: 13px; opacity: 0.7;
}
section.slide.title-slide { display: flex; flex-direction: column; justify-content: center; }
section.slide.title-slide h1 { font-size: 60px; }
</style>
</head>
<body>
`, html.EscapeString(d.Title), t.Background, t.FontFamily, t.Surface,
		t.Heading, t.Accent, t.Body, t.Accent, t.Body, t.Accent)
}

func writeSlide(b *strings.Builder, s *Slide, theme Theme) {
	class := "slide"
	if s.Kind == SlideTitle {
		class = "slide title-slide"
	}
	fmt.Fprintf(b, "<section class=%q>\n", class)
	fmt.Fprintf(b, "<h1>%s</h1>\n", html.EscapeString(s.Title))

	if s.Kind == SlideChart {
		switch {
		case s.Placeholder:
			b.WriteString(`<div class="placeholder">Chart unavailable</div>` + "\n")
		case s.ImagePath != "":
			if data, err := embedImage(s.ImagePath); err == nil {
				fmt.Fprintf(b, "<img src=%q alt=%q>\n", data, html.EscapeString(s.Title))
			} else {
				b.WriteString(`<div class="placeholder">Chart unavailable</div>` + "\n")
			}
		}
	}
	for _, p := range s.Body {
		fmt.Fprintf(b, "<p>%s</p>\n", html.EscapeString(p))
	}
	if s.Footer != "" {
		fmt.Fprintf(b, "<footer>%s</footer>\n", html.EscapeString(s.Footer))
	}
	b.WriteString("</section>\n")
}

func embedImage(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw), nil
}
