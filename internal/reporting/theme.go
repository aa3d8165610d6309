package reporting

import (
	"fmt"
	"html/template"
	"regexp"
	"sort"

	"github.com/jonathan/cleanops/internal/db"
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// fontStacks maps the fonts a configuration may name to CSS font stacks. Keep in sync
// with the font_family enum of the report configuration schema.
var fontStacks = map[string]string{
	"Helvetica":       `Helvetica, Arial, sans-serif`,
	"Arial":           `Arial, Helvetica, sans-serif`,
	"Georgia":         `Georgia, "Times New Roman", serif`,
	"Times New Roman": `"Times New Roman", Times, serif`,
	"Verdana":         `Verdana, Geneva, sans-serif`,
	"Trebuchet MS":    `"Trebuchet MS", Helvetica, sans-serif`,
	"Courier New":     `"Courier New", Courier, monospace`,
}

// FontFamilies returns the allowed font names, sorted.
func FontFamilies() []string {
	out := make([]string, 0, len(fontStacks))
	for name := range fontStacks {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Theme is the sanitized visual part of a configuration.
type Theme struct {
	Primary   string
	Secondary string
	FontStack string
}

// ThemeFor validates the configuration's colors and font, substituting the defaults
// for anything not allowed.
func ThemeFor(cfg db.ReportConfiguration) Theme {
	def := db.DefaultReportConfiguration(cfg.UserID)
	t := Theme{
		Primary:   def.PrimaryColor,
		Secondary: def.SecondaryColor,
		FontStack: fontStacks[def.FontFamily],
	}
	if hexColor.MatchString(cfg.PrimaryColor) {
		t.Primary = cfg.PrimaryColor
	}
	if hexColor.MatchString(cfg.SecondaryColor) {
		t.Secondary = cfg.SecondaryColor
	}
	if stack, ok := fontStacks[cfg.FontFamily]; ok {
		t.FontStack = stack
	}
	return t
}

// CSS renders the theme as custom properties. Every value has been checked against
// the color pattern or the font allow-list, so the result is safe to mark as CSS.
func (t Theme) CSS() template.CSS {
	return template.CSS(fmt.Sprintf(":root { --primary: %s; --secondary: %s; --font: %s; }", t.Primary, t.Secondary, t.FontStack))
}
