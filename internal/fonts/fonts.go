// Package fonts resolves requested font names to fonts pdfcpu can draw with.
package fonts

import (
	"strconv"
	"strings"
	"sync"
)

// Defaults holds the font used for each keyword category.
type Defaults struct {
	Serif    string
	Sans     string
	Mono     string
	Humanist string
	Fallback string
}

// StandardDefaults uses the PDF core fonts for every category.
func StandardDefaults() Defaults {
	return Defaults{
		Serif:    "Times-Roman",
		Sans:     "Helvetica",
		Mono:     "Courier",
		Humanist: "Helvetica",
		Fallback: "Helvetica",
	}
}

// Match describes which rule produced a resolution.
type Match string

const (
	MatchExact     Match = "exact"
	MatchSubstring Match = "substring"
	MatchCategory  Match = "category"
	MatchFallback  Match = "fallback"
)

// Font is a resolved font.
type Font struct {
	// Name is the pdfcpu font name, e.g. "Times-Bold".
	Name string
	// Base is the category font before weight/style variants were applied.
	Base string
	// Bold and Italic record the variant that was requested.
	Bold   bool
	Italic bool
	Match  Match
}

type entry struct {
	requested string // lowercased requested family name
	font      Font
}

// Cache remembers fonts resolved earlier in a session. A Cache is owned by a
// single session; it is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	defaults Defaults
	byKey    map[string]Font
	order    []entry
}

// NewCache creates an empty cache using the given category defaults.
// Empty default fields fall back to StandardDefaults.
func NewCache(d Defaults) *Cache {
	std := StandardDefaults()
	if d.Serif == "" {
		d.Serif = std.Serif
	}
	if d.Sans == "" {
		d.Sans = std.Sans
	}
	if d.Mono == "" {
		d.Mono = std.Mono
	}
	if d.Humanist == "" {
		d.Humanist = std.Humanist
	}
	if d.Fallback == "" {
		d.Fallback = std.Fallback
	}
	return &Cache{
		defaults: d,
		byKey:    make(map[string]Font),
	}
}

// Resolve returns the font to draw with for the requested name, weight and
// style. Precedence: exact cached match, case-insensitive substring match
// against previously resolved names, keyword category, global fallback.
// The result is cached under the request.
func (c *Cache) Resolve(name, weight, style string) Font {
	bold := IsBold(weight)
	italic := IsItalic(style)
	key := cacheKey(name, bold, italic)

	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.byKey[key]; ok {
		f.Match = MatchExact
		return f
	}

	lower := strings.ToLower(strings.TrimSpace(name))
	var f Font
	if base, ok := c.substringMatch(lower); ok {
		f = Font{Base: base, Match: MatchSubstring}
	} else if base, ok := c.category(lower); ok {
		f = Font{Base: base, Match: MatchCategory}
	} else {
		f = Font{Base: c.defaults.Fallback, Match: MatchFallback}
	}
	f.Bold, f.Italic = bold, italic
	f.Name = Variant(f.Base, bold, italic)

	c.byKey[key] = f
	if lower != "" {
		c.order = append(c.order, entry{requested: lower, font: f})
	}
	return f
}

// substringMatch scans earlier resolutions in insertion order.
func (c *Cache) substringMatch(lower string) (string, bool) {
	if lower == "" {
		return "", false
	}
	for _, e := range c.order {
		if strings.Contains(e.requested, lower) || strings.Contains(lower, e.requested) {
			return e.font.Base, true
		}
	}
	return "", false
}

func (c *Cache) category(lower string) (string, bool) {
	switch {
	case strings.Contains(lower, "serif"), strings.Contains(lower, "times"):
		return c.defaults.Serif, true
	case strings.Contains(lower, "arial"), strings.Contains(lower, "helvetica"):
		return c.defaults.Sans, true
	case strings.Contains(lower, "courier"), strings.Contains(lower, "mono"):
		return c.defaults.Mono, true
	case strings.Contains(lower, "sans"):
		return c.defaults.Humanist, true
	}
	return "", false
}

// Len returns the number of cached resolutions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byKey)
}

// Names returns the distinct font names resolved so far, in first-use order.
func (c *Cache) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := make(map[string]bool)
	var names []string
	for _, e := range c.order {
		if !seen[e.font.Name] {
			seen[e.font.Name] = true
			names = append(names, e.font.Name)
		}
	}
	return names
}

// Clear drops every cached resolution.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey = make(map[string]Font)
	c.order = nil
}

func cacheKey(name string, bold, italic bool) string {
	return name + "|" + strconv.FormatBool(bold) + "|" + strconv.FormatBool(italic)
}

// IsBold reports whether a CSS-style weight selects a bold face.
// Accepts "bold", "bolder" and numeric weights of 600 and above.
func IsBold(weight string) bool {
	w := strings.ToLower(strings.TrimSpace(weight))
	switch w {
	case "bold", "bolder":
		return true
	}
	n, err := strconv.Atoi(w)
	return err == nil && n >= 600
}

// IsItalic reports whether a CSS-style font style selects an italic face.
func IsItalic(style string) bool {
	s := strings.ToLower(strings.TrimSpace(style))
	return s == "italic" || s == "oblique"
}

var coreVariants = map[string][4]string{
	// regular, bold, italic, bold italic
	"Times-Roman": {"Times-Roman", "Times-Bold", "Times-Italic", "Times-BoldItalic"},
	"Helvetica":   {"Helvetica", "Helvetica-Bold", "Helvetica-Oblique", "Helvetica-BoldOblique"},
	"Courier":     {"Courier", "Courier-Bold", "Courier-Oblique", "Courier-BoldOblique"},
}

// Variant returns the core-font face for base with the given weight and
// style. Fonts without known faces are returned unchanged.
func Variant(base string, bold, italic bool) string {
	faces, ok := coreVariants[base]
	if !ok {
		return base
	}
	i := 0
	if bold {
		i |= 1
	}
	if italic {
		i |= 2
	}
	return faces[i]
}

// IsCore reports whether name is one of the 14 standard PDF fonts.
func IsCore(name string) bool {
	for _, faces := range coreVariants {
		for _, f := range faces {
			if f == name {
				return true
			}
		}
	}
	return name == "Symbol" || name == "ZapfDingbats"
}

// FpdfFace maps a core font name to the family and style strings fpdf uses
// for metrics. ok is false for non-core fonts.
func FpdfFace(name string) (family, style string, ok bool) {
	for base, faces := range coreVariants {
		for i, f := range faces {
			if f != name {
				continue
			}
			switch base {
			case "Times-Roman":
				family = "Times"
			default:
				family = base
			}
			switch i {
			case 1:
				style = "B"
			case 2:
				style = "I"
			case 3:
				style = "BI"
			}
			return family, style, true
		}
	}
	return "", "", false
}
