// Package theme serves the named garment colors used by product swatches.
package theme

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/kinda-storefront/internal/common"
)

var hexPattern = regexp.MustCompile(`(?i)^#[0-9a-f]{6}$`)

// Color is a named swatch.
type Color struct {
	Name string `json:"name" yaml:"name"`
	Hex  string `json:"hex" yaml:"hex"`
}

// Palette is an ordered list of swatches.
type Palette []Color

// Default returns a copy of the built-in palette.
func Default() Palette {
	return append(Palette(nil), defaultPalette...)
}

// Hex finds a color by exact name, then case-insensitively.
func (p Palette) Hex(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	for _, c := range p {
		if c.Name == name {
			return c.Hex, true
		}
	}
	for _, c := range p {
		if strings.EqualFold(c.Name, name) {
			return c.Hex, true
		}
	}
	return "", false
}

// Parse reads either {colors: [{name, hex}]} or a flat {name: "#rrggbb"}
// document. JSON and YAML are both accepted. In the flat form, values that
// are not six-digit hex colors are dropped.
func Parse(data []byte) (Palette, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse palette: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("parse palette: expected an object")
	}
	root := doc.Content[0]

	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "colors" && root.Content[i+1].Kind == yaml.SequenceNode {
			return parseList(root.Content[i+1]), nil
		}
	}

	palette := Palette{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if value.Kind != yaml.ScalarNode || value.ShortTag() != "!!str" || !hexPattern.MatchString(value.Value) {
			continue
		}
		palette = append(palette, Color{Name: key.Value, Hex: value.Value})
	}
	return palette, nil
}

func parseList(seq *yaml.Node) Palette {
	palette := Palette{}
	for _, item := range seq.Content {
		var c Color
		if item.Kind != yaml.MappingNode || item.Decode(&c) != nil {
			continue
		}
		if c.Name == "" || c.Hex == "" {
			continue
		}
		palette = append(palette, c)
	}
	return palette
}

// Load reads the palette at path. An empty path, or any read or parse
// failure, yields the built-in palette.
func Load(path string, logger zerolog.Logger) Palette {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("palette file unreadable, using built-in colors")
		return Default()
	}
	p, err := Parse(data)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("palette file invalid, using built-in colors")
		return Default()
	}
	return p
}

// Handler serves GET /colors. With ?name= it resolves a single color.
type Handler struct {
	Palette Palette
}

// List returns the palette or one named color.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if name := strings.TrimSpace(r.URL.Query().Get("name")); name != "" {
		hex, ok := h.Palette.Hex(name)
		if !ok {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Unknown color.", nil)
			return
		}
		common.JSON(w, http.StatusOK, Color{Name: name, Hex: hex})
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	common.JSON(w, http.StatusOK, map[string]Palette{"colors": h.Palette})
}
