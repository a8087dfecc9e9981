package arrivals

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Product is the card/modal shape the storefront renders.
type Product struct {
	Name   string          `json:"name"`
	Image  string          `json:"image"`
	Alt    string          `json:"alt,omitempty"`
	Sizes  json.RawMessage `json:"sizes"`
	Colors []string        `json:"colors"`

	key string
}

// SizePrice is one entry of a normalized size table.
type SizePrice struct {
	Size  string `json:"size"`
	Price string `json:"price"`
}

type rawProduct struct {
	Name   *string         `json:"name"`
	Image  *string         `json:"image"`
	Alt    string          `json:"alt"`
	Sizes  json.RawMessage `json:"sizes"`
	Colors json.RawMessage `json:"colors"`
}

type sourceFile struct {
	Products []rawProduct `json:"products"`
}

func normalize(p rawProduct) Product {
	out := Product{
		Alt:    p.Alt,
		Sizes:  normalizeSizes(p.Sizes),
		Colors: normalizeColors(p.Colors),
	}
	name, image := "undefined", "undefined"
	if p.Name != nil {
		out.Name, name = *p.Name, *p.Name
	}
	if p.Image != nil {
		out.Image, image = *p.Image, *p.Image
	}
	out.key = name + "::" + image
	return out
}

// normalizeSizes keeps arrays as given and turns a {size: price} object into
// an ordered list with upper-cased sizes and "$"-prefixed prices.
func normalizeSizes(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		return raw
	}
	entries := orderedEntries(raw)
	list := make([]SizePrice, 0, len(entries))
	for _, e := range entries {
		price := scalarString(e.value)
		if !strings.HasPrefix(price, "$") {
			price = "$" + price
		}
		list = append(list, SizePrice{Size: strings.ToUpper(e.key), Price: price})
	}
	data, _ := json.Marshal(list)
	return data
}

func normalizeColors(raw json.RawMessage) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return []string{"Black"}
	}
	colors := make([]string, 0, len(items))
	for _, item := range items {
		var name string
		var s string
		var obj struct {
			Color string `json:"color"`
		}
		switch {
		case json.Unmarshal(item, &s) == nil:
			name = s
		case json.Unmarshal(item, &obj) == nil:
			name = obj.Color
		}
		if name = strings.TrimSpace(name); name != "" {
			colors = append(colors, name)
		}
	}
	return colors
}

type entry struct {
	key   string
	value json.RawMessage
}

// orderedEntries lists an object's members in the order a browser would:
// array-index keys ascending first, then the rest in document order.
func orderedEntries(raw json.RawMessage) []entry {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}
	var indexed, named []entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil
		}
		key, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil
		}
		if isArrayIndex(key) {
			indexed = append(indexed, entry{key, value})
		} else {
			named = append(named, entry{key, value})
		}
	}
	sort.SliceStable(indexed, func(i, j int) bool {
		a, _ := strconv.ParseUint(indexed[i].key, 10, 32)
		b, _ := strconv.ParseUint(indexed[j].key, 10, 32)
		return a < b
	})
	return append(indexed, named...)
}

func isArrayIndex(key string) bool {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return false
	}
	n, err := strconv.ParseUint(key, 10, 32)
	return err == nil && n < 1<<32-1
}

func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return string(raw)
}
