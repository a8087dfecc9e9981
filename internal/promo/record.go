package promo

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Record is one promo authorization as written in a discount request document.
type Record struct {
	Code           string     `yaml:"code" json:"code"`
	Status         string     `yaml:"status" json:"status"`
	Amount         any        `yaml:"amount" json:"amount"`
	Percent        any        `yaml:"percent" json:"percent"`
	Starts         string     `yaml:"starts" json:"starts"`
	Expires        string     `yaml:"expires" json:"expires"`
	Email          string     `yaml:"email" json:"email"`
	Emails         StringList `yaml:"emails" json:"emails"`
	AllowedDomains StringList `yaml:"allowedDomains" json:"allowedDomains"`
	MinSubtotal    any        `yaml:"minSubtotal" json:"minSubtotal"`
}

// RawAmount returns amount, falling back to percent.
func (r Record) RawAmount() any {
	if r.Amount != nil {
		return r.Amount
	}
	return r.Percent
}

// NormalizeCode trims, upper-cases and removes all whitespace.
func NormalizeCode(code string) string {
	return strings.Join(strings.Fields(strings.ToUpper(code)), "")
}

// NormalizeEmail trims and lower-cases.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// StringList accepts either a single scalar or a sequence.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if strings.TrimSpace(node.Value) == "" {
			*l = nil
			return nil
		}
		*l = StringList{node.Value}
		return nil
	case yaml.SequenceNode:
		out := make(StringList, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("promo: line %d: list entries must be scalars", item.Line)
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("promo: line %d: expected string or list", node.Line)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	if strings.TrimSpace(one) == "" {
		*l = nil
		return nil
	}
	*l = StringList{one}
	return nil
}

// toNumber converts a loosely typed front-matter value to a float. A string
// with a trailing percent sign is accepted.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, true
		}
		s = strings.TrimSpace(strings.Replace(s, "%", "", 1))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// yamlTimestamp matches YAML 1.1 timestamps and their minute-precision
// variants: date, "T", "t" or spaces, clock, optional fraction and zone.
var yamlTimestamp = regexp.MustCompile(`^(\d{4}-\d{1,2}-\d{1,2})(?:[Tt]|[ \t]+)(\d{1,2}:\d{2}(?::\d{2}(?:\.\d+)?)?)[ \t]*(Z|z|[+-]\d{1,2}(?::?\d{2})?)?$`)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-1-2",
	"2006/1/2",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"Mon Jan 2 2006",
	time.RFC1123,
	time.RFC1123Z,
}

// parseTime reads the date forms found in promo documents. Timestamps without
// a zone are taken as UTC. ok is false for empty or unreadable values.
func parseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if m := yamlTimestamp.FindStringSubmatch(value); m != nil {
		clock := m[2]
		if strings.Count(clock, ":") == 1 {
			clock += ":00"
		}
		if t, err := time.Parse("2006-1-2T15:4:5.999999999Z07:00", m[1]+"T"+clock+zoneOffset(m[3])); err == nil {
			return t, true
		}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// zoneOffset rewrites "", "Z", "-5", "+0530" and "-05:00" as "Z" or "±hh:mm".
func zoneOffset(zone string) string {
	if zone == "" || strings.EqualFold(zone, "z") {
		return "Z"
	}
	sign, digits := zone[:1], strings.ReplaceAll(zone[1:], ":", "")
	hours, minutes := digits, "00"
	if len(digits) > 2 {
		hours, minutes = digits[:len(digits)-2], digits[len(digits)-2:]
	}
	if len(hours) == 1 {
		hours = "0" + hours
	}
	return sign + hours + ":" + minutes
}
