package catalog

import (
	"fmt"
	"strings"
)

// DefaultSizes maps storefront size labels to Square item variation ids.
var DefaultSizes = map[string]string{
	"XXS":   "ZUPGPO2XVL5VHZ2I37XQ5IDJ",
	"XS":    "RU5HBYNBGC5YI76B6HRQFQN3",
	"S":     "IXRI3WJS6XGP7IQSASXA6KCA",
	"M":     "4WJEKSK7CDRSMFHV6UEZTPCT",
	"L":     "IX5L6VC7ZS3NJJDNURYBVVWS",
	"XL":    "ZIFH4HBYWZLWPI46NRGJAA3V",
	"XXL":   "2S3ZUOKTXQ62YCJNHQQK4GRM",
	"2XL":   "2S3ZUOKTXQ62YCJNHQQK4GRM",
	"XXXL":  "53V5JSWYNGTTLZ7W4B6NWQUZ",
	"3XL":   "53V5JSWYNGTTLZ7W4B6NWQUZ",
	"XXXXL": "IM53XVOCJMFYENLXPHWNMLXS",
	"4XL":   "IM53XVOCJMFYENLXPHWNMLXS",
}

// UnmappedSizeError reports a cart size with no catalog variation.
type UnmappedSizeError struct {
	Size string
}

func (e *UnmappedSizeError) Error() string {
	return fmt.Sprintf("missing catalog object id for size: %s", e.Size)
}

// SizeMap resolves size labels case-insensitively. It is immutable once
// built and safe for concurrent use.
type SizeMap struct {
	ids map[string]string
}

// NewSizeMap builds a SizeMap from label -> variation id pairs. An empty
// table falls back to DefaultSizes.
func NewSizeMap(table map[string]string) SizeMap {
	if len(table) == 0 {
		table = DefaultSizes
	}
	ids := make(map[string]string, len(table))
	for label, id := range table {
		label = strings.ToUpper(strings.TrimSpace(label))
		id = strings.TrimSpace(id)
		if label == "" || id == "" {
			continue
		}
		ids[label] = id
	}
	return SizeMap{ids: ids}
}

// CatalogID returns the variation id for size.
func (m SizeMap) CatalogID(size string) (string, error) {
	id, ok := m.ids[strings.ToUpper(strings.TrimSpace(size))]
	if !ok {
		return "", &UnmappedSizeError{Size: size}
	}
	return id, nil
}

// Len reports how many labels are mapped.
func (m SizeMap) Len() int { return len(m.ids) }
