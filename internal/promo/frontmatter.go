package promo

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	commentLine = regexp.MustCompile(`(?m)^\s*//.*$`)

	errUnterminated = errors.New("front matter is not closed")
)

// ParseDocument extracts the YAML front matter of a promo document. Lines
// starting with // are dropped first. A document without front matter yields
// an empty record.
func ParseDocument(raw []byte) (Record, error) {
	sanitized := commentLine.ReplaceAll(raw, nil)
	sanitized = bytes.TrimPrefix(sanitized, []byte("\xef\xbb\xbf"))

	block, ok, err := frontMatter(sanitized)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, nil
	}
	var rec Record
	if err := yaml.Unmarshal(block, &rec); err != nil {
		return Record{}, fmt.Errorf("parse front matter: %w", err)
	}
	return rec, nil
}

func frontMatter(doc []byte) ([]byte, bool, error) {
	scanner := bufio.NewScanner(bytes.NewReader(doc))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	opened := false
	var block bytes.Buffer
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if !opened {
			if line == "" {
				continue
			}
			if line != "---" {
				return nil, false, nil
			}
			opened = true
			continue
		}
		if line == "---" || line == "..." {
			return block.Bytes(), true, nil
		}
		block.WriteString(line)
		block.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, false, err
	}
	if opened {
		return nil, false, errUnterminated
	}
	return nil, false, nil
}
