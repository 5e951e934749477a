// Package parser extracts frontmatter and wikilinks from Markdown content.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Links       []string
}

// Parse extracts frontmatter, body and wikilink targets from raw Markdown bytes.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Links:       extractLinks(body),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]any, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Unreadable frontmatter counts as none.
		return nil, string(data), nil
	}
	return fm, body, nil
}

// extractLinks returns deduplicated wikilink targets in order of appearance.
func extractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		target, ok := normalizeTarget(m[1])
		if !ok {
			continue
		}
		if _, dup := seen[target]; dup {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// normalizeTarget drops a display alias ("|alias") and a heading or block
// reference ("#...") from the inner text of a wikilink.
func normalizeTarget(inner string) (string, bool) {
	if i := strings.Index(inner, "|"); i >= 0 {
		inner = inner[:i]
	}
	if i := strings.Index(inner, "#"); i >= 0 {
		inner = inner[:i]
	}
	inner = strings.TrimSpace(inner)
	return inner, inner != ""
}

// WikiLink formats name as a wikilink.
func WikiLink(name string) string {
	return "[[" + name + "]]"
}

// LinkTarget returns the note name a frontmatter link value points at.
//
// The quoted form `"[[Name]]"` arrives as a string. Written unquoted, YAML
// reads `[[Name]]` as a nested sequence holding one scalar; that shape is
// accepted too. Anything else is not a link.
func LinkTarget(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if !strings.HasPrefix(s, "[[") || !strings.HasSuffix(s, "]]") || len(s) < 4 {
			return "", false
		}
		return normalizeTarget(s[2 : len(s)-2])
	case []any:
		if len(val) != 1 {
			return "", false
		}
		inner, ok := val[0].([]any)
		if !ok || len(inner) != 1 {
			return "", false
		}
		s, ok := inner[0].(string)
		if !ok {
			return "", false
		}
		return normalizeTarget(s)
	default:
		return "", false
	}
}
