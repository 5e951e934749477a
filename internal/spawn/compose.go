package spawn

import (
	"math/rand/v2"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/bignote/internal/cluster"
	"github.com/starford/bignote/internal/parser"
)

const hexDigits = "abcdef0123456789"

// randomHex draws n characters uniformly from hexDigits. Collisions are possible.
func randomHex(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = hexDigits[rand.IntN(len(hexDigits))]
	}
	return string(b)
}

// BlockID builds the anchor placed on the forward-reference line.
func BlockID(code, hex string) string {
	return "^spawn-" + code + "-" + hex
}

// ForwardLine is the line inserted into the origin note.
func ForwardLine(basename, blockID string) string {
	return "Spawn " + parser.WikiLink(basename) + " " + blockID
}

func str(v string, style yaml.Style) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v, Style: style}
}

// frontmatter renders the YAML block of a new peripheral note, keys in fixed order.
func frontmatter(index, origin string, doer bool) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	doc.Content = append(doc.Content,
		str(cluster.ParentProperty, 0), str(parser.WikiLink(index), yaml.DoubleQuotedStyle),
		str(cluster.SpawnedByProperty, 0), str(parser.WikiLink(origin), yaml.DoubleQuotedStyle),
	)
	if doer {
		doc.Content = append(doc.Content, str(cluster.StatusProperty, 0), str("todo", 0))
	}
	return yaml.Marshal(doc)
}

// noteContent assembles the full Markdown of a spawned note.
func noteContent(index, origin, blockID, journalHeading string, doer bool) ([]byte, error) {
	fm, err := frontmatter(index, origin, doer)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(fm)
	b.WriteString("---\n\n")
	b.WriteString("Parent: " + parser.WikiLink(index) + "\n\n")
	b.WriteString("Spawned in [[" + origin + "#" + blockID + "|" + blockID + "]]\n\n")
	b.WriteString("# " + journalHeading + "\n")
	return []byte(b.String()), nil
}
