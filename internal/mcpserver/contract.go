package mcpserver

import (
	"fmt"
	"strings"

	"github.com/starford/bignote/internal/taxonomy"
)

// ClusterContractURI is the resource URI of ClusterContract.
const ClusterContractURI = "bignote://cluster-contract"

// ClusterContract describes the cluster structure that LLM consumers should
// respect when reading or spawning notes.
var ClusterContract = buildContract()

func buildContract() string {
	var table strings.Builder
	table.WriteString("| Singular | Plural | Folder | Code | Gets status: todo |\n")
	table.WriteString("|---|---|---|---|---|\n")
	for _, ct := range taxonomy.All() {
		doer := "no"
		if ct.Doer {
			doer = "yes"
		}
		fmt.Fprintf(&table, "| %s | %s | %s | %s | %s |\n", ct.Singular, ct.Plural, ct.Folder, ct.Code, doer)
	}

	return `# bignote Cluster Contract

A vault is organised into clusters. Never create cluster notes by hand;
use the spawn_note tool so IDs, links and frontmatter stay consistent.

## Structure

- A **cluster root folder** holds exactly one file, and that file is named
  after the folder: ` + "`Project/Project.md`" + `.
- That file is the **index note**.
- A **category folder** is a child of a cluster root folder named after a
  context type (table below): ` + "`Project/tasks/`" + `.
- A **peripheral note** lives directly in a category folder and its
  frontmatter ` + "`parent`" + ` is a link to the index note of the same cluster.

## Context types

` + table.String() + `
## Peripheral note format

` + "```" + `markdown
---
parent: "[[Project]]"
spawned_by: "[[<origin note>]]"
status: todo
---

Parent: [[Project]]

Spawned in [[<origin note>#^spawn-task-1a2b3c|^spawn-task-1a2b3c]]

# Journal
` + "```" + `

- File names are ` + "`NNN <name>.md`" + `; NNN is the number of files already in
  the category folder, zero-padded to three digits.
- ` + "`status: todo`" + ` is only written for types marked yes above.
- The origin note receives the line ` + "`Spawn [[NNN <name>]] ^spawn-<code>-<hex>`" + `
  on its own line at the cursor (end of note by default).

## Links

Links name notes by basename, without folder or extension. When two notes
share a basename, links resolve to the first one found walking the vault
depth first, where a folder's own files come before its subfolders and
both are taken in name order. So ` + "`x.md`" + ` wins over ` + "`A/x.md`" + `.
The duplicates diagnostic lists such names with the note they resolve to.
`
}
