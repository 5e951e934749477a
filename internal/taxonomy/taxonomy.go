// Package taxonomy is the fixed, ordered registry of cluster context types.
package taxonomy

// ContextType describes one category of peripheral notes.
type ContextType struct {
	Singular string `json:"singular"`
	Plural   string `json:"plural"`
	Folder   string `json:"folder"`
	Code     string `json:"code"`
	// Doer types get "status: todo" on spawned notes.
	Doer bool `json:"doer"`
}

// Order is significant: it is the order offered to users.
var types = []ContextType{
	{Singular: "Entry", Plural: "Entries", Folder: "entries", Code: "entry"},
	{Singular: "HowTo", Plural: "HowTos", Folder: "howtos", Code: "howto", Doer: true},
	{Singular: "Idea", Plural: "Ideas", Folder: "ideas", Code: "idea"},
	{Singular: "Inference", Plural: "Inferences", Folder: "inferences", Code: "infer"},
	{Singular: "Investigation", Plural: "Investigations", Folder: "investigations", Code: "invst", Doer: true},
	{Singular: "Issue", Plural: "Issues", Folder: "issues", Code: "issue", Doer: true},
	{Singular: "Task", Plural: "Tasks", Folder: "tasks", Code: "task", Doer: true},
}

// All returns a copy of the registry in order.
func All() []ContextType {
	out := make([]ContextType, len(types))
	copy(out, types)
	return out
}

// Headings returns the singular headings in order.
func Headings() []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.Singular
	}
	return out
}

// PluralHeadings returns the plural headings in order.
func PluralHeadings() []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.Plural
	}
	return out
}

func find(match func(ContextType) bool) (ContextType, bool) {
	for _, t := range types {
		if match(t) {
			return t, true
		}
	}
	return ContextType{}, false
}

// BySingular looks up a type by its singular heading (exact match).
func BySingular(heading string) (ContextType, bool) {
	return find(func(t ContextType) bool { return t.Singular == heading })
}

// ByPlural looks up a type by its plural heading (exact match).
func ByPlural(heading string) (ContextType, bool) {
	return find(func(t ContextType) bool { return t.Plural == heading })
}

// ByFolder looks up a type by its category folder name.
func ByFolder(name string) (ContextType, bool) {
	return find(func(t ContextType) bool { return t.Folder == name })
}

// Lookup accepts either heading form.
func Lookup(heading string) (ContextType, bool) {
	if t, ok := BySingular(heading); ok {
		return t, true
	}
	return ByPlural(heading)
}

// FolderFor maps a singular heading to its folder name.
func FolderFor(heading string) (string, bool) {
	t, ok := BySingular(heading)
	return t.Folder, ok
}

// CodeFor maps a singular heading to its block identifier code.
func CodeFor(heading string) (string, bool) {
	t, ok := BySingular(heading)
	return t.Code, ok
}

// SingularFromPlural maps a plural heading to its singular form.
func SingularFromPlural(plural string) (string, bool) {
	t, ok := ByPlural(plural)
	return t.Singular, ok
}

// IsDoer reports whether heading names a doer type. Unknown headings are not doers.
func IsDoer(heading string) bool {
	t, ok := BySingular(heading)
	return ok && t.Doer
}

// IsFolderName reports whether name is one of the category folder names.
func IsFolderName(name string) bool {
	_, ok := ByFolder(name)
	return ok
}
