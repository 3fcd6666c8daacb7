package risk

import "regexp"

// Signature is one dangerous-action pattern. The table is data-driven so
// new signatures are additive: config may append entries but the canonical
// set is never removed.
type Signature struct {
	// Category names the class of dangerous action.
	Category string

	// Pattern matches the attempted command text.
	Pattern *regexp.Regexp

	// Reason is the human-readable denial reason.
	Reason string
}

// canonicalSignatures is the fixed dangerous-action table.
var canonicalSignatures = []Signature{
	{
		Category: "recursive-root-delete",
		Pattern:  regexp.MustCompile(`\brm\s+(-\w+\s+)*-\w*r\w*(\s+-\w+)*\s+(/|~/?|\$HOME/?)(\s|$|\*)`),
		Reason:   "recursive delete from a root path",
	},
	{
		Category: "pipe-to-shell",
		Pattern:  regexp.MustCompile(`\b(curl|wget)\b[^|;&]*\|\s*(sudo\s+)?(ba|z|da|fi)?sh\b`),
		Reason:   "piping a remote download directly into a shell",
	},
	{
		Category: "permissive-chmod",
		Pattern:  regexp.MustCompile(`\bchmod\s+(-[a-zA-Z]*R[a-zA-Z]*\s+)+[0-7]*77[0-7]*\b|\bchmod\s+777\s+(/|~)`),
		Reason:   "overly permissive recursive permission change",
	},
	{
		Category: "fork-bomb",
		Pattern:  regexp.MustCompile(`:\s*\(\s*\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;\s*:`),
		Reason:   "fork-bomb pattern",
	},
	{
		Category: "raw-disk-write",
		Pattern:  regexp.MustCompile(`\b(dd\b[^|;&]*\bof=/dev/(sd|hd|nvme|vd|xvd)|mkfs(\.\w+)?\s+(-\S+\s+)*/dev/)`),
		Reason:   "raw low-level disk write",
	},
}

// CanonicalSignatures returns a copy of the fixed signature table.
func CanonicalSignatures() []Signature {
	out := make([]Signature, len(canonicalSignatures))
	copy(out, canonicalSignatures)
	return out
}
