// Package ancestry builds the semantic ancestry index from lexicon edges and
// answers animacy queries by traversing parent links until a root marker is
// found or the chain is exhausted.
package ancestry

import (
	"sort"
	"strings"
)

// Animacy is the terminal decision of an ancestry traversal.
type Animacy int

const (
	// Unknown means the identifier has no entry in the index and is not
	// itself a root. Callers report such lemmas as unmatched.
	Unknown Animacy = iota
	// Animate means a traversal reached an animacy root.
	Animate
	// Inanimate is the closed-world default: all reachable ancestors were
	// visited without hitting a root.
	Inanimate
)

func (a Animacy) String() string {
	switch a {
	case Animate:
		return "animate"
	case Inanimate:
		return "inanimate"
	default:
		return "unknown"
	}
}

// ParseAnimacy is the inverse of Animacy.String.
func ParseAnimacy(s string) Animacy {
	switch s {
	case "animate":
		return Animate
	case "inanimate":
		return Inanimate
	default:
		return Unknown
	}
}

// Edge is a directed semantic relation from a child identifier to a parent
// identifier, labelled with its relation type.
type Edge struct {
	Child    string
	Parent   string
	Relation string
}

// Classification pairs an animacy decision with the traversed path, from the
// queried lemma to the terminating root or truncation point.
type Classification struct {
	Animacy Animacy  `json:"animacy"`
	Path    []string `json:"path"`
}

// RootSet holds the lemmas that terminate a chain as animate. Matching is
// case-insensitive against the bare lemma, so both "djur" and the sense
// identifier "djur..1" match, while the disambiguated lemgram "djur..nn.1"
// does not terminate by itself.
type RootSet map[string]struct{}

const senseSuffix = ".."

// NewRootSet lowercases the given lemmas into a RootSet.
func NewRootSet(lemmas []string) RootSet {
	rs := make(RootSet, len(lemmas))
	for _, l := range lemmas {
		l = strings.ToLower(strings.TrimSpace(l))
		if l != "" {
			rs[l] = struct{}{}
		}
	}
	return rs
}

// Matches reports whether id terminates a chain as animate. A sense-only
// numeric suffix ("människa..1") is stripped before comparison; a POS-bearing
// suffix ("djur..nn.1") is not, so lemgrams never match directly.
func (rs RootSet) Matches(id string) bool {
	s := strings.ToLower(id)
	if _, ok := rs[s]; ok {
		return true
	}
	if i := strings.Index(s, senseSuffix); i >= 0 {
		tail := s[i+len(senseSuffix):]
		if isDigits(tail) {
			_, ok := rs[s[:i]]
			return ok
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Index is the immutable child → parents mapping built from primary-relation
// edges. Parent lists are kept sorted so traversal order is deterministic.
type Index struct {
	parents map[string][]string
}

// Build filters edges to the given relation type, groups them by child, and
// returns the resulting index. Parents are deduplicated and sorted
// lexicographically per child.
func Build(edges []Edge, relation string) *Index {
	parents := make(map[string][]string)
	seen := make(map[Edge]struct{}, len(edges))
	for _, e := range edges {
		if e.Relation != relation || e.Child == "" || e.Parent == "" {
			continue
		}
		key := Edge{Child: e.Child, Parent: e.Parent}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		parents[e.Child] = append(parents[e.Child], e.Parent)
	}
	for _, ps := range parents {
		sort.Strings(ps)
	}
	return &Index{parents: parents}
}

// Len returns the number of child entries in the index.
func (ix *Index) Len() int {
	return len(ix.parents)
}

// EdgeCount returns the total number of retained edges.
func (ix *Index) EdgeCount() int {
	n := 0
	for _, ps := range ix.parents {
		n += len(ps)
	}
	return n
}

// Parents returns the sorted parent identifiers of id, or nil.
func (ix *Index) Parents(id string) []string {
	return ix.parents[id]
}

// Classify traverses parent edges from id until a root is found, all
// reachable ancestors are exhausted, or maxDepth nodes lie on the current
// path. A visited set guards against cycles; parents are explored in
// lexicographic order, so repeated calls on identical input yield an
// identical result.
//
//   - root reached → (Animate, path including the root)
//   - exhausted or depth-bounded → (Inanimate, longest path traversed)
//   - id absent and not a root → (Unknown, nil)
func (ix *Index) Classify(id string, roots RootSet, maxDepth int) Classification {
	if roots.Matches(id) {
		return Classification{Animacy: Animate, Path: []string{id}}
	}
	if len(ix.parents[id]) == 0 {
		return Classification{Animacy: Unknown}
	}

	type frame struct {
		id   string
		next int
	}
	stack := []frame{{id: id}}
	path := []string{id}
	visited := map[string]struct{}{id: {}}
	longest := []string{id}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		parents := ix.parents[top.id]

		advanced := false
		for top.next < len(parents) {
			p := parents[top.next]
			top.next++
			if roots.Matches(p) {
				return Classification{Animacy: Animate, Path: append(path, p)}
			}
			if _, ok := visited[p]; ok {
				continue
			}
			if len(path) >= maxDepth {
				continue
			}
			visited[p] = struct{}{}
			stack = append(stack, frame{id: p})
			path = append(path, p)
			if len(path) > len(longest) {
				longest = append([]string(nil), path...)
			}
			advanced = true
			break
		}
		if !advanced {
			stack = stack[:len(stack)-1]
			path = path[:len(path)-1]
		}
	}
	return Classification{Animacy: Inanimate, Path: longest}
}
