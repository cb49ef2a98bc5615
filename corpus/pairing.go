package corpus

import (
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// MatchMode decides which references a hypothesis attaches to when several
// reference prefixes match it.
type MatchMode string

const (
	// MatchLongest attaches a hypothesis only to the reference(s) with the
	// longest matching prefix.
	MatchLongest MatchMode = "longest"
	// MatchAll attaches a hypothesis to every matching reference.
	MatchAll MatchMode = "all"
)

// Pairing is one reference file and the hypotheses scored against it.
type Pairing struct {
	Reference  string   `json:"reference"`
	Hypotheses []string `json:"hypotheses"`
}

type discoverOptions struct {
	mode       MatchMode
	extensions []string
	exclude    []string
}

// DiscoverOption configures DiscoverPairs.
type DiscoverOption func(*discoverOptions)

// WithMatchMode sets the multi-match policy. Defaults to MatchLongest.
func WithMatchMode(mode MatchMode) DiscoverOption {
	return func(o *discoverOptions) {
		if mode != "" {
			o.mode = mode
		}
	}
}

// WithExtensions restricts discovery to names with one of the given
// extensions, compared case-insensitively. An empty list admits every name.
func WithExtensions(exts ...string) DiscoverOption {
	return func(o *discoverOptions) {
		o.extensions = o.extensions[:0]
		for _, e := range exts {
			if e == "" {
				continue
			}
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			o.extensions = append(o.extensions, strings.ToLower(e))
		}
	}
}

// WithExclude drops the given names before classification.
func WithExclude(names ...string) DiscoverOption {
	return func(o *discoverOptions) {
		o.exclude = append(o.exclude, names...)
	}
}

// Discovery is the outcome of pairing a set of names.
type Discovery struct {
	Pairings []Pairing
	// Unmatched lists hypothesis names no reference claimed.
	Unmatched []string
}

// DiscoverPairs classifies fileNames into references (names without marker)
// and hypotheses, and pairs each hypothesis with the reference whose
// extension-stripped name it starts with. References and hypotheses are
// sorted, so the result does not depend on listing order. References with
// no hypotheses are kept with an empty list.
func DiscoverPairs(fileNames []string, marker string, opts ...DiscoverOption) []Pairing {
	return Discover(fileNames, marker, opts...).Pairings
}

// Discover is DiscoverPairs that also reports unmatched hypotheses.
func Discover(fileNames []string, marker string, opts ...DiscoverOption) Discovery {
	o := discoverOptions{mode: MatchLongest, extensions: []string{".txt"}}
	for _, opt := range opts {
		opt(&o)
	}

	var refs, hyps []string
	for _, name := range fileNames {
		if slices.Contains(o.exclude, name) || !o.admits(name) {
			continue
		}
		if marker != "" && strings.Contains(name, marker) {
			hyps = append(hyps, name)
		} else {
			refs = append(refs, name)
		}
	}
	sort.Strings(refs)
	sort.Strings(hyps)

	pairings := make([]Pairing, len(refs))
	prefixes := make([]string, len(refs))
	for i, r := range refs {
		pairings[i] = Pairing{Reference: r, Hypotheses: []string{}}
		prefixes[i] = strings.TrimSuffix(r, filepath.Ext(r))
	}

	var unmatched []string
	for _, h := range hyps {
		var matches []int
		longest := -1
		for i, prefix := range prefixes {
			if !strings.HasPrefix(h, prefix) {
				continue
			}
			switch {
			case o.mode == MatchAll:
				matches = append(matches, i)
			case len(prefix) > longest:
				longest = len(prefix)
				matches = []int{i}
			case len(prefix) == longest:
				matches = append(matches, i)
			}
		}
		if len(matches) == 0 {
			unmatched = append(unmatched, h)
			continue
		}
		for _, i := range matches {
			pairings[i].Hypotheses = append(pairings[i].Hypotheses, h)
		}
	}

	return Discovery{Pairings: pairings, Unmatched: unmatched}
}

func (o *discoverOptions) admits(name string) bool {
	if len(o.extensions) == 0 {
		return true
	}
	return slices.Contains(o.extensions, strings.ToLower(filepath.Ext(name)))
}
