// Package identity assigns staff_id values by clustering plausible names
// within one office.
//
// Records sharing an exact name get one provisional group. Groups whose
// names are both longer than MinFuzzyRunes-1 runes and reach Threshold
// similarity are merged with union-find. Clusters never span offices.
package identity

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/tokyo-gender/rosterkit/internal/model"
)

// Scope is the unit inside which names may share a staff_id
type Scope struct {
	GovLevel model.GovLevel
	Office   string
}

// MinFuzzyRunes is the shortest name length that may fuzzy-merge; names
// of two runes or fewer only ever match exactly.
const MinFuzzyRunes = 3

// Options pins the matching parameters
type Options struct {
	Threshold     float64 // Minimum similarity for a fuzzy merge
	MinFuzzyRunes int     // Shorter names only merge on exact match
}

// DefaultOptions matches the published master table
func DefaultOptions() Options {
	return Options{Threshold: 0.85, MinFuzzyRunes: MinFuzzyRunes}
}

// Key identifies one plausible name inside its scope
type Key struct {
	Scope
	Name string
}

// Assignment is the resolved staff_id table
type Assignment struct {
	ids      map[Key]int
	clusters int
}

// StaffID returns the staff_id of a name in a scope, 0 when unset
func (a *Assignment) StaffID(scope Scope, name string) int {
	if a == nil {
		return 0
	}
	return a.ids[Key{Scope: scope, Name: name}]
}

// Clusters returns the number of distinct staff_ids issued
func (a *Assignment) Clusters() int {
	if a == nil {
		return 0
	}
	return a.clusters
}

// Resolver clusters names office by office
type Resolver struct {
	opts Options
}

// NewResolver creates a resolver. A zero threshold falls back to the
// default and MinFuzzyRunes is never below the package minimum.
func NewResolver(opts Options) *Resolver {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultOptions().Threshold
	}
	if opts.MinFuzzyRunes < MinFuzzyRunes {
		opts.MinFuzzyRunes = MinFuzzyRunes
	}
	return &Resolver{opts: opts}
}

// Resolve assigns staff_ids to every plausible name in records. Records
// with IsName=false are ignored and never receive an ID. Scopes are
// clustered concurrently and numbered afterwards in sorted scope order,
// then by each cluster's smallest name, so reruns give identical IDs.
func (r *Resolver) Resolve(ctx context.Context, records []model.ResolvedRecord) (*Assignment, error) {
	names := make(map[Scope]map[string]struct{})
	for i := range records {
		rec := &records[i]
		if !rec.IsName || rec.Name == "" {
			continue
		}
		scope := Scope{GovLevel: rec.GovLevel, Office: rec.Office}
		if names[scope] == nil {
			names[scope] = make(map[string]struct{})
		}
		names[scope][rec.Name] = struct{}{}
	}

	scopes := make([]Scope, 0, len(names))
	for s := range names {
		scopes = append(scopes, s)
	}
	sort.Slice(scopes, func(i, j int) bool { return scopeLess(scopes[i], scopes[j]) })

	clustered := make([][][]string, len(scopes))
	g, ctx := errgroup.WithContext(ctx)
	for i, scope := range scopes {
		i, scope := i, scope
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			distinct := make([]string, 0, len(names[scope]))
			for n := range names[scope] {
				distinct = append(distinct, n)
			}
			clustered[i] = r.Cluster(distinct)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Assignment{ids: make(map[Key]int)}
	next := 1
	for i, scope := range scopes {
		for _, cluster := range clustered[i] {
			for _, name := range cluster {
				out.ids[Key{Scope: scope, Name: name}] = next
			}
			next++
		}
	}
	out.clusters = next - 1
	return out, nil
}

// Cluster groups the distinct names of one scope. Each returned cluster is
// sorted, and clusters are ordered by their first name.
func (r *Resolver) Cluster(names []string) [][]string {
	distinct := dedupe(names)
	ds := newDisjointSet(len(distinct))

	long := make([]int, 0, len(distinct))
	for i, n := range distinct {
		if len([]rune(n)) >= r.opts.MinFuzzyRunes {
			long = append(long, i)
		}
	}
	for x := 0; x < len(long); x++ {
		for y := x + 1; y < len(long); y++ {
			a, b := long[x], long[y]
			if Similarity(distinct[a], distinct[b]) >= r.opts.Threshold {
				ds.union(a, b)
			}
		}
	}

	byRoot := make(map[int][]string)
	roots := make([]int, 0)
	for i, n := range distinct {
		root := ds.find(i)
		if _, ok := byRoot[root]; !ok {
			roots = append(roots, root)
		}
		byRoot[root] = append(byRoot[root], n)
	}

	// distinct is sorted, so each cluster is sorted and roots appear in
	// order of their smallest member.
	clusters := make([][]string, 0, len(roots))
	for _, root := range roots {
		clusters = append(clusters, byRoot[root])
	}
	return clusters
}

func dedupe(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	j := 0
	for i, n := range out {
		if i > 0 && n == out[j-1] {
			continue
		}
		out[j] = n
		j++
	}
	return out[:j]
}

func scopeLess(a, b Scope) bool {
	if a.GovLevel != b.GovLevel {
		return govOrder(a.GovLevel) < govOrder(b.GovLevel)
	}
	return a.Office < b.Office
}

func govOrder(g model.GovLevel) int {
	for i, lvl := range model.GovLevels {
		if lvl == g {
			return i
		}
	}
	return len(model.GovLevels)
}
