// Package office assigns office_id values per (year, gov_level) partition.
package office

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tokyo-gender/rosterkit/internal/model"
)

// Index maps each partition's office names to their IDs
type Index struct {
	partitions map[model.PartitionKey]map[string]int
}

// Lookup returns the ID of an office in a partition, 0 when unknown
func (ix *Index) Lookup(key model.PartitionKey, office string) int {
	if ix == nil {
		return 0
	}
	return ix.partitions[key][office]
}

// Partitions returns the indexed partition keys in (gov_level, year) order
func (ix *Index) Partitions() []model.PartitionKey {
	keys := make([]model.PartitionKey, 0, len(ix.partitions))
	for k := range ix.partitions {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].GovLevel != keys[j].GovLevel {
			return govOrder(keys[i].GovLevel) < govOrder(keys[j].GovLevel)
		}
		return keys[i].Year < keys[j].Year
	})
	return keys
}

// Offices returns a partition's office names in ID order
func (ix *Index) Offices(key model.PartitionKey) []string {
	ids := ix.partitions[key]
	names := make([]string, len(ids))
	for name, id := range ids {
		names[id-1] = name
	}
	return names
}

// Assign numbers a set of office names 1..n in byte-wise string order.
// The result depends only on the distinct names, not on their order.
func Assign(names []string) map[string]int {
	distinct := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		distinct = append(distinct, n)
	}
	sort.Strings(distinct)

	ids := make(map[string]int, len(distinct))
	for i, n := range distinct {
		ids[n] = i + 1
	}
	return ids
}

// Build indexes the offices seen in records. It must run after every
// page of a partition has been extracted; partitions are numbered
// concurrently.
func Build(ctx context.Context, records []model.ExtractedRecord) (*Index, error) {
	byPartition := make(map[model.PartitionKey][]string)
	for i := range records {
		key := model.PartitionKey{Year: records[i].Year, GovLevel: records[i].GovLevel}
		byPartition[key] = append(byPartition[key], records[i].Office)
	}

	ix := &Index{partitions: make(map[model.PartitionKey]map[string]int, len(byPartition))}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for key, names := range byPartition {
		key, names := key, names
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ids := Assign(names)
			mu.Lock()
			ix.partitions[key] = ids
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ix, nil
}

func govOrder(g model.GovLevel) int {
	for i, lvl := range model.GovLevels {
		if lvl == g {
			return i
		}
	}
	return len(model.GovLevels)
}
