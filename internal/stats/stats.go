// Package stats computes read-only progress reports across exercises and
// review history. It issues no writes.
package stats

import (
	"context"
	"sort"

	"github.com/abhisek/maestro/internal/store"
)

// DomainStat summarizes progress within a single domain.
type DomainStat struct {
	Domain    string
	Total     int
	Completed int
	Reviews   int
	// Mastery is the share of completed exercises, 0-100.
	Mastery int
}

// Report is a full progress snapshot.
type Report struct {
	TotalExercises int
	TotalCompleted int
	TotalReviews   int
	Domains        []DomainStat
}

// Build computes a report from the store's current contents.
func Build(ctx context.Context, st *store.Store) (*Report, error) {
	exercises, err := st.List(ctx, "")
	if err != nil {
		return nil, err
	}
	eventCounts, err := st.CountEvents(ctx)
	if err != nil {
		return nil, err
	}

	byDomain := make(map[string]*DomainStat)
	report := &Report{}

	for _, ex := range exercises {
		report.TotalExercises++
		ds, ok := byDomain[ex.Domain]
		if !ok {
			ds = &DomainStat{Domain: ex.Domain}
			byDomain[ex.Domain] = ds
		}
		ds.Total++
		ds.Reviews += eventCounts[ex.ID]
		if ex.Completed {
			ds.Completed++
			report.TotalCompleted++
		}
	}
	for _, n := range eventCounts {
		report.TotalReviews += n
	}

	for _, ds := range byDomain {
		if ds.Total > 0 {
			ds.Mastery = ds.Completed * 100 / ds.Total
		}
		report.Domains = append(report.Domains, *ds)
	}
	sort.Slice(report.Domains, func(i, j int) bool {
		return report.Domains[i].Domain < report.Domains[j].Domain
	})
	return report, nil
}
