package ioc

import (
	"fmt"
	"reflect"
	"sync"
)

// planCache memoizes injection plans per concrete type so a plan is
// computed once and never changes afterwards.
type planCache struct {
	source MetadataSource
	plans  sync.Map // map[reflect.Type]*injectionPlan
}

func newPlanCache(source MetadataSource) *planCache {
	return &planCache{source: source}
}

// plan returns the cached plan for t, computing it on first use. Failures
// are not cached.
func (c *planCache) plan(t reflect.Type) (*injectionPlan, error) {
	if cached, ok := c.plans.Load(t); ok {
		return cached.(*injectionPlan), nil
	}

	meta, err := c.source.Metadata(t)
	if err != nil {
		return nil, err
	}
	if meta == nil || meta.Type == nil {
		return nil, fmt.Errorf("no metadata for %s", formatType(t))
	}

	plan, err := newInjectionPlan(meta)
	if err != nil {
		return nil, err
	}

	actual, _ := c.plans.LoadOrStore(t, plan)
	return actual.(*injectionPlan), nil
}

// size returns the number of cached plans.
func (c *planCache) size() int {
	n := 0
	c.plans.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
