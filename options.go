package draft

import "reflect"

// DefaultMaxDepth is the nesting ceiling applied to source graph validation
// and reconciliation when WithMaxDepth is not given.
const DefaultMaxDepth = 10000

// Option configures a single Produce call.
type Option interface {
	applyProduce(*config)
}

type produceOptionFunc func(*config)

func (f produceOptionFunc) applyProduce(c *config) { f(c) }

type config struct {
	maxDepth    int
	passThrough map[reflect.Type]struct{}
}

func newConfig(opts []Option) *config {
	c := &config{maxDepth: DefaultMaxDepth}
	for _, o := range opts {
		o.applyProduce(c)
	}
	return c
}

func (c *config) passesThrough(v any) bool {
	if len(c.passThrough) == 0 {
		return false
	}
	_, ok := c.passThrough[reflect.TypeOf(v)]
	return ok
}

// WithMaxDepth overrides the nesting ceiling used by cycle detection and
// reconciliation. Non-positive depths are ignored.
func WithMaxDepth(depth int) Option {
	return produceOptionFunc(func(c *config) {
		if depth > 0 {
			c.maxDepth = depth
		}
	})
}

// WithPassThrough excludes the dynamic types of the given sample values from
// drafting. Values of those types are returned as-is from draft reads and
// pass through reconciliation untouched.
func WithPassThrough(samples ...any) Option {
	return produceOptionFunc(func(c *config) {
		if c.passThrough == nil {
			c.passThrough = map[reflect.Type]struct{}{}
		}
		for _, s := range samples {
			if s != nil {
				c.passThrough[reflect.TypeOf(s)] = struct{}{}
			}
		}
	})
}
