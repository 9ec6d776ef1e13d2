// Package entityquery declares which related data a read of an aggregate must attach.
//
// A Configuration augments a storage-neutral Query with relation paths. Repositories
// apply the same Configuration on every read path, so an aggregate has one loaded shape
// whether it is fetched by id or within a page. Storage adapters translate the resulting
// include set into their own eager-loading mechanism.
package entityquery

import (
	"slices"
	"strings"

	"github.com/code19m/errx"
)

const CodeUnknownRelation = "UNKNOWN_RELATION"

// Query is an ordered, duplicate-free set of relation paths ("Tags", "Comments.Author").
// The zero Query includes nothing. Query values are immutable.
type Query struct {
	paths []string
}

// Include returns a copy of q with paths added. Blank paths and paths already present
// are ignored, so including the same relation twice never changes the result.
func (q Query) Include(paths ...string) Query {
	out := Query{paths: slices.Clone(q.paths)}
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" || slices.Contains(out.paths, p) {
			continue
		}
		out.paths = append(out.paths, p)
	}
	return out
}

// Includes returns the relation paths in the order they were first included.
func (q Query) Includes() []string {
	return slices.Clone(q.paths)
}

// Has reports whether path is included.
func (q Query) Has(path string) bool {
	return slices.Contains(q.paths, path)
}

func (q Query) Len() int {
	return len(q.paths)
}

// Equal reports whether both queries include the same paths, regardless of order.
func (q Query) Equal(other Query) bool {
	if len(q.paths) != len(other.paths) {
		return false
	}
	for _, p := range q.paths {
		if !other.Has(p) {
			return false
		}
	}
	return true
}

// Configuration declares the complete read shape of aggregate E.
// Implementations must be pure: applying them twice equals applying them once.
type Configuration[E any] interface {
	ConfigureAggregate(base Query) Query
}

// Func adapts a plain function to Configuration.
type Func[E any] func(base Query) Query

func (f Func[E]) ConfigureAggregate(base Query) Query {
	return f(base)
}

// Relations returns a Configuration that includes the given paths.
func Relations[E any](paths ...string) Configuration[E] {
	return Func[E](func(base Query) Query {
		return base.Include(paths...)
	})
}

// None returns a Configuration that loads no related data.
func None[E any]() Configuration[E] {
	return Func[E](func(base Query) Query { return base })
}

// Compose applies cfgs in order.
func Compose[E any](cfgs ...Configuration[E]) Configuration[E] {
	return Func[E](func(base Query) Query {
		for _, c := range cfgs {
			if c != nil {
				base = c.ConfigureAggregate(base)
			}
		}
		return base
	})
}

// Apply applies cfg to an empty Query; a nil cfg loads nothing.
func Apply[E any](cfg Configuration[E]) Query {
	if cfg == nil {
		return Query{}
	}
	return cfg.ConfigureAggregate(Query{})
}

// Verify fails when q includes a path that known does not recognize. Adapters call it
// so that a relation removed from the schema surfaces as an error instead of silently
// dropping data.
func Verify(q Query, known func(path string) bool) error {
	var unknown []string
	for _, p := range q.paths {
		if !known(p) {
			unknown = append(unknown, p)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	return errx.New(
		"[entityquery]: unknown relation(s) in read configuration",
		errx.WithCode(CodeUnknownRelation),
		errx.WithDetails(errx.D{"relations": unknown}),
	)
}
