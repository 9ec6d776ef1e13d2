// Package sorter provides utilities for parsing and resolving sorting options.
// It supports parsing sorting strings (e.g., "name:asc,created_at:desc"), resolving a single
// caller-supplied field/direction pair against an allow-list of sortable columns, and always
// producing a deterministic order so that paging is stable.
package sorter

import (
	"slices"
	"strings"

	"github.com/code19m/errx"
)

type (
	SortOpts []Opt

	SortDirection string

	// Policy decides what happens to a sort direction outside of asc/desc.
	Policy string
)

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"

	// Lenient silently falls back to ascending order for an unknown direction.
	Lenient Policy = "lenient"
	// Strict rejects an unknown direction with a validation error.
	Strict Policy = "strict"

	CodeInvalidSortDirection = "INVALID_SORT_DIRECTION"
	CodeInvalidSortField     = "INVALID_SORT_FIELD"
)

// MakeFromStr parses "field:dir,field:dir" into options. Entries that are
// malformed, name a field outside allowedFields, or carry a direction other
// than asc/desc are dropped.
func MakeFromStr(sortString string, allowedFields ...string) SortOpts {
	var opts SortOpts
	for pair := range strings.SplitSeq(sortString, ",") {
		field, dir, ok := strings.Cut(pair, ":")
		if !ok || strings.Contains(dir, ":") {
			continue
		}
		field = strings.TrimSpace(field)
		d := SortDirection(strings.ToLower(strings.TrimSpace(dir)))
		if (d == Asc || d == Desc) && slices.Contains(allowedFields, field) {
			opts = append(opts, Opt{F: field, D: d})
		}
	}
	return opts
}

// Make creates a slice of Opt from a variadic list of Opt.
// It is a convenience function for creating a slice of sorting options
// without manually initializing a slice.
func Make(sortOptions ...Opt) SortOpts {
	return sortOptions
}

// ParseDirection normalizes a raw direction. An empty direction is always ascending.
// Anything other than asc/desc (case-insensitive) is ascending under Lenient and a
// validation error under Strict.
func ParseDirection(raw string, policy Policy) (SortDirection, error) {
	d := SortDirection(strings.ToLower(strings.TrimSpace(raw)))
	switch d {
	case "":
		return Asc, nil
	case Asc, Desc:
		return d, nil
	}

	if policy == Strict {
		return "", errx.New(
			"sort direction must be asc or desc",
			errx.WithCode(CodeInvalidSortDirection),
			errx.WithType(errx.T_Validation),
			errx.WithFields(errx.M{"sort_direction": "must be one of: asc desc"}),
		)
	}
	return Asc, nil
}

// Resolver turns a caller-supplied field/direction pair into storage-level sort options.
type Resolver struct {
	// Columns maps public sort field names to storage columns.
	Columns map[string]string
	// Default is used when the caller requests no field.
	Default SortOpts
	// TieBreaker is a unique column appended to every order (usually the primary key).
	TieBreaker string
	// Policy applies to unknown directions.
	Policy Policy
}

// Resolve returns the full, deterministic order for field/direction.
// An unknown field is rejected under Strict and replaced by the default under Lenient.
func (r Resolver) Resolve(field, direction string) (SortOpts, error) {
	field = strings.TrimSpace(field)

	var opts SortOpts
	if field != "" {
		column, ok := r.Columns[field]
		switch {
		case ok:
			d, err := ParseDirection(direction, r.Policy)
			if err != nil {
				return nil, err
			}
			opts = SortOpts{{F: column, D: d}}
		case r.Policy == Strict:
			return nil, errx.New(
				"sort field is not sortable",
				errx.WithCode(CodeInvalidSortField),
				errx.WithType(errx.T_Validation),
				errx.WithFields(errx.M{"sort_field": "must be one of: " + strings.Join(r.fieldNames(), " ")}),
			)
		}
	}

	if len(opts) == 0 {
		opts = slices.Clone(r.Default)
	}

	return opts.withTieBreaker(r.TieBreaker), nil
}

func (r Resolver) fieldNames() []string {
	names := make([]string, 0, len(r.Columns))
	for k := range r.Columns {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// withTieBreaker appends column ascending unless the order already sorts by it.
func (s SortOpts) withTieBreaker(column string) SortOpts {
	if column == "" {
		return s
	}
	for _, o := range s {
		if o.F == column {
			return s
		}
	}
	return append(s, Opt{F: column, D: Asc})
}

// Opt represents a single sorting option, consisting of a field and a direction.
type Opt struct {
	F string        // F is the field to sort by.
	D SortDirection // D is the sorting direction (asc or desc).
}

// ToSQL converts an Opt into an SQL-compatible clause (e.g., "name ASC").
func (o Opt) ToSQL() string {
	return o.F + " " + string(o.D)
}
