// Package apifeatures turns URL query strings into filter, sort, projection
// and pagination directives for list endpoints.
//
// Directives is an immutable value: every stage returns a new value and
// leaves the receiver untouched. Nothing in this package executes a query;
// Apply composes the directives onto a *gorm.DB for the caller to run.
package apifeatures

import (
	"math"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 100

	// revisionField is the internal field hidden unless explicitly requested.
	revisionField = "revision"
)

// reservedKeys are query keys consumed by stages other than Filter.
var reservedKeys = []string{"page", "sort", "limit", "fields"}

// Op is a comparison operator in its prefixed form.
type Op string

const (
	OpEq  Op = "$eq"
	OpIn  Op = "$in"
	OpGte Op = "$gte"
	OpGt  Op = "$gt"
	OpLte Op = "$lte"
	OpLt  Op = "$lt"
)

// comparisonOps are the bracket tokens rewritten into their prefixed form.
var comparisonOps = map[string]Op{
	"gte": OpGte,
	"gt":  OpGt,
	"lte": OpLte,
	"lt":  OpLt,
}

// Condition is one filter predicate. Values are kept exactly as sent.
type Condition struct {
	Field  string
	Op     Op
	Values []string
}

// Known reports whether the operator is one this package can translate.
func (c Condition) Known() bool {
	switch c.Op {
	case OpEq, OpIn, OpGte, OpGt, OpLte, OpLt:
		return true
	}
	return false
}

// SortKey is one ordering criterion.
type SortKey struct {
	Field string
	Desc  bool
}

// Directives is the directive set derived from one query string.
type Directives struct {
	query url.Values

	filtered   bool
	conditions []Condition

	sortKeys []SortKey

	projected bool
	include   []string
	exclude   []string

	paginated bool
	skip      int
	limit     int
}

// New captures a copy of the query string. No stage has run yet.
func New(query url.Values) Directives {
	q := make(url.Values, len(query))
	for k, v := range query {
		q[k] = slices.Clone(v)
	}
	return Directives{query: q}
}

// Filter turns every non-reserved key into a condition. "field[op]=v" with
// op in gte/gt/lte/lt becomes a comparison; a bare key is an equality, or an
// $in condition when the key was repeated. Unrecognised operators are kept
// verbatim and never match anything once applied.
func (d Directives) Filter() Directives {
	keys := make([]string, 0, len(d.query))
	for k := range d.query {
		if slices.Contains(reservedKeys, k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]Condition, 0, len(keys))
	for _, k := range keys {
		vals := d.query[k]
		if len(vals) == 0 {
			continue
		}
		field, rawOp, bracketed := splitBracket(k)
		c := Condition{Field: field, Values: slices.Clone(vals)}
		switch {
		case !bracketed && len(vals) > 1:
			c.Op = OpIn
		case !bracketed:
			c.Op = OpEq
		default:
			if op, ok := comparisonOps[rawOp]; ok {
				c.Op = op
			} else {
				c.Op = Op(rawOp)
			}
			c.Values = vals[len(vals)-1:]
		}
		conds = append(conds, c)
	}

	d.filtered = true
	d.conditions = conds
	return d
}

// Sort reads the comma separated sort key list; a leading "-" sorts descending.
func (d Directives) Sort() Directives {
	raw := last(d.query["sort"])
	if raw == "" {
		d.sortKeys = nil
		return d
	}
	var keys []SortKey
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		desc := strings.HasPrefix(tok, "-")
		tok = strings.TrimPrefix(tok, "-")
		if tok == "" {
			continue
		}
		keys = append(keys, SortKey{Field: tok, Desc: desc})
	}
	d.sortKeys = keys
	return d
}

// LimitFields projects the listed fields. A list made only of "-field"
// tokens hides those fields instead; the internal revision counter stays
// hidden unless explicitly requested. In a mixed list the "-" tokens are
// ignored.
func (d Directives) LimitFields() Directives {
	d.projected = true
	d.include, d.exclude = nil, nil

	var hidden []string
	raw := last(d.query["fields"])
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if name, ok := strings.CutPrefix(tok, "-"); ok {
			if name = strings.TrimSpace(name); name != "" && !slices.Contains(hidden, name) {
				hidden = append(hidden, name)
			}
			continue
		}
		if tok != "" && !slices.Contains(d.include, tok) {
			d.include = append(d.include, tok)
		}
	}
	if len(d.include) > 0 {
		return d
	}
	d.exclude = hidden
	if !slices.Contains(d.exclude, revisionField) {
		d.exclude = append(d.exclude, revisionField)
	}
	return d
}

// Paginate computes skip and limit. Missing, non-numeric and non-positive
// values fall back to the defaults; fractions are truncated. There is no
// upper bound on limit.
func (d Directives) Paginate() Directives {
	page := positiveInt(last(d.query["page"]), DefaultPage)
	limit := positiveInt(last(d.query["limit"]), DefaultLimit)

	d.paginated = true
	d.limit = limit
	d.skip = (page - 1) * limit
	return d
}

// Conditions returns the filter conditions, sorted by key.
func (d Directives) Conditions() []Condition {
	out := make([]Condition, len(d.conditions))
	for i, c := range d.conditions {
		c.Values = slices.Clone(c.Values)
		out[i] = c
	}
	return out
}

// SortKeys returns the ordering, or nil for the engine's default order.
func (d Directives) SortKeys() []SortKey { return slices.Clone(d.sortKeys) }

// Fields returns the explicitly requested fields.
func (d Directives) Fields() []string { return slices.Clone(d.include) }

// Excluded returns the hidden fields.
func (d Directives) Excluded() []string { return slices.Clone(d.exclude) }

// Skip returns the number of rows to skip.
func (d Directives) Skip() int { return d.skip }

// Limit returns the page size, or 0 when Paginate has not run.
func (d Directives) Limit() int { return d.limit }

// Key is a canonical encoding of the directives, usable as a cache key.
func (d Directives) Key() string {
	var b strings.Builder
	if d.filtered {
		b.WriteString("f")
		for _, c := range d.conditions {
			b.WriteString("|" + c.Field + string(c.Op) + strings.Join(c.Values, ","))
		}
	}
	if len(d.sortKeys) > 0 {
		b.WriteString(";s")
		for _, k := range d.sortKeys {
			if k.Desc {
				b.WriteString("|-" + k.Field)
			} else {
				b.WriteString("|" + k.Field)
			}
		}
	}
	if d.projected {
		b.WriteString(";p|" + strings.Join(d.include, ",") + "|-" + strings.Join(d.exclude, ","))
	}
	if d.paginated {
		b.WriteString(";o|" + strconv.Itoa(d.skip) + "|" + strconv.Itoa(d.limit))
	}
	return b.String()
}

// splitBracket splits "duration[gte]" into ("duration", "gte", true).
func splitBracket(key string) (field, op string, ok bool) {
	i := strings.IndexByte(key, '[')
	if i <= 0 || !strings.HasSuffix(key, "]") {
		return key, "", false
	}
	return key[:i], key[i+1 : len(key)-1], true
}

func last(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[len(vals)-1]
}

func positiveInt(raw string, def int) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	// keeps (page-1)*limit inside int64
	f = math.Min(f, math.MaxInt32)
	n := int(f)
	if n <= 0 {
		return def
	}
	return n
}
