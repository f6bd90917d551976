package variant

import "strings"

// Filter is a MongoDB-style predicate node: keys are either a field
// path (value is a literal for equality, or an operator object) or one
// of the logical keys ($and, $or, $not, $nor) whose value is nested
// filter(s).
type Filter map[string]any

const (
	opAnd = "$and"
	opOr  = "$or"
	opNot = "$not"
	opNor = "$nor"
)

// RewriteResult is the output of Rewrite: the filter with shredded
// paths substituted in, the set of field paths that were (and were
// not) transformed, and the rewritten-key → original-key mapping so
// rewritten paths round-trip back to their inputs.
type RewriteResult struct {
	Filter        Filter
	Transformed   []string
	Untransformed []string
	Mapping       map[string]string
}

// OriginalKey maps a rewritten statistics path back to the leaf key
// the caller supplied.
func (r RewriteResult) OriginalKey(statsPath string) (string, bool) {
	orig, ok := r.Mapping[statsPath]
	return orig, ok
}

// Rewrite walks f and, for every leaf keyed "$column.field" (the "$"
// marks a variant-column access; a bare "column.field" key is accepted
// too) where column is configured for shredding and field is one of
// its shredded fields, replaces the key with the field's statistics
// path. Operator values and
// logical structure are preserved verbatim; unknown or non-variant
// keys pass through unchanged.
func Rewrite(f Filter, configs []ShredConfig) RewriteResult {
	r := &rewriter{byColumn: indexByColumn(configs), mapping: map[string]string{}}
	out := r.rewrite(f)
	return RewriteResult{Filter: out, Transformed: r.transformed, Untransformed: r.untransformed, Mapping: r.mapping}
}

func indexByColumn(configs []ShredConfig) map[string]ShredConfig {
	m := make(map[string]ShredConfig, len(configs))
	for _, c := range configs {
		m[c.Column] = c
	}
	return m
}

type rewriter struct {
	byColumn      map[string]ShredConfig
	transformed   []string
	untransformed []string
	mapping       map[string]string
}

func (r *rewriter) rewrite(f Filter) Filter {
	out := make(Filter, len(f))
	for key, val := range f {
		switch key {
		case opAnd, opOr, opNor:
			out[key] = r.rewriteList(val)
		case opNot:
			out[key] = r.rewriteOne(val)
		default:
			newKey := r.rewriteLeafKey(key)
			out[newKey] = val
		}
	}
	return out
}

func (r *rewriter) rewriteList(val any) any {
	list, ok := val.([]Filter)
	if !ok {
		return val
	}
	out := make([]Filter, len(list))
	for i, sub := range list {
		out[i] = r.rewrite(sub)
	}
	return out
}

func (r *rewriter) rewriteOne(val any) any {
	sub, ok := val.(Filter)
	if !ok {
		return val
	}
	return r.rewrite(sub)
}

func (r *rewriter) rewriteLeafKey(key string) string {
	column, field, ok := splitColumnField(strings.TrimPrefix(key, "$"))
	if !ok {
		r.untransformed = append(r.untransformed, key)
		return key
	}
	cfg, configured := r.byColumn[column]
	if !configured || !cfg.HasField(field) {
		r.untransformed = append(r.untransformed, key)
		return key
	}
	r.transformed = append(r.transformed, key)
	path := cfg.StatsPath(field)
	r.mapping[path] = key
	return path
}

func splitColumnField(key string) (column, field string, ok bool) {
	idx := strings.IndexByte(key, '.')
	if idx < 0 || idx == 0 || idx == len(key)-1 {
		return "", "", false
	}
	return key[:idx], key[idx+1:], true
}
