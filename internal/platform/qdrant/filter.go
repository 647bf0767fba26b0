package qdrant

import (
	"fmt"
	"sort"
	"strings"
)

// Filters arrive in the pinecone-style operator syntax and are translated to qdrant's
// must/should/must_not conditions. Supported: field equality, $eq, $ne, $in, $and, $or.
const (
	filterOpAnd = "$and"
	filterOpOr  = "$or"
	filterOpIn  = "$in"
	filterOpEq  = "$eq"
	filterOpNe  = "$ne"
)

type translatedFilter struct {
	Must    []any
	Should  []any
	MustNot []any
}

func (f translatedFilter) asMap() map[string]any {
	out := map[string]any{}
	if len(f.Must) > 0 {
		out["must"] = f.Must
	}
	if len(f.Should) > 0 {
		out["should"] = f.Should
	}
	if len(f.MustNot) > 0 {
		out["must_not"] = f.MustNot
	}
	return out
}

func (f *translatedFilter) merge(src translatedFilter) {
	f.Must = append(f.Must, src.Must...)
	f.Should = append(f.Should, src.Should...)
	f.MustNot = append(f.MustNot, src.MustNot...)
}

func translateFilterMap(filter map[string]any) (translatedFilter, error) {
	out := translatedFilter{}
	keys := make([]string, 0, len(filter))
	for key := range filter {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		value := filter[key]
		switch strings.ToLower(k) {
		case filterOpAnd, filterOpOr:
			items, ok := value.([]any)
			if !ok {
				return translatedFilter{}, opErr("filter_translate", OperationErrorValidation, fmt.Sprintf("operator %s expects array of objects", k), nil)
			}
			for _, item := range items {
				obj, ok := item.(map[string]any)
				if !ok {
					return translatedFilter{}, opErr("filter_translate", OperationErrorValidation, fmt.Sprintf("operator %s expects array of objects", k), nil)
				}
				sub, err := translateFilterMap(obj)
				if err != nil {
					return translatedFilter{}, err
				}
				if strings.EqualFold(k, filterOpAnd) {
					out.Must = append(out.Must, sub.asMap())
				} else {
					out.Should = append(out.Should, sub.asMap())
				}
			}
			continue
		}
		if strings.HasPrefix(k, "$") {
			return translatedFilter{}, opErr("filter_translate", OperationErrorUnsupportedFilter, fmt.Sprintf("unsupported top-level filter operator %q", k), nil)
		}
		part, err := translateFieldFilter(k, value)
		if err != nil {
			return translatedFilter{}, err
		}
		out.merge(part)
	}
	return out, nil
}

func translateFieldFilter(field string, value any) (translatedFilter, error) {
	out := translatedFilter{}
	ops, isOps := value.(map[string]any)
	if !isOps {
		scalar, ok := toScalarValue(value)
		if !ok {
			return out, opErr("filter_translate", OperationErrorValidation, fmt.Sprintf("field %q expects scalar value or operator object", field), nil)
		}
		out.Must = append(out.Must, matchCondition(field, scalar))
		return out, nil
	}

	names := make([]string, 0, len(ops))
	for op := range ops {
		names = append(names, op)
	}
	sort.Strings(names)
	for _, op := range names {
		switch strings.ToLower(strings.TrimSpace(op)) {
		case filterOpEq, filterOpNe:
			scalar, ok := toScalarValue(ops[op])
			if !ok {
				return translatedFilter{}, opErr("filter_translate", OperationErrorValidation, fmt.Sprintf("operator %s for field %q expects scalar value", op, field), nil)
			}
			if strings.EqualFold(op, filterOpEq) {
				out.Must = append(out.Must, matchCondition(field, scalar))
			} else {
				out.MustNot = append(out.MustNot, matchCondition(field, scalar))
			}
		case filterOpIn:
			values, ok := toScalarSlice(ops[op])
			if !ok || len(values) == 0 {
				return translatedFilter{}, opErr("filter_translate", OperationErrorValidation, fmt.Sprintf("operator %s for field %q expects a non-empty scalar array", op, field), nil)
			}
			out.Must = append(out.Must, map[string]any{
				"key":   field,
				"match": map[string]any{"any": values},
			})
		default:
			return translatedFilter{}, opErr("filter_translate", OperationErrorUnsupportedFilter, fmt.Sprintf("unsupported filter operator %q for field %q", op, field), nil)
		}
	}
	return out, nil
}

func matchCondition(key string, value any) map[string]any {
	return map[string]any{
		"key":   key,
		"match": map[string]any{"value": value},
	}
}

func toScalarSlice(value any) ([]any, bool) {
	switch typed := value.(type) {
	case []string:
		out := make([]any, 0, len(typed))
		for _, v := range typed {
			out = append(out, v)
		}
		return out, true
	case []any:
		out := make([]any, 0, len(typed))
		for _, v := range typed {
			scalar, ok := toScalarValue(v)
			if !ok {
				return nil, false
			}
			out = append(out, scalar)
		}
		return out, true
	default:
		return nil, false
	}
}

func toScalarValue(value any) (any, bool) {
	switch typed := value.(type) {
	case string, bool, int, int64, uint, uint64, float64:
		return typed, true
	case int32:
		return int(typed), true
	case float32:
		return float64(typed), true
	default:
		return nil, false
	}
}
