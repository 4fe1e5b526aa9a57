package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/leapstack-labs/leishu/pkg/core"
	"github.com/leapstack-labs/leishu/pkg/keyword"
)

// ConditionRequest is one search clause as sent by clients.
type ConditionRequest struct {
	Field     string `json:"field"`
	Keyword   string `json:"keyword"`
	Logic     string `json:"logic"`
	MatchMode string `json:"matchMode"`
}

// Request is the canonical search request.
type Request struct {
	Conditions []ConditionRequest `json:"conditions"`
	Filters    map[string]any     `json:"filters"`
}

// BasicRequest is the single-box search form.
type BasicRequest struct {
	Query        string         `json:"query"`
	SearchField  string         `json:"search_field"`
	Filters      map[string]any `json:"filters"`
	SearchOption string         `json:"search_option"`
}

// AdvancedClause is one row of the advanced search form.
type AdvancedClause struct {
	Field        string `json:"field"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
	SearchOption string `json:"search_option"`
}

// AdvancedRequest is the multi-row search form.
type AdvancedRequest struct {
	Queries []AdvancedClause `json:"queries"`
	Filters map[string]any   `json:"filters"`
}

// basicFields are the search_field values of the basic form. There
// "title" names a heading and "literature" the document title.
var basicFields = map[string]core.Field{
	"":           core.FieldAll,
	"all_fields": core.FieldAll,
	"literature": core.FieldTitle,
	"author":     core.FieldAuthorName,
	"title":      core.FieldTitleName,
	"full_text":  core.FieldFullText,
}

// Request converts the basic form to the canonical request. An empty
// search field searches all fields.
func (b BasicRequest) Request() Request {
	field := b.SearchField
	if f, ok := basicFields[strings.ToLower(strings.TrimSpace(field))]; ok {
		field = string(f)
	}
	return Request{
		Conditions: []ConditionRequest{{Field: field, Keyword: b.Query, MatchMode: b.SearchOption}},
		Filters:    b.Filters,
	}
}

// Request converts the advanced form to the canonical request.
func (a AdvancedRequest) Request() Request {
	conds := make([]ConditionRequest, len(a.Queries))
	for i, q := range a.Queries {
		conds[i] = ConditionRequest{Field: q.Field, Keyword: q.Value, Logic: q.Operator, MatchMode: q.SearchOption}
	}
	return Request{Conditions: conds, Filters: a.Filters}
}

// Parse validates a request and converts it to a query.
//
// With strict set, conditions and filters on unknown fields are rejected.
// Otherwise they are passed through and dropped by the compiler.
func Parse(req Request, strict bool) (core.Query, error) {
	if len(req.Conditions) == 0 {
		return core.Query{}, core.NewRequestError("conditions", "at least one condition is required")
	}

	var q core.Query
	for i, c := range req.Conditions {
		cond, err := parseCondition(c, i, strict)
		if err != nil {
			return core.Query{}, err
		}
		q.Conditions = append(q.Conditions, cond)
	}

	filters, err := ParseFilters(req.Filters, strict)
	if err != nil {
		return core.Query{}, err
	}
	q.Filters = filters

	if q.HasWildcard() {
		return foldWildcard(q)
	}
	return q, nil
}

func parseCondition(c ConditionRequest, i int, strict bool) (core.Condition, error) {
	path := fmt.Sprintf("conditions[%d]", i)
	if strings.TrimSpace(c.Field) == "" {
		return core.Condition{}, core.NewRequestError(path+".field", "field is required")
	}
	kw := strings.TrimSpace(c.Keyword)
	if kw == "" {
		return core.Condition{}, core.NewRequestError(path+".keyword", "keyword is required")
	}

	field, known := core.ParseField(c.Field)
	if !known && strict {
		return core.Condition{}, core.NewRequestError(path+".field", "unknown field %q", c.Field)
	}
	logic, err := core.ParseLogic(c.Logic)
	if err != nil {
		return core.Condition{}, core.NewRequestError(path+".logic", "%v", err)
	}
	if i > 0 && logic == core.LogicNone {
		logic = core.LogicAnd
	}
	mode, err := core.ParseMatchMode(c.MatchMode)
	if err != nil {
		return core.Condition{}, core.NewRequestError(path+".matchMode", "%v", err)
	}

	if k := field.Kind(); k == core.KindText || k == core.KindWildcard {
		expr := keyword.Parse(kw)
		if expr.Empty() || (mode == core.MatchFuzzy && len(expr.Required()) == 0) {
			return core.Condition{}, core.NewRequestError(path+".keyword", "keyword %q has no searchable terms", c.Keyword)
		}
	}
	return core.Condition{Field: field, Keyword: kw, Logic: logic, Mode: mode}, nil
}

// foldWildcard keeps the single all_fields condition and turns tag
// conditions next to it into filters. Unknown fields only reach this point
// in lenient mode. They ride along as filters, which the compiler drops and
// reports like any unknown filter. Any other known field cannot be combined
// with an all-fields search.
func foldWildcard(q core.Query) (core.Query, error) {
	var (
		wildcard *core.Condition
		out      = core.Query{Filters: q.Filters}
	)
	for i, c := range q.Conditions {
		path := fmt.Sprintf("conditions[%d]", i)
		switch c.Field.Kind() {
		case core.KindWildcard:
			if wildcard != nil {
				return core.Query{}, core.NewRequestError(path+".field", "only one all_fields condition is allowed")
			}
			wildcard = &q.Conditions[i]
		case core.KindUnknown:
			out.Filters = append(out.Filters, core.Filter{Field: c.Field, Value: c.Keyword})
		case core.KindTag:
			if c.Logic == core.LogicOr {
				return core.Query{}, core.NewRequestError(path+".logic", "tag conditions of an all_fields search must use AND")
			}
			out.Filters = append(out.Filters, core.Filter{Field: c.Field, Value: c.Keyword})
		default:
			return core.Query{}, core.NewRequestError(path+".field", "%q cannot be combined with all_fields", c.Field)
		}
	}
	w := *wildcard
	w.Logic = core.LogicNone
	out.Conditions = []core.Condition{w}
	return out, nil
}

// ParseFilters decodes a loose filters object. Numbers and booleans are
// accepted and stringified, true becoming "1". Empty values are skipped.
// Filters are returned sorted by field for stable SQL.
func ParseFilters(raw map[string]any, strict bool) ([]core.Filter, error) {
	values, err := decodeFilters(raw)
	if err != nil {
		return nil, err
	}
	var out []core.Filter
	for key, v := range values {
		field, known := core.ParseField(key)
		if known && field.Kind() != core.KindTag {
			known = false
		}
		if !known && strict {
			return nil, core.NewRequestError("filters."+key, "unknown filter")
		}
		out = append(out, core.Filter{Field: field, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out, nil
}

func decodeFilters(raw map[string]any) (map[string]string, error) {
	var values map[string]string
	if err := mapstructure.WeakDecode(raw, &values); err != nil {
		return nil, core.NewRequestError("filters", "filter values must be strings, numbers or booleans")
	}
	for k, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			delete(values, k)
			continue
		}
		values[k] = v
	}
	return values, nil
}
