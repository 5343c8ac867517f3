package apifeatures

import (
	"encoding/json"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Columns maps the JSON field names a resource exposes to its database
// columns. Fields missing from the map can't be filtered, sorted or selected.
type Columns map[string]string

// primaryField is always selected so associations can still be loaded.
const primaryField = "id"

// Apply composes the directives onto tx and returns the still unexecuted query.
// A condition on an unknown field or with an unknown operator turns the whole
// query into one that matches nothing.
func (d Directives) Apply(tx *gorm.DB, cols Columns) *gorm.DB {
	for _, c := range d.conditions {
		col, ok := cols[c.Field]
		if !ok || !c.Known() {
			tx = tx.Where("1 = 0")
			continue
		}
		tx = tx.Where(condition(col, c))
	}

	for _, k := range d.sortKeys {
		col, ok := cols[k.Field]
		if !ok {
			continue
		}
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: k.Desc})
	}

	if d.projected {
		if len(d.include) > 0 {
			selected := []string{}
			if col, ok := cols[primaryField]; ok {
				selected = append(selected, col)
			}
			for _, f := range d.include {
				if col, ok := cols[f]; ok && f != primaryField {
					selected = append(selected, col)
				}
			}
			tx = tx.Select(selected)
		} else {
			for _, f := range d.exclude {
				// 関連のロードに主キーが必要なので、除外はレスポンス側で行う
				if col, ok := cols[f]; ok && f != primaryField {
					tx = tx.Omit(col)
				}
			}
		}
	}

	if d.paginated {
		tx = tx.Offset(d.skip).Limit(d.limit)
	}
	return tx
}

func condition(col string, c Condition) clause.Expression {
	column := clause.Column{Name: col}
	v := c.Values[len(c.Values)-1]
	switch c.Op {
	case OpIn:
		vals := make([]any, len(c.Values))
		for i, s := range c.Values {
			vals[i] = s
		}
		return clause.IN{Column: column, Values: vals}
	case OpGte:
		return clause.Gte{Column: column, Value: v}
	case OpGt:
		return clause.Gt{Column: column, Value: v}
	case OpLte:
		return clause.Lte{Column: column, Value: v}
	case OpLt:
		return clause.Lt{Column: column, Value: v}
	default:
		return clause.Eq{Column: column, Value: v}
	}
}

// Project reshapes loaded documents to the projection for the response.
// docs must marshal to a JSON object or an array of objects.
func (d Directives) Project(docs any) (any, error) {
	if !d.projected {
		return docs, nil
	}
	b, err := json.Marshal(docs)
	if err != nil {
		return nil, err
	}
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				d.shape(m)
			}
		}
	case map[string]any:
		d.shape(v)
	}
	return raw, nil
}

func (d Directives) shape(m map[string]any) {
	if len(d.include) > 0 {
		for k := range m {
			if k != primaryField && !slices.Contains(d.include, k) {
				delete(m, k)
			}
		}
		return
	}
	for _, f := range d.exclude {
		delete(m, f)
	}
}
