package inmemory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/query"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/google/uuid"
)

type documentRepo struct{ m *RepositoryManager }

func (r *documentRepo) Create(_ context.Context, doc *models.Document) error {
	if _, err := uuid.Parse(doc.ID); err != nil {
		return fmt.Errorf("%w: document id %q", common.ErrInvalidInput, doc.ID)
	}
	if len(doc.Data) == 0 {
		doc.Data = json.RawMessage(`{}`)
	}
	if doc.Permissions == nil {
		doc.Permissions = []string{}
	}

	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, exists := r.m.documents[doc.ID]; exists {
		return fmt.Errorf("db error: duplicate document %s", doc.ID)
	}
	now := time.Now()
	doc.CreatedAt, doc.UpdatedAt = now, now
	r.m.documents[doc.ID] = clone(doc)
	return nil
}

func (r *documentRepo) Get(_ context.Context, collection, id, readAs string) (*models.Document, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	d, ok := r.m.documents[id]
	if !ok || d.Collection != collection || !readable(d, readAs) {
		return nil, common.ErrorNotFound
	}
	return clone(d), nil
}

func (r *documentRepo) Update(_ context.Context, collection, id string, patch json.RawMessage) (*models.Document, error) {
	var p map[string]any
	if err := json.Unmarshal(patch, &p); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	d, ok := r.m.documents[id]
	if !ok || d.Collection != collection {
		return nil, common.ErrorNotFound
	}

	data := decode(d)
	for k, v := range p {
		data[k] = v
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	d.Data = b
	d.UpdatedAt = time.Now()
	return clone(d), nil
}

func (r *documentRepo) Delete(_ context.Context, collection, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	d, ok := r.m.documents[id]
	if !ok || d.Collection != collection {
		return common.ErrorNotFound
	}
	delete(r.m.documents, id)
	return nil
}

func (r *documentRepo) List(_ context.Context, collection, readAs string, qs []query.Query) ([]models.Document, int, error) {
	var (
		filters []query.Query
		orders  []query.Query
		limit   = -1
		offset  = 0
	)
	for _, q := range qs {
		if err := q.Validate(); err != nil {
			return nil, 0, fmt.Errorf("%w: %v", common.ErrInvalidQuery, err)
		}
		switch q.Method {
		case query.MethodOrderAsc, query.MethodOrderDesc:
			orders = append(orders, q)
		case query.MethodLimit:
			limit = q.N
		case query.MethodOffset:
			offset = q.N
		default:
			filters = append(filters, q)
		}
	}

	r.m.mu.Lock()
	matched := []*models.Document{}
	for _, d := range r.m.documents {
		if d.Collection != collection || !readable(d, readAs) {
			continue
		}
		data := decode(d)
		ok := true
		for _, f := range filters {
			m, err := match(d, data, f)
			if err != nil {
				r.m.mu.Unlock()
				return nil, 0, err
			}
			if !m {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, clone(d))
		}
	}
	r.m.mu.Unlock()

	if len(orders) == 0 {
		orders = []query.Query{query.OrderAsc(query.AttrCreatedAt)}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		for _, o := range orders {
			c := compare(sortKey(matched[i], o.Attribute), sortKey(matched[j], o.Attribute))
			if c == 0 {
				continue
			}
			if o.Method == query.MethodOrderDesc {
				return c > 0
			}
			return c < 0
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if limit >= 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	out := make([]models.Document, len(matched))
	for i, d := range matched {
		out[i] = *d
	}
	return out, total, nil
}

func match(d *models.Document, data map[string]any, q query.Query) (bool, error) {
	switch q.Method {
	case query.MethodEqual:
		v, err := textValue(d, data, q.Attribute)
		if err != nil {
			return false, err
		}
		return slices.Contains(q.Values, v), nil

	case query.MethodContains:
		if strings.HasPrefix(q.Attribute, "$") {
			return false, fmt.Errorf("%w: contains on %s", common.ErrInvalidQuery, q.Attribute)
		}
		arr, _ := data[q.Attribute].([]any)
		for _, item := range arr {
			s, ok := item.(string)
			if ok && slices.Contains(q.Values, s) {
				return true, nil
			}
		}
		return false, nil

	case query.MethodSearch:
		v, err := textValue(d, data, q.Attribute)
		if err != nil {
			return false, err
		}
		return strings.Contains(strings.ToLower(v), strings.ToLower(q.Values[0])), nil

	case query.MethodOr:
		for _, nested := range q.Queries {
			m, err := match(d, data, nested)
			if err != nil || m {
				return m, err
			}
		}
		return false, nil

	case query.MethodAnd:
		for _, nested := range q.Queries {
			m, err := match(d, data, nested)
			if err != nil || !m {
				return false, err
			}
		}
		return true, nil
	}
	return false, fmt.Errorf("%w: %s is not a filter", common.ErrInvalidQuery, q.Method)
}

func textValue(d *models.Document, data map[string]any, attr string) (string, error) {
	switch attr {
	case query.AttrID:
		return d.ID, nil
	case query.AttrCreatedAt, query.AttrUpdatedAt:
		return "", fmt.Errorf("%w: cannot filter on %s", common.ErrInvalidQuery, attr)
	}
	switch v := data[attr].(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case nil:
		return "", nil
	default:
		b, _ := json.Marshal(v)
		return string(b), nil
	}
}

func sortKey(d *models.Document, attr string) any {
	switch attr {
	case query.AttrID:
		return d.ID
	case query.AttrCreatedAt:
		return d.CreatedAt
	case query.AttrUpdatedAt:
		return d.UpdatedAt
	}
	return decode(d)[attr]
}

// compare orders nil first, then numbers, then strings, like jsonb.
func compare(a, b any) int {
	rank := func(v any) int {
		switch v.(type) {
		case nil:
			return 0
		case float64:
			return 1
		case string:
			return 2
		case time.Time:
			return 3
		default:
			return 4
		}
	}
	if ra, rb := rank(a), rank(b); ra != rb {
		return ra - rb
	}
	switch x := a.(type) {
	case float64:
		y := b.(float64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	case string:
		return strings.Compare(x, b.(string))
	case time.Time:
		return x.Compare(b.(time.Time))
	}
	return 0
}

func readable(d *models.Document, readAs string) bool {
	return readAs == "" || slices.Contains(d.Permissions, readAs)
}

func decode(d *models.Document) map[string]any {
	data := map[string]any{}
	_ = json.Unmarshal(d.Data, &data)
	return data
}

func clone(d *models.Document) *models.Document {
	c := *d
	c.Data = slices.Clone(d.Data)
	c.Permissions = slices.Clone(d.Permissions)
	return &c
}
