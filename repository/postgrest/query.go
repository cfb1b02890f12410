package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// QueryBuilder builds one PostgREST request.
type QueryBuilder struct {
	client  *Client
	table   string
	method  string
	columns string
	filters []string
	orders  []string
	params  []string
	limit   *int
	offset  *int
	body    []byte
	err     error
	headers map[string]string
}

// Select sets the projection, including embedded resources.
func (q *QueryBuilder) Select(columns string) *QueryBuilder {
	q.method = http.MethodGet
	q.columns = columns
	return q
}

// Insert posts rows and asks for them back.
func (q *QueryBuilder) Insert(data any) *QueryBuilder {
	q.method = http.MethodPost
	q.setBody(data)
	q.headers["Prefer"] = "return=representation"
	return q
}

// Update patches the filtered rows and asks for them back.
func (q *QueryBuilder) Update(data any) *QueryBuilder {
	q.method = http.MethodPatch
	q.setBody(data)
	q.headers["Prefer"] = "return=representation"
	return q
}

// Delete removes the filtered rows and asks for them back.
func (q *QueryBuilder) Delete() *QueryBuilder {
	q.method = http.MethodDelete
	q.headers["Prefer"] = "return=representation"
	return q
}

func (q *QueryBuilder) setBody(data any) {
	body, err := json.Marshal(data)
	if err != nil {
		q.err = fmt.Errorf("marshal body: %w", err)
		return
	}
	q.body = body
}

// Eq adds column = value.
func (q *QueryBuilder) Eq(column string, value any) *QueryBuilder {
	return q.filter(column, "eq", value)
}

// Gte adds column >= value.
func (q *QueryBuilder) Gte(column string, value any) *QueryBuilder {
	return q.filter(column, "gte", value)
}

// Lte adds column <= value.
func (q *QueryBuilder) Lte(column string, value any) *QueryBuilder {
	return q.filter(column, "lte", value)
}

func (q *QueryBuilder) filter(column, op string, value any) *QueryBuilder {
	q.filters = append(q.filters, column+"="+op+"."+url.QueryEscape(format(value)))
	return q
}

func format(value any) string {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Order appends an order term. Use OrderOn to order an embedded resource.
func (q *QueryBuilder) Order(column string, desc bool) *QueryBuilder {
	q.orders = append(q.orders, orderTerm(column, desc))
	return q
}

// OrderOn orders the rows of the embedded resource.
func (q *QueryBuilder) OrderOn(resource string, terms ...string) *QueryBuilder {
	q.params = append(q.params, resource+".order="+strings.Join(terms, ","))
	return q
}

func orderTerm(column string, desc bool) string {
	if desc {
		return column + ".desc"
	}
	return column + ".asc"
}

// Range selects rows offset..offset+limit-1.
func (q *QueryBuilder) Range(offset, limit int) *QueryBuilder {
	q.offset, q.limit = &offset, &limit
	return q
}

// Single asks for exactly one object; zero rows is reported as PGRST116.
func (q *QueryBuilder) Single() *QueryBuilder {
	q.headers["Accept"] = "application/vnd.pgrst.object+json"
	return q
}

// Execute sends the request and returns the body of a successful response.
func (q *QueryBuilder) Execute(ctx context.Context) ([]byte, error) {
	if q.err != nil {
		return nil, q.err
	}
	body, status, err := q.client.do(ctx, q.method, q.buildURL(), q.body, q.headers)
	if err != nil {
		return nil, err
	}
	if status >= http.StatusBadRequest {
		return nil, parseError(body, status)
	}
	return body, nil
}

// ExecuteInto executes and decodes the response into dest.
func (q *QueryBuilder) ExecuteInto(ctx context.Context, dest any) error {
	data, err := q.Execute(ctx)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s response: %w", q.table, err)
	}
	return nil
}

func (q *QueryBuilder) buildURL() string {
	u := q.client.restURL + "/" + url.PathEscape(q.table)

	params := make([]string, 0, len(q.filters)+4)
	if q.method == http.MethodGet || q.headers["Prefer"] != "" {
		params = append(params, "select="+url.QueryEscape(q.columns))
	}
	params = append(params, q.filters...)
	params = append(params, q.params...)
	if len(q.orders) > 0 {
		params = append(params, "order="+strings.Join(q.orders, ","))
	}
	if q.limit != nil {
		params = append(params, fmt.Sprintf("limit=%d", *q.limit))
	}
	if q.offset != nil && *q.offset > 0 {
		params = append(params, fmt.Sprintf("offset=%d", *q.offset))
	}
	if len(params) > 0 {
		u += "?" + strings.Join(params, "&")
	}
	return u
}
