package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Query is a fluent request against one table. Build it with Client.From,
// then finish with Execute, Single or MaybeSingle. A Query is not safe for
// concurrent use.
type Query struct {
	client     *Client
	table      string
	method     string
	columns    string
	selected   bool
	filters    []string
	orders     []string
	body       any
	upsert     bool
	onConflict string
}

// From starts a query on table. Without a write method it is a select.
func (c *Client) From(table string) *Query {
	return &Query{client: c, table: table, method: http.MethodGet}
}

// Select sets the returned columns. On a write it asks the service to
// return the affected rows.
func (q *Query) Select(columns string) *Query {
	if columns == "" {
		columns = "*"
	}
	q.columns = columns
	q.selected = true
	return q
}

// Eq filters rows where column equals value.
func (q *Query) Eq(column string, value any) *Query {
	q.filters = append(q.filters, column+"=eq."+fmt.Sprint(value))
	return q
}

// Order sorts by column. Calls accumulate.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.orders = append(q.orders, column+"."+dir)
	return q
}

// Insert adds rows, a single Row or a slice of rows.
func (q *Query) Insert(rows any) *Query {
	q.method = http.MethodPost
	q.body = rows
	return q
}

// Upsert inserts rows, merging with existing rows that collide on
// onConflict (the primary key when empty).
func (q *Query) Upsert(rows any, onConflict string) *Query {
	q.method = http.MethodPost
	q.body = rows
	q.upsert = true
	q.onConflict = onConflict
	return q
}

// Update sets values on every row matching the filters.
func (q *Query) Update(values Row) *Query {
	q.method = http.MethodPatch
	q.body = values
	return q
}

// Delete removes every row matching the filters.
func (q *Query) Delete() *Query {
	q.method = http.MethodDelete
	return q
}

func (q *Query) request() request {
	query := url.Values{}
	for _, f := range q.filters {
		col, val, _ := strings.Cut(f, "=")
		query.Add(col, val)
	}
	if len(q.orders) > 0 {
		query.Set("order", strings.Join(q.orders, ","))
	}
	if q.onConflict != "" {
		query.Set("on_conflict", q.onConflict)
	}

	headers := map[string]string{}
	var prefer []string
	if q.method == http.MethodGet {
		columns := q.columns
		if columns == "" {
			columns = "*"
		}
		query.Set("select", columns)
	} else if q.selected {
		query.Set("select", q.columns)
		prefer = append(prefer, "return=representation")
	} else {
		prefer = append(prefer, "return=minimal")
	}
	if q.upsert {
		prefer = append(prefer, "resolution=merge-duplicates")
	}
	if len(prefer) > 0 {
		headers["Prefer"] = strings.Join(prefer, ",")
	}

	return request{
		method:  q.method,
		path:    "/rest/v1/" + q.table,
		query:   query,
		body:    q.body,
		headers: headers,
	}
}

// Execute runs the query and returns the rows. Writes without Select
// return no rows.
func (q *Query) Execute(ctx context.Context) ([]Row, error) {
	data, err := q.client.do(ctx, q.request())
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var rows []Row
	if err := decodeJSON(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Single runs the query and requires exactly one row. Any other count is
// reported as a CodeNoRows error.
func (q *Query) Single(ctx context.Context) (Row, error) {
	rows, err := q.Execute(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, cardinalityError(len(rows))
	}
	return rows[0], nil
}

// MaybeSingle is like Single but returns a nil row and no error when
// nothing matched.
func (q *Query) MaybeSingle(ctx context.Context) (Row, error) {
	rows, err := q.Execute(ctx)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return rows[0], nil
	default:
		return nil, cardinalityError(len(rows))
	}
}

func cardinalityError(n int) *Error {
	return &Error{
		Status:  http.StatusNotAcceptable,
		Code:    CodeNoRows,
		Message: "JSON object requested, multiple (or no) rows returned",
		Details: fmt.Sprintf("The result contains %d rows", n),
	}
}
