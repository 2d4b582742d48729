package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// APIError is a non-2xx answer from the REST backend.
type APIError struct {
	Method     string
	Table      string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("store: %s %s: status %d: %s", e.Method, e.Table, e.StatusCode, strings.TrimSpace(e.Body))
}

// REST talks to a PostgREST endpoint such as a hosted Supabase project.
type REST struct {
	client *resty.Client
}

// NewREST returns a client for the project at baseURL authenticated with key.
// hc may be nil.
func NewREST(baseURL, key string, hc *http.Client) *REST {
	var c *resty.Client
	if hc != nil {
		c = resty.NewWithClient(hc)
	} else {
		c = resty.New().SetTimeout(30 * time.Second)
	}
	c.SetBaseURL(strings.TrimRight(baseURL, "/")+"/rest/v1").
		SetHeader("apikey", key).
		SetAuthToken(key).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &REST{client: c}
}

func (r *REST) Insert(ctx context.Context, table string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	if err := checkIdent(table); err != nil {
		return err
	}
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=minimal").
		SetBody(rows).
		Post("/" + table)
	return checkResponse(http.MethodPost, table, resp, err)
}

func (r *REST) Upsert(ctx context.Context, table string, rows []Row, onConflict string) error {
	if len(rows) == 0 {
		return nil
	}
	if err := checkIdent(table, onConflict); err != nil {
		return err
	}
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "resolution=merge-duplicates,return=minimal").
		SetQueryParam("on_conflict", onConflict).
		SetBody(rows).
		Post("/" + table)
	return checkResponse(http.MethodPost, table, resp, err)
}

func (r *REST) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	if err := checkIdent(table); err != nil {
		return nil, err
	}
	req := r.client.R().SetContext(ctx)
	sel := "*"
	if len(q.Columns) > 0 {
		if err := checkIdent(q.Columns...); err != nil {
			return nil, err
		}
		sel = strings.Join(q.Columns, ",")
	}
	req.SetQueryParam("select", sel)
	if q.OrderBy != "" {
		if err := checkIdent(q.OrderBy); err != nil {
			return nil, err
		}
		dir := "asc"
		if q.Desc {
			dir = "desc"
		}
		req.SetQueryParam("order", q.OrderBy+"."+dir)
	}
	if q.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(q.Limit))
	}
	for _, f := range q.Filters {
		if err := checkIdent(f.Column); err != nil {
			return nil, err
		}
		req.SetQueryParam(f.Column, "eq."+fmt.Sprint(f.Value))
	}
	resp, err := req.Get("/" + table)
	if err := checkResponse(http.MethodGet, table, resp, err); err != nil {
		return nil, err
	}
	var out []Row
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", table, err)
	}
	return out, nil
}

func (r *REST) Close() error { return nil }

func checkResponse(method, table string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("store: %s %s: %w", method, table, err)
	}
	if resp.IsError() {
		return &APIError{Method: method, Table: table, StatusCode: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}
