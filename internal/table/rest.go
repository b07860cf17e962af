package table

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/JonMunkholm/colleges/internal/config"
)

// APIError is a failed response from the REST endpoint. Code, Message,
// Details and Hint mirror the PostgREST error body.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details"`
	Hint       string `json:"hint"`
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "table api status %d", e.StatusCode)
	if e.Code != "" {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Details != "" {
		b.WriteString(" (" + e.Details + ")")
	}
	return b.String()
}

// REST talks to a PostgREST table endpoint.
type REST struct {
	http   *resty.Client
	schema string
	table  string
}

// NewREST builds a client for cfg.Name under cfg.URL. A schema-qualified
// name ("private.colleges") selects the schema through profile headers.
func NewREST(cfg config.TableConfig) *REST {
	schema, name := splitName(cfg.Name)

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")+"/rest/v1").
		SetTimeout(cfg.Timeout).
		SetHeader("apikey", cfg.Key).
		SetAuthToken(cfg.Key).
		SetHeader("Accept", "application/json").
		OnAfterResponse(logResponse)

	return &REST{http: client, schema: schema, table: name}
}

func (c *REST) path() string {
	return "/" + url.PathEscape(c.table)
}

func (c *REST) request(ctx context.Context) *resty.Request {
	req := c.http.R().
		SetContext(ctx).
		SetError(&APIError{})
	if c.schema != "" {
		req.SetHeader("Accept-Profile", c.schema).
			SetHeader("Content-Profile", c.schema)
	}
	return req
}

// Delete implements Client.
func (c *REST) Delete(ctx context.Context, f Filter) (Response, error) {
	var data []Row
	res, err := c.request(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam(f.Column, string(f.Op)+"."+f.Value).
		SetResult(&data).
		Delete(c.path())
	if err := checkResponse("delete from "+c.table, res, err); err != nil {
		return Response{}, err
	}
	return Response{Data: data}, nil
}

// Insert implements Client. All rows go out in one request body.
func (c *REST) Insert(ctx context.Context, rows ...Row) (Response, error) {
	var data []Row
	res, err := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=representation").
		SetBody(rows).
		SetResult(&data).
		Post(c.path())
	if err := checkResponse("insert into "+c.table, res, err); err != nil {
		return Response{}, err
	}
	return Response{Data: data}, nil
}

// Select implements Client. With CountExact only the count is requested
// (a HEAD request) and Data is empty.
func (c *REST) Select(ctx context.Context, columns string, count CountMode) (Response, error) {
	req := c.request(ctx).SetQueryParam("select", columns)

	if count == CountExact {
		res, err := req.SetHeader("Prefer", "count=exact").Head(c.path())
		if err := checkResponse("count "+c.table, res, err); err != nil {
			return Response{}, err
		}
		total, err := parseContentRange(res.Header().Get("Content-Range"))
		if err != nil {
			return Response{}, fmt.Errorf("count %s: %w", c.table, err)
		}
		return Response{Count: total}, nil
	}

	var data []Row
	res, err := req.SetResult(&data).Get(c.path())
	if err := checkResponse("select from "+c.table, res, err); err != nil {
		return Response{}, err
	}
	return Response{Data: data}, nil
}

// Close implements Client. HTTP connections need no explicit release.
func (c *REST) Close() {}

// logResponse records request details for every table call that got a
// response.
func logResponse(_ *resty.Client, res *resty.Response) error {
	slog.Debug("table request",
		"method", res.Request.Method,
		"url", res.Request.URL,
		"status", res.StatusCode(),
		"duration_ms", res.Time().Milliseconds(),
	)
	return nil
}

func checkResponse(op string, res *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !res.IsError() {
		return nil
	}

	apiErr, ok := res.Error().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{}
	}
	apiErr.StatusCode = res.StatusCode()
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(res.String())
	}
	return fmt.Errorf("%s: %w", op, apiErr)
}

// parseContentRange extracts the total from a "0-24/3573" or "*/3573"
// header. An empty header or a "*" total yields nil.
func parseContentRange(h string) (*int64, error) {
	if h == "" {
		return nil, nil
	}
	i := strings.LastIndexByte(h, '/')
	if i < 0 {
		return nil, fmt.Errorf("malformed Content-Range %q", h)
	}
	total := h[i+1:]
	if total == "*" {
		return nil, nil
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed Content-Range %q: %w", h, err)
	}
	return &n, nil
}

// splitName separates an optional schema prefix from a table name.
func splitName(name string) (schema, table string) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}
