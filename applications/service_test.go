package applications

import (
	"context"
	"errors"
	"io"
	nethttp "net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/licence-admin/apiclient"
	"github.com/gaborage/licence-admin/logger"
)

type call struct {
	method string
	path   string
	params apiclient.Params
	body   any
}

// stubClient answers from a table keyed by "METHOD path"
type stubClient struct {
	mu        sync.Mutex
	calls     []call
	responses map[string]string
	errs      map[string]error
}

func (c *stubClient) Get(ctx context.Context, path string, params apiclient.Params) (*apiclient.Result, error) {
	return c.Do(ctx, nethttp.MethodGet, path, params, nil)
}

func (c *stubClient) Put(ctx context.Context, path string, body any) (*apiclient.Result, error) {
	return c.Do(ctx, nethttp.MethodPut, path, nil, body)
}

func (c *stubClient) Do(_ context.Context, method, path string, params apiclient.Params, body any) (*apiclient.Result, error) {
	c.mu.Lock()
	c.calls = append(c.calls, call{method: method, path: path, params: params, body: body})
	c.mu.Unlock()

	key := method + " " + path
	if err := c.errs[key]; err != nil {
		return nil, err
	}
	return resultFromBody(c.responses[key]), nil
}

func (c *stubClient) callsTo(path string) []call {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []call
	for _, cl := range c.calls {
		if cl.path == path {
			out = append(out, cl)
		}
	}
	return out
}

// resultFromBody runs body through a real client so the Result is built the
// same way production code builds it.
func resultFromBody(body string) *apiclient.Result {
	client := apiclient.NewBuilder(logger.Nop()).
		WithBaseURL("http://stub.test").
		WithTransport(roundTripperFunc(func(req *nethttp.Request) (*nethttp.Response, error) {
			return &nethttp.Response{
				StatusCode: nethttp.StatusOK,
				Header:     nethttp.Header{},
				Body:       io.NopCloser(strings.NewReader(body)),
				Request:    req,
			}, nil
		})).
		Build()
	res, err := client.Get(context.Background(), "/", nil)
	if err != nil {
		panic(err)
	}
	return res
}

type roundTripperFunc func(*nethttp.Request) (*nethttp.Response, error)

func (f roundTripperFunc) RoundTrip(req *nethttp.Request) (*nethttp.Response, error) {
	return f(req)
}

const listBody = `{"applications":[{"id":1,"application_id":"DL-1","full_name":"Amara Perera","status":"pending"},
{"id":2,"application_id":"DL-2","full_name":"Kasun Silva","status":"approved","admin_status":"verified"}],"totalPages":4,"totalItems":32}`

func TestServiceList(t *testing.T) {
	client := &stubClient{responses: map[string]string{"GET /applications": listBody}}
	svc := NewService(client, nil)

	q := DefaultListQuery()
	q.Status = StatusPending
	res, err := svc.List(context.Background(), q)
	require.NoError(t, err)

	require.Len(t, res.Applications, 2)
	assert.Equal(t, "Kasun Silva", res.Applications[1].FullName)
	assert.Equal(t, AdminVerified, res.Applications[1].AdminStatus)
	assert.Equal(t, 4, res.TotalPages)
	assert.Equal(t, 32, res.TotalItems)

	calls := client.callsTo(applicationsPath)
	require.Len(t, calls, 1)
	assert.Equal(t, "pending", calls[0].params["status"])
	assert.Equal(t, 1, calls[0].params["page"])
}

func TestServiceList_NormalizesAndValidates(t *testing.T) {
	client := &stubClient{responses: map[string]string{"GET /applications": `{}`}}
	svc := NewService(client, nil)

	res, err := svc.List(context.Background(), ListQuery{})
	require.NoError(t, err)
	assert.NotNil(t, res.Applications)
	assert.Empty(t, res.Applications)
	assert.Equal(t, 10, client.callsTo(applicationsPath)[0].params["limit"])

	_, err = svc.List(context.Background(), ListQuery{Status: "lost"})
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Len(t, client.callsTo(applicationsPath), 1, "invalid query must not reach the backend")
}

func TestServiceList_DecodeError(t *testing.T) {
	client := &stubClient{responses: map[string]string{"GET /applications": `{"applications":"nope"}`}}
	_, err := NewService(client, nil).List(context.Background(), DefaultListQuery())
	assert.ErrorContains(t, err, "decode applications")
}

func TestServiceStats(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Stats
	}{
		{"full", `{"stats":{"total":9,"pending":3,"approved":4,"rejected":2}}`, Stats{9, 3, 4, 2}},
		{"partial", `{"stats":{"total":5}}`, Stats{Total: 5}},
		{"missing stats", `{}`, Stats{}},
		{"empty body", ``, Stats{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubClient{responses: map[string]string{"GET /applications/stats": tt.body}}
			got, err := NewService(client, nil).Stats(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServiceUpdate(t *testing.T) {
	t.Run("sends only set fields to the escaped path", func(t *testing.T) {
		client := &stubClient{responses: map[string]string{
			"PUT /applications/DL%2F7": `{"id":7,"application_id":"DL/7","status":"approved"}`,
		}}
		svc := NewService(client, nil)

		status := StatusApproved
		app, err := svc.Update(context.Background(), " DL/7 ", UpdateRequest{Status: &status})
		require.NoError(t, err)
		require.NotNil(t, app)
		assert.Equal(t, StatusApproved, app.Status)

		calls := client.callsTo("/applications/DL%2F7")
		require.Len(t, calls, 1)
		assert.Equal(t, nethttp.MethodPut, calls[0].method)
		assert.Equal(t, UpdateRequest{Status: &status}, calls[0].body)
	})

	t.Run("empty acknowledgement", func(t *testing.T) {
		client := &stubClient{responses: map[string]string{"PUT /applications/DL-1": ""}}
		app, err := NewService(client, nil).Update(context.Background(), "DL-1", UpdateRequest{})
		assert.NoError(t, err)
		assert.Nil(t, app)
	})

	t.Run("missing id", func(t *testing.T) {
		client := &stubClient{}
		_, err := NewService(client, nil).Update(context.Background(), "  ", UpdateRequest{})
		assert.ErrorIs(t, err, ErrMissingApplicationID)
		assert.Empty(t, client.calls)
	})

	t.Run("invalid request", func(t *testing.T) {
		client := &stubClient{}
		email := "nope"
		_, err := NewService(client, nil).Update(context.Background(), "DL-1", UpdateRequest{Email: &email})
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
		assert.Empty(t, client.calls)
	})

	t.Run("backend failure is returned as is", func(t *testing.T) {
		backendErr := &apiclient.RequestError{Attempts: 3, Err: errors.New("boom")}
		client := &stubClient{errs: map[string]error{"PUT /applications/DL-1": backendErr}}
		_, err := NewService(client, nil).Update(context.Background(), "DL-1", UpdateRequest{})
		assert.Same(t, backendErr, err)
	})
}

func TestServiceLoad(t *testing.T) {
	t.Run("list and stats", func(t *testing.T) {
		client := &stubClient{responses: map[string]string{
			"GET /applications":       listBody,
			"GET /applications/stats": `{"stats":{"total":32,"pending":10,"approved":12,"rejected":5}}`,
		}}
		q := DefaultListQuery()
		q.Page = 2

		d, err := NewService(client, nil).Load(context.Background(), q)
		require.NoError(t, err)
		assert.Len(t, d.Applications, 2)
		assert.Equal(t, Pagination{CurrentPage: 2, TotalPages: 4, TotalItems: 32, HasPrev: true, HasNext: true}, d.Pagination)
		assert.Equal(t, 32, d.Stats.Total)
		assert.NoError(t, d.StatsErr)
	})

	t.Run("stats failure is not fatal", func(t *testing.T) {
		statsErr := errors.New("stats down")
		client := &stubClient{
			responses: map[string]string{"GET /applications": listBody},
			errs:      map[string]error{"GET /applications/stats": statsErr},
		}

		d, err := NewService(client, nil).Load(context.Background(), DefaultListQuery())
		require.NoError(t, err)
		assert.Len(t, d.Applications, 2)
		assert.Equal(t, Stats{}, d.Stats)
		assert.ErrorIs(t, d.StatsErr, statsErr)
	})

	t.Run("list failure fails the load", func(t *testing.T) {
		listErr := errors.New("list down")
		client := &stubClient{
			responses: map[string]string{"GET /applications/stats": `{"stats":{}}`},
			errs:      map[string]error{"GET /applications": listErr},
		}

		d, err := NewService(client, nil).Load(context.Background(), DefaultListQuery())
		assert.ErrorIs(t, err, listErr)
		assert.Nil(t, d)
	})
}

func TestServiceUpdateAndReload(t *testing.T) {
	t.Run("reloads after success", func(t *testing.T) {
		client := &stubClient{responses: map[string]string{
			"PUT /applications/DL-1":  `{"id":1,"application_id":"DL-1","status":"rejected"}`,
			"GET /applications":       listBody,
			"GET /applications/stats": `{"stats":{"total":32}}`,
		}}

		status := StatusRejected
		app, d, err := NewService(client, nil).UpdateAndReload(context.Background(), "DL-1", UpdateRequest{Status: &status}, DefaultListQuery())
		require.NoError(t, err)
		assert.Equal(t, StatusRejected, app.Status)
		assert.Len(t, d.Applications, 2)

		require.NotEmpty(t, client.calls)
		assert.Equal(t, nethttp.MethodPut, client.calls[0].method, "update must happen before the reload")
	})

	t.Run("failed reload keeps the update", func(t *testing.T) {
		listErr := errors.New("list down")
		client := &stubClient{
			responses: map[string]string{
				"PUT /applications/DL-1":  `{"id":1,"application_id":"DL-1","status":"approved"}`,
				"GET /applications/stats": `{"stats":{}}`,
			},
			errs: map[string]error{"GET /applications": listErr},
		}

		status := StatusApproved
		app, d, err := NewService(client, nil).UpdateAndReload(context.Background(), "DL-1", UpdateRequest{Status: &status}, DefaultListQuery())
		require.Error(t, err)
		assert.ErrorIs(t, err, listErr)
		assert.Nil(t, d)

		var reloadErr *ReloadError
		require.ErrorAs(t, err, &reloadErr)
		assert.Equal(t, "reload after update: list down", err.Error())
		require.NotNil(t, app)
		assert.Equal(t, StatusApproved, app.Status)
	})

	t.Run("no reload after failed update", func(t *testing.T) {
		client := &stubClient{errs: map[string]error{"PUT /applications/DL-1": errors.New("rejected")}}

		_, d, err := NewService(client, nil).UpdateAndReload(context.Background(), "DL-1", UpdateRequest{}, DefaultListQuery())
		assert.Error(t, err)
		var reloadErr *ReloadError
		assert.False(t, errors.As(err, &reloadErr))
		assert.Nil(t, d)
		assert.Len(t, client.calls, 1)
	})
}
