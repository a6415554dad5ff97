package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/session"
	"github.com/matzehuels/stagegraph/pkg/stage"
)

func buildAndTest() []stage.Stage {
	return []stage.Stage{
		{ID: 1, Name: "Build"},
		{ID: 2, Name: "Test", Children: []stage.Stage{
			{ID: 3, Name: "Unit"},
			{ID: 4, Name: "Integration"},
		}},
	}
}

type testServer struct {
	*httptest.Server
	store *session.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := session.NewMemoryStore()
	srv := New(Config{}, buildAndTest(), layout.Overrides{}, nil, store, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, store: store}
}

// client returns a browser-like client with its own cookie jar.
func (ts *testServer) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func do(t *testing.T, c *http.Client, method, url string, body io.Reader) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, body := do(t, ts.client(t), http.MethodGet, ts.URL+"/healthz", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","version":"dev"}`, string(body))
	assert.Empty(t, resp.Cookies(), "healthz must not create sessions")
}

func TestSessionCookie(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)

	resp, _ := do(t, c, http.MethodGet, ts.URL+"/api/selection", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 1, ts.store.Len())

	resp, _ = do(t, c, http.MethodGet, ts.URL+"/api/selection", nil)
	assert.Empty(t, resp.Cookies(), "existing session was replaced")
	assert.Equal(t, 1, ts.store.Len())
}

func TestClick(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		wantStatus int
		wantBody   string
	}{
		{"stage", "n_1", http.StatusOK, `{"reported":true,"click":{"name":"Build","id":1},"selected":"n_1"}`},
		{"child", "n_4", http.StatusOK, `{"reported":true,"click":{"name":"Integration","id":4},"selected":"n_4"}`},
		{"start", "s_-1", http.StatusOK, `{"reported":true,"click":{"name":"start","id":-1},"selected":"s_-1"}`},
		{"add", "a_-2", http.StatusOK, `{"reported":false}`},
		{"unknown", "n_99", http.StatusNotFound, ""},
		{"invalid", "bogus", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			resp, body := do(t, ts.client(t), http.MethodPost, ts.URL+ClickPrefix+tt.key, nil)

			require.Equal(t, tt.wantStatus, resp.StatusCode, string(body))
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, string(body))
				return
			}
			var e errorResponse
			require.NoError(t, json.Unmarshal(body, &e))
			assert.NotEmpty(t, e.Error)
			assert.NotEmpty(t, e.Code)
		})
	}
}

func TestClickAddKeepsSelection(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)

	do(t, c, http.MethodPost, ts.URL+ClickPrefix+"n_3", nil)
	_, body := do(t, c, http.MethodPost, ts.URL+ClickPrefix+"a_-3", nil)
	assert.JSONEq(t, `{"reported":false,"selected":"n_3"}`, string(body))
}

func TestSelectionIsPerSession(t *testing.T) {
	ts := newTestServer(t)
	alice, bob := ts.client(t), ts.client(t)

	do(t, alice, http.MethodPost, ts.URL+ClickPrefix+"n_1", nil)
	do(t, bob, http.MethodPost, ts.URL+ClickPrefix+"n_4", nil)

	var sel selectionResponse
	_, body := do(t, alice, http.MethodGet, ts.URL+"/api/selection", nil)
	require.NoError(t, json.Unmarshal(body, &sel))
	assert.Equal(t, "n_1", sel.Selected)
	require.NotNil(t, sel.Node)
	assert.Equal(t, "Build", sel.Node.Name)

	_, body = do(t, bob, http.MethodGet, ts.URL+"/api/selection", nil)
	require.NoError(t, json.Unmarshal(body, &sel))
	assert.Equal(t, "n_4", sel.Selected)

	_, body = do(t, ts.client(t), http.MethodGet, ts.URL+"/api/selection", nil)
	assert.JSONEq(t, `{}`, string(body))
}

func TestClearSelection(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)

	do(t, c, http.MethodPost, ts.URL+ClickPrefix+"n_1", nil)
	resp, _ := do(t, c, http.MethodDelete, ts.URL+"/api/selection", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, body := do(t, c, http.MethodGet, ts.URL+"/api/selection", nil)
	assert.JSONEq(t, `{}`, string(body))
}

func TestPutStages(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)
	do(t, c, http.MethodPost, ts.URL+ClickPrefix+"n_4", nil)

	same := `{"stages":[{"id":1,"name":"Build"},{"id":2,"name":"Test","children":[{"id":3,"name":"Unit"},{"id":4,"name":"Integration"}]}]}`
	resp, body := do(t, c, http.MethodPut, ts.URL+"/api/stages", strings.NewReader(same))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.JSONEq(t, `{"relayout":false,"stages":2,"nodes":7}`, string(body))

	resp, body = do(t, c, http.MethodPut, ts.URL+"/api/stages", strings.NewReader(`[{"id":1,"name":"Build"}]`))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.JSONEq(t, `{"relayout":true,"stages":1,"nodes":4}`, string(body))

	// n_4 is gone, so the stored selection is dropped.
	_, body = do(t, c, http.MethodGet, ts.URL+"/api/selection", nil)
	assert.JSONEq(t, `{}`, string(body))

	resp, _ = do(t, c, http.MethodPut, ts.URL+"/api/stages", strings.NewReader(`{"stages":`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGraphSVG(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)
	do(t, c, http.MethodPost, ts.URL+ClickPrefix+"n_3", nil)

	resp, body := do(t, c, http.MethodGet, ts.URL+"/graph.svg", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	svg := string(body)
	assert.Contains(t, svg, "<script")
	assert.Contains(t, svg, ClickPrefix)
	assert.Contains(t, svg, `class="pipeline-node-selected" transform="translate(300,50)"`)
}

func TestGraphDOT(t *testing.T) {
	ts := newTestServer(t)
	resp, body := do(t, ts.client(t), http.MethodGet, ts.URL+"/graph.dot?viz=nodelink", nil)

	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/vnd.graphviz"))
	assert.Contains(t, string(body), `"n_1" -> "n_3";`)
}

func TestGraphErrors(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)

	tests := []struct {
		path string
		code string
	}{
		{"/graph.gif", "INVALID_FORMAT"},
		{"/graph.dot", "INVALID_FORMAT"},
		{"/graph.svg?viz=radial", "INVALID_VIZ_TYPE"},
		{"/graph.png?scale=-1", "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := do(t, c, http.MethodGet, ts.URL+tt.path, nil)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
			var e errorResponse
			require.NoError(t, json.Unmarshal(body, &e))
			assert.Equal(t, tt.code, string(e.Code))
		})
	}
}

func TestLayoutAndScene(t *testing.T) {
	ts := newTestServer(t)
	c := ts.client(t)

	resp, body := do(t, c, http.MethodGet, ts.URL+"/api/layout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	m, err := layout.UnmarshalModel(body)
	require.NoError(t, err)
	assert.Len(t, m.Nodes, 7)

	do(t, c, http.MethodPost, ts.URL+ClickPrefix+"n_1", nil)
	resp, body = do(t, c, http.MethodGet, ts.URL+"/api/scene", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"selected": "n_1"`)
}

func TestIndex(t *testing.T) {
	ts := newTestServer(t)
	resp, body := do(t, ts.client(t), http.MethodGet, ts.URL+"/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `data="/graph.svg"`)
}

func TestUnknownSessionIsReplaced(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/selection", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "6f1c1c9e-3f0b-4bd4-9a43-1d2c1f0a9b77"})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.NotEqual(t, "6f1c1c9e-3f0b-4bd4-9a43-1d2c1f0a9b77", cookies[0].Value)
	assert.Equal(t, 1, ts.store.Len())
}
