package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/gamebook"
	gbhttp "github.com/aretw0/gamebook/pkg/adapters/http"
	"github.com/aretw0/gamebook/pkg/adapters/memory"
	"github.com/aretw0/gamebook/pkg/domain"
	"github.com/aretw0/gamebook/pkg/notation"
	"github.com/aretw0/gamebook/pkg/observability"
	"github.com/aretw0/gamebook/pkg/pathfind"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, opts ...gbhttp.Option) (*gamebook.Engine, http.Handler) {
	t.Helper()
	var srv *gbhttp.Server
	hooks := domain.LifecycleHooks{
		OnSessionChanged: func(ctx context.Context, d *domain.SessionDiff) {
			srv.Hooks().OnSessionChanged(ctx, d)
		},
	}
	eng := gamebook.New(memory.NewStore(), gamebook.WithLifecycleHooks(hooks))
	srv = gbhttp.NewServer(eng, opts...)
	return eng, srv.Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	_, h := newServer(t)
	w := do(t, h, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSessionLifecycle(t *testing.T) {
	_, h := newServer(t)

	w := do(t, h, "POST", "/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created["id"]
	require.NotEmpty(t, id)
	assert.Equal(t, "/sessions/"+id, w.Header().Get("Location"))

	w = do(t, h, "GET", "/sessions", "")
	assert.JSONEq(t, `{"sessions":["`+id+`"]}`, w.Body.String())

	w = do(t, h, "DELETE", "/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, "GET", "/sessions", "")
	assert.JSONEq(t, `{"sessions":[]}`, w.Body.String())

	w = do(t, h, "GET", "/sessions/"+id+"/nodes", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddLinesAndQuery(t *testing.T) {
	_, h := newServer(t)

	w := do(t, h, "POST", "/sessions/s1/lines?tag=opened+door", "1,2+,3\n2,3\n3,4t\noops")
	require.Equal(t, http.StatusOK, w.Code)
	var batch notation.BatchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &batch))
	assert.Equal(t, 4, batch.Lines)
	assert.Len(t, batch.Errors, 1)

	w = do(t, h, "GET", "/sessions/s1/nodes", "")
	require.Equal(t, http.StatusOK, w.Code)
	var nodes []domain.NodeView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &nodes))
	assert.Contains(t, nodes, domain.NodeView{ID: "2", Role: domain.RoleRequired})
	assert.Contains(t, nodes, domain.NodeView{ID: "4", Role: domain.RoleEnd})

	w = do(t, h, "GET", "/sessions/s1/edges", "")
	require.Equal(t, http.StatusOK, w.Code)
	var edges []domain.EdgeView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &edges))
	require.Len(t, edges, 4)
	assert.Equal(t, "opened door", edges[1].Tag)

	w = do(t, h, "GET", "/sessions/s1/path", "")
	require.Equal(t, http.StatusOK, w.Code)
	var res pathfind.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, []string{"1", "2", "3", "4"}, res.Path)

	w = do(t, h, "GET", "/sessions/s1/graph.mmd?path=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "graph TD\n"))
	assert.Contains(t, w.Body.String(), "Path Overlay")
}

func TestPathErrors(t *testing.T) {
	_, h := newServer(t)

	do(t, h, "POST", "/sessions/no-end/lines", "1,2")
	w := do(t, h, "GET", "/sessions/no-end/path", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	do(t, h, "POST", "/sessions/split/lines", "1,2t\n5,6")
	w = do(t, h, "GET", "/sessions/split/path?start=5&end=2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no path found")
}

func TestPathBudgetExceeded(t *testing.T) {
	store := memory.NewStore()
	eng := gamebook.New(store, gamebook.WithMaxSteps(1))
	h := gbhttp.NewHandler(eng)

	do(t, h, "POST", "/sessions/s1/lines", "S,X\nX,R+\nR,T\nS,Tt")
	w := do(t, h, "GET", "/sessions/s1/path?start=S&end=T", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "search budget exceeded")
}

func TestImportExport(t *testing.T) {
	_, h := newServer(t)

	csv := "from,to,chosen,tag,is_secret\n1,2,False,,False\n1,3,True,,True\n3,4,True,End,False\n"
	w := do(t, h, "PUT", "/sessions/s1/edges", csv)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, h, "GET", "/sessions/s1/edges.csv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, csv, w.Body.String())
}

func TestRateLimit(t *testing.T) {
	_, h := newServer(t, gbhttp.WithRateLimit(0.001, 1))

	assert.Equal(t, http.StatusOK, do(t, h, "GET", "/sessions", "").Code)
	w := do(t, h, "GET", "/sessions", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Health is never limited
	assert.Equal(t, http.StatusOK, do(t, h, "GET", "/health", "").Code)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	eng := gamebook.New(memory.NewStore(), gamebook.WithLifecycleHooks(metrics.Hooks()))
	h := gbhttp.NewHandler(eng, gbhttp.WithGatherer(reg))

	do(t, h, "POST", "/sessions/s1/lines", "1,2,3")

	w := do(t, h, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gamebook_lines_parsed_total 1")
	assert.Contains(t, w.Body.String(), "gamebook_edges_added_total 2")
}

func TestSubscribeEvents(t *testing.T) {
	_, h := newServer(t)
	ts := httptest.NewServer(h)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", ts.URL+"/sessions/s1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		for lines.Scan() {
			if strings.HasPrefix(lines.Text(), "data: ") {
				return strings.TrimPrefix(lines.Text(), "data: ")
			}
		}
		return ""
	}
	// The ping is written after Subscribe, so the stream is registered
	require.Equal(t, "connected", next())

	post, err := http.Post(ts.URL+"/sessions/s1/lines", "text/plain", strings.NewReader("1,2"))
	require.NoError(t, err)
	post.Body.Close()

	var diff domain.SessionDiff
	require.NoError(t, json.Unmarshal([]byte(next()), &diff))
	assert.Equal(t, "s1", diff.SessionID)
	assert.Equal(t, []domain.Edge{{From: "1", To: "2", Chosen: true}}, diff.Appended)
}

func TestStreamManager(t *testing.T) {
	sm := gbhttp.NewStreamManager()
	ch, cancel := sm.Subscribe("s1")
	assert.Equal(t, 1, sm.Subscribers("s1"))

	sm.Broadcast("s1", "hello")
	sm.Broadcast("other", "ignored")
	assert.Equal(t, "hello", <-ch)

	cancel()
	cancel()
	assert.Equal(t, 0, sm.Subscribers("s1"))
	_, open := <-ch
	assert.False(t, open)
}
