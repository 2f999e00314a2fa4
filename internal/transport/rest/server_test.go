package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/internal/metrics"
	"github.com/sandevgo/tuskmem/internal/service/retrieval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRetriever struct {
	matches   []core.SearchMatch
	err       error
	lastK     int
	lastQuery string
	lastExt   string
	outcome   retrieval.Outcome
}

func (r *stubRetriever) Search(ctx context.Context, query string, k int, extension string) ([]core.SearchMatch, error) {
	r.lastQuery, r.lastK, r.lastExt = query, k, extension
	return r.matches, r.err
}

func (r *stubRetriever) Augment(ctx context.Context, msg *core.Message, extension string) retrieval.Result {
	out := *msg
	if r.outcome == retrieval.OutcomeAugmented {
		out.Content += "\n\n" + retrieval.ContextOpenTag
	}
	return retrieval.Result{Message: out, Outcome: r.outcome, Matches: r.matches}
}

type stubCatalog struct {
	convs   map[string]core.Conversation
	names   map[string]string
	deleted []string
	listErr error
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{convs: map[string]core.Conversation{}, names: map[string]string{}}
}

func (c *stubCatalog) List(ctx context.Context, filter string, limit, offset int) ([]core.ConversationSummary, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	out := []core.ConversationSummary{}
	for _, conv := range c.convs {
		if strings.Contains(conv.Summary.ConversationID, filter) {
			out = append(out, conv.Summary)
		}
	}
	return out, nil
}

func (c *stubCatalog) Get(ctx context.Context, id string) (core.Conversation, error) {
	conv, ok := c.convs[id]
	if !ok {
		return core.Conversation{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return conv, nil
}

func (c *stubCatalog) MostRecent(ctx context.Context) (core.Conversation, bool, error) {
	for _, conv := range c.convs {
		return conv, true, nil
	}
	return core.Conversation{}, false, nil
}

func (c *stubCatalog) Delete(ctx context.Context, id string) error {
	c.deleted = append(c.deleted, id)
	delete(c.convs, id)
	return nil
}

func (c *stubCatalog) Rename(ctx context.Context, id, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: blank name", core.ErrValidation)
	}
	for other, existing := range c.names {
		if other != id && strings.EqualFold(existing, name) {
			return fmt.Errorf("%w: taken", core.ErrConflict)
		}
	}
	c.names[id] = name
	return nil
}

func (c *stubCatalog) IDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	for id := range c.convs {
		ids = append(ids, id)
	}
	return ids, nil
}

type stubMemory struct {
	windows map[string][]core.Message
}

func (m *stubMemory) Load(ctx context.Context, id string) ([]core.Message, error) {
	return m.windows[id], nil
}

func (m *stubMemory) Append(ctx context.Context, id string, msgs ...core.Message) ([]core.Message, error) {
	m.windows[id] = append(m.windows[id], msgs...)
	return m.windows[id], nil
}

func (m *stubMemory) Replace(ctx context.Context, id string, msgs []core.Message) error {
	m.windows[id] = msgs
	return nil
}

type fixture struct {
	server    *Server
	retriever *stubRetriever
	catalog   *stubCatalog
	memory    *stubMemory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		retriever: &stubRetriever{outcome: retrieval.OutcomeNoHits},
		catalog:   newStubCatalog(),
		memory:    &stubMemory{windows: map[string][]core.Message{}},
	}
	f.server = NewServer(context.Background(), Options{RequestTimeout: time.Second, DefaultResults: 4},
		f.retriever, f.catalog, f.memory, metrics.New())
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		storeErr   error
		wantStatus int
		wantK      int
	}{
		{name: "default k", body: `{"queryMessage":"rotate keys"}`, wantStatus: http.StatusOK, wantK: 4},
		{name: "explicit k", body: `{"queryMessage":"rotate keys","maxResults":7,"extension":"go"}`, wantStatus: http.StatusOK, wantK: 7},
		{name: "zero k", body: `{"queryMessage":"x","maxResults":0}`, wantStatus: http.StatusBadRequest},
		{name: "malformed", body: `{"queryMessage":`, wantStatus: http.StatusBadRequest},
		{
			name:       "degraded",
			body:       `{"queryMessage":"x"}`,
			storeErr:   fmt.Errorf("%w: connection refused", core.ErrRetrievalDegraded),
			wantStatus: http.StatusServiceUnavailable,
			wantK:      4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.retriever.matches = []core.SearchMatch{{Text: "snippet", SourceID: "doc-1", Score: 0.9}}
			f.retriever.err = tt.storeErr

			rec := f.do(t, http.MethodPost, "/api/search", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantK > 0 {
				assert.Equal(t, tt.wantK, f.retriever.lastK)
			}
			if tt.wantStatus == http.StatusOK {
				var resp searchResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				require.Len(t, resp.Matches, 1)
				assert.Equal(t, "doc-1", resp.Matches[0].SourceID)
			}
		})
	}
}

func TestStoreEndpoints(t *testing.T) {
	f := newFixture(t)
	f.catalog.convs["c1"] = core.Conversation{
		Summary:  core.ConversationSummary{ConversationID: "c1", MessageCount: 1},
		Messages: []core.Message{core.UserMessage("hi")},
	}

	rec := f.do(t, http.MethodGet, "/api/store/messages/c1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var conv core.Conversation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))
	assert.Equal(t, "c1", conv.Summary.ConversationID)

	rec = f.do(t, http.MethodGet, "/api/store/messages/missing", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/store/chats?filter=c&limit=10&offset=0", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/store/chats?limit=ten", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/store/ids", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["c1"]`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/store/memoryIds", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["c1"]`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/store/most-recent", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/store/messages/c1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"c1"}, f.catalog.deleted)

	rec = f.do(t, http.MethodGet, "/api/store/most-recent", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRename(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodPut, "/api/store/names/a", `{"name":"Plans"}`).Code)
	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPut, "/api/store/names/b", `{"name":"plans"}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, "/api/store/names/b", `{"name":" "}`).Code)
}

func TestStoreFailureIs500(t *testing.T) {
	f := newFixture(t)
	f.catalog.listErr = fmt.Errorf("%w: disk I/O error", core.ErrPersistence)

	rec := f.do(t, http.MethodGet, "/api/store/chats", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "disk I/O error")
}

func TestAddTurn(t *testing.T) {
	f := newFixture(t)
	f.retriever.outcome = retrieval.OutcomeAugmented

	rec := f.do(t, http.MethodPost, "/api/conversations/c1/turns", `{"message":{"role":"user","content":"hi"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp turnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, retrieval.OutcomeAugmented, resp.Outcome)
	assert.Contains(t, resp.Message.Content, retrieval.ContextOpenTag)
	assert.Len(t, resp.Window, 1)

	rec = f.do(t, http.MethodPost, "/api/conversations/c1/turns", `{"message":{"role":"robot","content":"hi"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWindowReplaceAndLoad(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/conversations/c1/window",
		`{"messages":[{"role":"system","content":"rules"},{"role":"user","content":"hi"}]}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/conversations/c1/window", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body windowBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []core.Message{core.SystemMessage("rules"), core.UserMessage("hi")}, body.Messages)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", "").Code)

	rec := f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
