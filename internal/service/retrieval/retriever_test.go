package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRetriever(st *fakeStore, emb core.Embedder, cfg ragConfig) *Retriever {
	engine := NewEngine(st, NewReranker(DefaultSynonyms()), nil)
	return NewRetriever(emb, engine, NewInjector(DefaultSnippetLimit, cfg.maxResults), cfg, metrics.New())
}

func defaultRAG() ragConfig {
	return ragConfig{enabled: true, maxResults: 4, minScore: 0.82, rerank: true}
}

func TestRetriever_Augment(t *testing.T) {
	st := &fakeStore{matches: []core.SearchMatch{
		match("good", 0.9, core.Metadata{core.ExtensionsField: ",java,"}),
		match("weak", 0.5, core.Metadata{core.ExtensionsField: ",java,"}),
	}}
	r := newTestRetriever(st, &fakeEmbedder{}, defaultRAG())

	res := r.Augment(context.Background(), &core.Message{Role: core.RoleUser, Content: "datasource config"}, "java")

	assert.Equal(t, OutcomeAugmented, res.Outcome)
	require.Len(t, res.Matches, 1)
	assert.Contains(t, res.Message.Content, "text of good")
	assert.NotContains(t, res.Message.Content, "text of weak")

	q := st.lastQuery()
	assert.Equal(t, 0.82, q.MinScore)
	assert.Equal(t, 50, q.MaxResults)
	assert.Equal(t, core.ExtensionFilter("java"), q.Filter)
}

func TestRetriever_AugmentOutcomes(t *testing.T) {
	boom := errors.New("unreachable")
	user := &core.Message{Role: core.RoleUser, Content: "datasource config"}

	tests := []struct {
		name    string
		store   *fakeStore
		emb     core.Embedder
		cfg     ragConfig
		msg     *core.Message
		outcome Outcome
	}{
		{name: "disabled", store: &fakeStore{}, emb: &fakeEmbedder{}, cfg: ragConfig{maxResults: 4}, msg: user, outcome: OutcomeDisabled},
		{name: "no hits", store: &fakeStore{}, emb: &fakeEmbedder{}, cfg: defaultRAG(), msg: user, outcome: OutcomeNoHits},
		{name: "store down", store: &fakeStore{err: boom}, emb: &fakeEmbedder{}, cfg: defaultRAG(), msg: user, outcome: OutcomeDegraded},
		{name: "embedder down", store: &fakeStore{}, emb: &fakeEmbedder{err: boom}, cfg: defaultRAG(), msg: user, outcome: OutcomeDegraded},
		{
			name: "assistant skipped", store: &fakeStore{}, emb: &fakeEmbedder{}, cfg: defaultRAG(),
			msg: &core.Message{Role: core.RoleAssistant, Content: "x"}, outcome: OutcomeSkipped,
		},
		{name: "nil message", store: &fakeStore{}, emb: &fakeEmbedder{}, cfg: defaultRAG(), msg: nil, outcome: OutcomeNoHits},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRetriever(tt.store, tt.emb, tt.cfg)
			res := r.Augment(context.Background(), tt.msg, "")

			assert.Equal(t, tt.outcome, res.Outcome)
			if tt.msg != nil {
				assert.Equal(t, *tt.msg, res.Message)
			} else {
				assert.Equal(t, core.UserMessage(""), res.Message)
			}
			if tt.outcome == OutcomeDegraded {
				assert.ErrorIs(t, res.Err, core.ErrRetrievalDegraded)
				assert.ErrorIs(t, res.Err, boom)
			} else {
				assert.NoError(t, res.Err)
			}
		})
	}
}

func TestRetriever_Search(t *testing.T) {
	st := &fakeStore{matches: []core.SearchMatch{
		match("a", 0.3, core.Metadata{FieldTitle: "Kafka"}),
		match("b", 0.31, nil),
	}}
	r := newTestRetriever(st, &fakeEmbedder{}, defaultRAG())

	got, err := r.Search(context.Background(), "kafka consumer", 5, "")
	require.NoError(t, err)

	assert.Equal(t, 0.0, st.lastQuery().MinScore)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].SourceID)

	got, err = r.Search(context.Background(), "  ", 5, "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetriever_SearchDegraded(t *testing.T) {
	r := newTestRetriever(&fakeStore{}, &fakeEmbedder{err: errors.New("timeout")}, defaultRAG())

	_, err := r.Search(context.Background(), "anything", 3, "")
	assert.ErrorIs(t, err, core.ErrRetrievalDegraded)
	assert.True(t, strings.Contains(err.Error(), "timeout"))
}
