package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/and161185/ecotour/internal/errs"
)

func TestAI_AskAndChat(t *testing.T) {
	t.Parallel()

	a := newAPI(t, "", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		switch r.URL.Path {
		case "/ai/ask":
			assert.Equal(t, "Où dormir ?", body["question"])
			assert.NotContains(t, body, "history")
		case "/ai/chat":
			assert.Equal(t, "et demain ?", body["message"])
			assert.Len(t, body["history"], 1)
		}
		_, _ = io.WriteString(w, `{"response":"**Gîte** du lac"}`)
	})
	ctx := context.Background()

	ans, err := a.AI.Ask(ctx, "Où dormir ?", nil)
	require.NoError(t, err)
	assert.Equal(t, "**Gîte** du lac", ans.Response)

	_, err = a.AI.Chat(ctx, "et demain ?", []Turn{{Role: "user", Content: "Où dormir ?"}})
	require.NoError(t, err)

	_, err = a.AI.Ask(ctx, "", nil)
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestAI_EmptyAnswerIsBadResponse(t *testing.T) {
	t.Parallel()

	a := newAPI(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"other":1}`)
	})
	_, err := a.AI.Ask(context.Background(), "q", nil)
	require.ErrorIs(t, err, errs.ErrBadResponse)
}

func TestAI_EmptyBodyIsBadResponse(t *testing.T) {
	t.Parallel()

	a := newAPI(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	ctx := context.Background()

	ans, err := a.AI.Chat(ctx, "bonjour", nil)
	require.ErrorIs(t, err, errs.ErrBadResponse)
	assert.Nil(t, ans)
	_, err = a.AI.SPARQL(ctx, "SELECT * WHERE {}")
	require.ErrorIs(t, err, errs.ErrBadResponse)
}

func TestAI_SPARQLAndRecommend(t *testing.T) {
	t.Parallel()

	a := newAPI(t, "", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"results":[{"s":"x"}]}`)
	})
	ctx := context.Background()

	ans, err := a.AI.SPARQL(ctx, "SELECT * WHERE { ?s ?p ?o }")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"s":"x"}]`, string(ans.Results))

	_, err = a.AI.RecommendActivities(ctx, RecommendRequest{Preferences: "nature", Difficulte: "facile"})
	require.NoError(t, err)
	_, err = a.AI.RecommendActivities(ctx, RecommendRequest{})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestAI_ResetAndAnalyzeVideo(t *testing.T) {
	t.Parallel()

	a := newAPI(t, "", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ai/reset":
			assert.Empty(t, r.Header.Get("Content-Type"))
			w.WriteHeader(http.StatusNoContent)
		case "/ai/analyze-video":
			assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
			if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
				return
			}
			assert.Equal(t, "describe", r.FormValue("prompt"))
			_, _ = io.WriteString(w, `{"response":"a lake"}`)
		}
	})
	ctx := context.Background()

	require.NoError(t, a.AI.Reset(ctx))
	ans, err := a.AI.AnalyzeVideo(ctx, "clip.mp4", strings.NewReader("MP4"), "describe")
	require.NoError(t, err)
	assert.Equal(t, "a lake", ans.Response)
}
