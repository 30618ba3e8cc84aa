package translation

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/linguist/internal/testutil"
)

func TestGoogleBackendFragments(t *testing.T) {
	server := testutil.NewTranslateServer(t)
	server.Respond([2]string{"你好。", "Hello."}, [2]string{"世界。", "World."})

	backend := NewGoogleBackend(server.URL, "en", "zh-CN")
	fragments, err := backend.Fragments(context.Background(), "Hello. World.")
	require.NoError(t, err)

	assert.Equal(t, []Fragment{
		{Target: "你好。", Source: "Hello."},
		{Target: "世界。", Source: "World."},
	}, fragments)
	assert.Equal(t, []string{"Hello. World."}, server.Queries)
}

func TestGoogleBackendQueryParameters(t *testing.T) {
	var got map[string]string
	server := testutil.NewTranslateServer(t)
	server.Respond([2]string{"Hallo.", "Hello."})
	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		got = map[string]string{
			"client": q.Get("client"),
			"sl":     q.Get("sl"),
			"tl":     q.Get("tl"),
			"dt":     q.Get("dt"),
			"q":      q.Get("q"),
		}
		w.Write([]byte(`[[["Hallo.","Hello.",null,null,1]],null,"en"]`))
	})

	backend := NewGoogleBackend(server.URL, "en", "de")
	_, err := backend.Fragments(context.Background(), "Hello & goodbye?")
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"client": "gtx",
		"sl":     "en",
		"tl":     "de",
		"dt":     "t",
		"q":      "Hello & goodbye?",
	}, got)
}

func TestGoogleBackendErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "busy"},
		{"rate limited", http.StatusTooManyRequests, "slow down"},
		{"malformed body", http.StatusOK, "<html>"},
		{"null first element", http.StatusOK, `[null,null,"en"]`},
		{"empty first element", http.StatusOK, `[[],null,"en"]`},
		{"empty array", http.StatusOK, `[]`},
		{"object instead of array", http.StatusOK, `{"error":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := testutil.NewTranslateServer(t)
			server.Status = tt.status
			server.RawBody = tt.body

			backend := NewGoogleBackend(server.URL, "en", "zh-CN")
			fragments, err := backend.Fragments(context.Background(), "Hello.")
			assert.Error(t, err)
			assert.Nil(t, fragments)
		})
	}
}

func TestGoogleBackendDefaults(t *testing.T) {
	backend := NewGoogleBackend("", "en", "zh-CN")
	assert.Equal(t, DefaultGoogleEndpoint, backend.endpoint)
	assert.Equal(t, ProviderGoogle, backend.Name())
}
