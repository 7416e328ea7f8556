package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/event-tracker/eventclient/pkg/rest"
)

func TestGet_DecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":7,"name":"x"}}`))
	}))
	defer srv.Close()

	client := rest.New(rest.Config{BaseURL: srv.URL})
	env, err := client.Get(context.Background(), "/api/thing")
	require.NoError(t, err)

	var data struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, env.DecodeData(&data))
	assert.Equal(t, int64(7), data.ID)
}

func TestPostJSON_SendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := rest.New(rest.Config{BaseURL: srv.URL})
	_, err := client.PostJSON(context.Background(), "/api/thing", map[string]string{"a": "b"}, rest.WithToken("tok-123"))
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestSuccessFalse_BecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"nope"}`))
	}))
	defer srv.Close()

	client := rest.New(rest.Config{BaseURL: srv.URL})
	_, err := client.Get(context.Background(), "/api/thing")
	require.Error(t, err)

	var apiErr *rest.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "nope", apiErr.Message)
	assert.Equal(t, http.StatusOK, apiErr.StatusCode)
	assert.Equal(t, "nope", err.Error())
}

func TestNon2xx_BecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"message":"invalid token"}`))
	}))
	defer srv.Close()

	client := rest.New(rest.Config{BaseURL: srv.URL})
	_, err := client.Get(context.Background(), "/api/thing")

	var apiErr *rest.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid token", apiErr.Message)
	assert.NotEmpty(t, apiErr.RequestID)
}

func TestMessage_FallsBackWithoutServerMessage(t *testing.T) {
	withMsg := &rest.APIError{StatusCode: 400, Message: "taken"}
	assert.Equal(t, "taken", rest.Message(withMsg, "registration failed"))

	noMsg := &rest.APIError{StatusCode: 500}
	assert.Equal(t, "registration failed", rest.Message(noMsg, "registration failed"))

	assert.Equal(t, "registration failed", rest.Message(errors.New("dial tcp: refused"), "registration failed"))
}

func TestFallback_PreservesServerMessage(t *testing.T) {
	apiErr := &rest.APIError{StatusCode: 400, Message: "taken"}
	assert.Equal(t, "taken", rest.Fallback(apiErr, "registration failed").Error())

	wrapped := rest.Fallback(errors.New("timeout"), "registration failed")
	assert.Contains(t, wrapped.Error(), "registration failed")
}

func TestPostForm_EncodesMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "My Event", r.FormValue("title"))
		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "poster.jpg", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
	}))
	defer srv.Close()

	form := rest.NewForm().
		Set("title", "My Event").
		AttachFile("image", "poster.jpg", strings.NewReader("bytes"))

	client := rest.New(rest.Config{BaseURL: srv.URL})
	_, err := client.PostForm(context.Background(), "/api/add-event/1", form)
	require.NoError(t, err)
}

func TestContextCancellation_AbortsRequest(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	client := rest.New(rest.Config{BaseURL: srv.URL})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, "/api/thing")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
