package adapters

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harun/mcpgate/pkg/toolexecutor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBooking_Handle(t *testing.T) {
	var gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"booking_id":"b-1","status":"confirmed"}`))
	}))
	defer srv.Close()

	b := NewBooking(srv.URL+"/book", time.Second, srv.Client())

	t.Run("should forward payload and bearer token", func(t *testing.T) {
		ctx := toolexecutor.ContextWithExecContext(context.Background(), &toolexecutor.ExecutionContext{BearerToken: "user-token"})

		out, err := b.Handle(ctx, map[string]any{"room": "A", "nights": json.Number("2")})
		require.NoError(t, err)

		assert.Equal(t, "Bearer user-token", gotAuth)
		assert.JSONEq(t, `{"room":"A","nights":2}`, gotBody)
		assert.JSONEq(t, `{"booking_id":"b-1","status":"confirmed"}`, string(out.(json.RawMessage)))
	})

	t.Run("should omit the header without a token", func(t *testing.T) {
		_, err := b.Handle(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, gotAuth)
		assert.Equal(t, `{}`, gotBody)
	})
}

func TestBooking_Errors(t *testing.T) {
	t.Run("should fail when not configured", func(t *testing.T) {
		_, err := NewBooking("", time.Second, nil).Handle(context.Background(), map[string]any{})
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("should map non-2xx to upstream error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		_, err := NewBooking(srv.URL, time.Second, srv.Client()).Handle(context.Background(), map[string]any{})
		assert.ErrorIs(t, err, ErrUpstream)
		assert.EqualError(t, err, "upstream returned status 401")
	})

	t.Run("should reject invalid JSON", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("booked!"))
		}))
		defer srv.Close()

		_, err := NewBooking(srv.URL, time.Second, srv.Client()).Handle(context.Background(), map[string]any{})
		assert.ErrorIs(t, err, ErrUpstream)
	})
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def", "abc.def"},
		{"bearer abc", "abc"},
		{"  Bearer   abc  ", "abc"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, BearerToken(tt.header))
		})
	}
}
