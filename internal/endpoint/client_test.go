package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type body struct {
	Name   string `json:"name"`
	Budget *int64 `json:"budget"`
}

func TestSend_Success(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusCreated} {
		var got body
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			raw, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"name":"Acme","budget":null}`, string(raw))
			_ = json.Unmarshal(raw, &got)
			w.WriteHeader(status)
		}))

		err := New(srv.URL).Send(context.Background(), body{Name: "Acme"})
		srv.Close()
		require.NoError(t, err, status)
		assert.Equal(t, "Acme", got.Name)
	}
}

func TestSend_NotConfigured(t *testing.T) {
	err := New("   ").Send(context.Background(), body{})
	require.Error(t, err)
	assert.Equal(t, KindConfig, KindOf(err))
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestSend_ServerError(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"message":"DB down"}`, "DB down"},
		{`{"error":{"message":"quota exceeded"}}`, "quota exceeded"},
		{`{"error":"bad input"}`, "bad input"},
		{`<html>oops</html>`, ""},
		{``, ""},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, tc.body)
		}))
		err := New(srv.URL).Send(context.Background(), body{})
		srv.Close()

		var e *Error
		require.True(t, errors.As(err, &e), tc.body)
		assert.Equal(t, KindServer, e.Kind)
		assert.Equal(t, 500, e.Status)
		assert.Equal(t, tc.want, e.ServerMessage)
	}
}

func TestSend_NoContentIsNotSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := New(srv.URL).Send(context.Background(), body{})
	assert.Equal(t, KindServer, KindOf(err))
}

func TestSend_Transport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close() // nothing listens any more

	err := New(url).Send(context.Background(), body{})
	assert.Equal(t, KindTransport, KindOf(err))
}

func TestSend_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	err := New(srv.URL, WithTimeout(50*time.Millisecond)).Send(context.Background(), body{})
	assert.Equal(t, KindTimeout, KindOf(err))
	assert.Less(t, time.Since(start), 5*time.Second)
}

type countingDoer struct{ calls atomic.Int32 }

func (d *countingDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls.Add(1)
	return &http.Response{
		StatusCode: http.StatusBadGateway,
		Body:       io.NopCloser(strings.NewReader("")),
		Request:    req,
	}, nil
}

func TestSend_SingleAttempt(t *testing.T) {
	d := &countingDoer{}
	err := New("http://example.invalid/hook", WithDoer(d)).Send(context.Background(), body{})
	assert.Equal(t, KindServer, KindOf(err))
	assert.Equal(t, int32(1), d.calls.Load())
}

func TestClientDefaults(t *testing.T) {
	c := New("http://example.invalid", WithTimeout(0))
	assert.Equal(t, DefaultTimeout, c.Timeout())
	assert.True(t, c.Configured())
	assert.False(t, New("").Configured())
}

func TestReconfigure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := New("", WithTimeout(2*time.Second))
	assert.Equal(t, KindConfig, KindOf(c.Send(context.Background(), body{})))

	c.Reconfigure(" "+srv.URL+" ", 0)
	assert.True(t, c.Configured())
	assert.Equal(t, 2*time.Second, c.Timeout(), "non-positive timeout keeps the old one")
	require.NoError(t, c.Send(context.Background(), body{}))
	assert.Equal(t, int32(1), hits.Load())

	c.Reconfigure("", 5*time.Second)
	assert.False(t, c.Configured())
	assert.Equal(t, 5*time.Second, c.Timeout())
	assert.Equal(t, KindConfig, KindOf(c.Send(context.Background(), body{})))
}
