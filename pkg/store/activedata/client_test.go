package activedata

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/test-atlas/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Query(t *testing.T) {
	var gotBody, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotMethod = r.Method
		_, _ = w.Write([]byte(`{"meta":{"format":"table","es_query":{}},"header":["test","failures"],"data":[["a",1],["b",null]]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	resp, err := client.Query(context.Background(), `{"from":"unittest"}`)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, `{"from":"unittest"}`, gotBody)
	assert.Equal(t, "table", resp.Meta["format"])
	assert.Equal(t, []string{"test", "failures"}, resp.Header)
	assert.Equal(t, [][]any{{"a", float64(1)}, {"b", nil}}, resp.Data)
}

func TestClient_QueryErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantMsg: "unexpected status 500"},
		{name: "not json", status: http.StatusOK, body: "<html>", wantMsg: "malformed response"},
		{name: "missing meta", status: http.StatusOK, body: `{"header":[],"data":[]}`, wantMsg: "missing meta"},
		{name: "missing header", status: http.StatusOK, body: `{"meta":{},"data":[]}`, wantMsg: "missing header"},
		{name: "missing data", status: http.StatusOK, body: `{"meta":{},"header":[]}`, wantMsg: "missing data"},
		{name: "ragged row", status: http.StatusOK, body: `{"meta":{},"header":["a","b"],"data":[[1]]}`, wantMsg: "row 0 has 1 values"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second).Query(context.Background(), "{}")
			require.Error(t, err)

			var remoteErr *domain.RemoteQueryError
			require.True(t, errors.As(err, &remoteErr))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Query(context.Background(), "{}")

	var remoteErr *domain.RemoteQueryError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "send request", remoteErr.Reason)
}

func TestDecode_EmptyTable(t *testing.T) {
	resp, err := Decode(strings.NewReader(`{"meta":{},"header":[],"data":[]}`))
	require.NoError(t, err)
	assert.Empty(t, resp.Header)
	assert.Empty(t, resp.Data)
	assert.NotNil(t, resp.Meta)
}
