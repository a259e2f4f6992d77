package token_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquasecurity/psirt-checker/token"
)

func TestAcquirer_Acquire(t *testing.T) {
	tests := []struct {
		name           string
		clientID       string
		clientSecret   string
		responseFile   string
		statusCode     int
		want           string
		wantStatusCode int
		wantErr        string
	}{
		{
			name:         "happy path",
			clientID:     "my-id",
			clientSecret: "my-secret",
			responseFile: "testdata/token.json",
			statusCode:   http.StatusOK,
			want:         "0123456789abcdef",
		},
		{
			name:         "happy path, non-bearer token type",
			clientID:     "my-id",
			clientSecret: "my-secret",
			responseFile: "testdata/token_mac.json",
			statusCode:   http.StatusOK,
			want:         "0123456789abcdef",
		},
		{
			name:           "sad path, unauthorized",
			clientID:       "my-id",
			clientSecret:   "wrong",
			responseFile:   "testdata/token.json",
			statusCode:     http.StatusUnauthorized,
			wantStatusCode: http.StatusUnauthorized,
			wantErr:        "status code 401",
		},
		{
			name:         "sad path, no access_token",
			clientID:     "my-id",
			clientSecret: "my-secret",
			responseFile: "testdata/no_token.json",
			statusCode:   http.StatusOK,
			wantErr:      "no access_token in response",
		},
		{
			name:         "sad path, invalid json",
			clientID:     "my-id",
			clientSecret: "my-secret",
			responseFile: "testdata/invalid.json",
			statusCode:   http.StatusOK,
			wantErr:      "failed to decode token response",
		},
		{
			name:     "sad path, empty secret",
			clientID: "my-id",
			wantErr:  "empty client credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
				assert.Equal(t, tt.clientID, r.URL.Query().Get("client_id"))
				assert.Equal(t, tt.clientSecret, r.URL.Query().Get("client_secret"))
				assert.Equal(t, "client_credentials", r.PostFormValue("grant_type"))

				b, err := os.ReadFile(tt.responseFile)
				assert.NoError(t, err)
				w.WriteHeader(tt.statusCode)
				_, err = w.Write(b)
				assert.NoError(t, err)
			}))
			defer ts.Close()

			a := token.NewAcquirer(token.WithURL(ts.URL + "/as/token.oauth2"))
			got, err := a.Acquire(context.Background(), tt.clientID, tt.clientSecret)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				var authErr *token.AuthenticationError
				require.True(t, errors.As(err, &authErr))
				assert.Equal(t, tt.wantStatusCode, authErr.StatusCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.AccessToken)
			assert.Equal(t, "Bearer", got.Type())
			assert.True(t, got.Valid())
		})
	}
}

func TestAcquirer_Acquire_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := token.NewAcquirer(token.WithURL(url)).Acquire(context.Background(), "my-id", "my-secret")
	require.Error(t, err)

	var authErr *token.AuthenticationError
	require.True(t, errors.As(err, &authErr))
	assert.Contains(t, err.Error(), "HTTP error")
}

func TestAcquirer_Acquire_Canceled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := token.NewAcquirer(token.WithURL(ts.URL)).Acquire(ctx, "my-id", "my-secret")
	require.Error(t, err)

	var authErr *token.AuthenticationError
	require.True(t, errors.As(err, &authErr))
	assert.True(t, errors.Is(err, context.Canceled))
}

// proxyServer records the absolute URLs it is asked to forward and answers
// them with a token.
func proxyServer(t *testing.T, seen chan<- string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.URL.String()
		b, err := os.ReadFile("testdata/token.json")
		assert.NoError(t, err)
		_, err = w.Write(b)
		assert.NoError(t, err)
	}))
}

func TestAcquirer_Acquire_Proxy(t *testing.T) {
	const tokenURL = "http://sso.example.invalid/as/token.oauth2"

	t.Run("explicit proxy", func(t *testing.T) {
		seen := make(chan string, 1)
		proxy := proxyServer(t, seen)
		defer proxy.Close()

		got, err := token.NewAcquirer(
			token.WithURL(tokenURL),
			token.WithProxy(proxy.URL),
		).Acquire(context.Background(), "my-id", "my-secret")
		require.NoError(t, err)
		assert.Equal(t, "0123456789abcdef", got.AccessToken)
		assert.Contains(t, <-seen, "sso.example.invalid/as/token.oauth2")
	})

	t.Run("proxy from environment", func(t *testing.T) {
		seen := make(chan string, 1)
		proxy := proxyServer(t, seen)
		defer proxy.Close()

		t.Setenv("HTTP_PROXY", proxy.URL)
		t.Setenv("NO_PROXY", "")
		t.Setenv("no_proxy", "")

		got, err := token.NewAcquirer(token.WithURL(tokenURL)).Acquire(context.Background(), "my-id", "my-secret")
		require.NoError(t, err)
		assert.Equal(t, "0123456789abcdef", got.AccessToken)
		assert.Contains(t, <-seen, "sso.example.invalid/as/token.oauth2")
	})

	t.Run("bad proxy", func(t *testing.T) {
		_, err := token.NewAcquirer(
			token.WithURL(tokenURL),
			token.WithProxy("://bad"),
		).Acquire(context.Background(), "my-id", "my-secret")
		require.Error(t, err)

		var authErr *token.AuthenticationError
		require.True(t, errors.As(err, &authErr))
		assert.Contains(t, err.Error(), "invalid proxy URL")
	})
}

func TestAcquirer_Acquire_VerifyTLS(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := os.ReadFile("testdata/token.json")
		assert.NoError(t, err)
		_, err = w.Write(b)
		assert.NoError(t, err)
	}))
	defer ts.Close()

	t.Run("self-signed certificate is rejected by default", func(t *testing.T) {
		_, err := token.NewAcquirer(token.WithURL(ts.URL)).Acquire(context.Background(), "my-id", "my-secret")
		require.Error(t, err)

		var authErr *token.AuthenticationError
		require.True(t, errors.As(err, &authErr))
		assert.Contains(t, err.Error(), "certificate")
	})

	t.Run("verification disabled", func(t *testing.T) {
		got, err := token.NewAcquirer(
			token.WithURL(ts.URL),
			token.WithVerifyTLS(false),
		).Acquire(context.Background(), "my-id", "my-secret")
		require.NoError(t, err)
		assert.Equal(t, "0123456789abcdef", got.AccessToken)
	})
}
