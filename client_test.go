package pear

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey     = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testAddress = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"
)

// countingServer answers every request with handler and counts the hits
func countingServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestNewDerivesAddress(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"prefixed", testKey, testAddress},
		{"bare", testKey[2:], testAddress},
		{"quoted", `"` + testKey + `"`, testAddress},
		{"hardhat", "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80", "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(Config{PrivateKey: tt.key})
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Address())
			assert.True(t, c.CanSign())
			assert.False(t, c.Authenticated())
		})
	}
}

func TestNewExplicitAddressWins(t *testing.T) {
	other := "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"

	c, err := New(Config{PrivateKey: testKey, Address: other})
	require.NoError(t, err)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", c.Address())
	assert.True(t, c.CanSign())
}

func TestNewConfigurationErrors(t *testing.T) {
	_, err := New(Config{PrivateKey: "0xnothex"})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = New(Config{Address: "0x1234"})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestNewWithoutCredentials(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)
	assert.Empty(t, c.Address())
	assert.False(t, c.CanSign())

	_, err = c.RequestChallenge(context.Background(), DefaultClientID)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = c.Login(context.Background(), DefaultClientID)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestSignChallengeRequiresKey(t *testing.T) {
	c, err := New(Config{Address: testAddress})
	require.NoError(t, err)

	challenge, err := DecodeChallenge([]byte(compositeChallenge))
	require.NoError(t, err)

	_, err = c.SignChallenge(challenge)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestAuthenticateReplacesHeldTokens(t *testing.T) {
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		_, _ = w.Write([]byte(`{"accessToken":"a1"}`))
	})

	c, err := New(Config{BaseURL: srv.URL, PrivateKey: testKey})
	require.NoError(t, err)
	c.SetTokens(TokenPair{AccessToken: "a0", RefreshToken: "r0"})

	pair, err := c.Authenticate(context.Background(), DefaultClientID, "0xsig", json.RawMessage("1700000000"))
	require.NoError(t, err)
	assert.Equal(t, "a1", pair.AccessToken)
	assert.Equal(t, TokenPair{AccessToken: "a1"}, c.Tokens())
}

func TestAuthenticateWithoutAccessTokenKeepsSession(t *testing.T) {
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"refresh_token":"r"}`))
	})

	c, err := New(Config{BaseURL: srv.URL, PrivateKey: testKey})
	require.NoError(t, err)
	c.SetTokens(TokenPair{AccessToken: "a0", RefreshToken: "r0"})

	_, err = c.Authenticate(context.Background(), DefaultClientID, "0xsig", nil)
	assert.ErrorIs(t, err, ErrEncoding)
	assert.Equal(t, TokenPair{AccessToken: "a0", RefreshToken: "r0"}, c.Tokens())
}

func TestAuthenticateRequestBody(t *testing.T) {
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"method": "eip712",
			"address": "`+testAddress+`",
			"clientId": "APITRADER",
			"details": {"signature": "0xabcd", "timestamp": 1700000000}
		}`, string(body))
		_, _ = w.Write([]byte(`{"access_token":"a1","refresh_token":"r1"}`))
	})

	c, err := New(Config{BaseURL: srv.URL, PrivateKey: testKey})
	require.NoError(t, err)

	_, err = c.Authenticate(context.Background(), DefaultClientID, "abcd", json.RawMessage("1700000000"))
	require.NoError(t, err)
	assert.Equal(t, TokenPair{AccessToken: "a1", RefreshToken: "r1"}, c.Tokens())
}

func TestRefreshTokenWithoutSession(t *testing.T) {
	srv, hits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {})

	c, err := New(Config{BaseURL: srv.URL, PrivateKey: testKey})
	require.NoError(t, err)

	_, err = c.RefreshToken(context.Background())
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestRefreshTokenKeepsUnrotatedRefreshToken(t *testing.T) {
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "r1", req["refreshToken"])
		_, _ = w.Write([]byte(`{"accessToken":"a2"}`))
	})

	c, err := New(Config{BaseURL: srv.URL, PrivateKey: testKey})
	require.NoError(t, err)
	c.SetTokens(TokenPair{AccessToken: "a1", RefreshToken: "r1"})

	pair, err := c.RefreshToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a2", pair.AccessToken)
	assert.Equal(t, "r1", pair.RefreshToken)
	assert.Equal(t, TokenPair{AccessToken: "a2", RefreshToken: "r1"}, c.Tokens())
}

func TestRefreshTokenFailureKeepsSession(t *testing.T) {
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Refresh token expired"}`))
	})

	c, err := New(Config{BaseURL: srv.URL, PrivateKey: testKey})
	require.NoError(t, err)
	c.SetTokens(TokenPair{AccessToken: "a1", RefreshToken: "r1"})

	_, err = c.RefreshToken(context.Background())
	require.ErrorIs(t, err, ErrTransport)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusUnauthorized, te.StatusCode)
	assert.Contains(t, string(te.Body), "Refresh token expired")
	assert.Equal(t, TokenPair{AccessToken: "a1", RefreshToken: "r1"}, c.Tokens())
}

func TestLogoutWithoutSessionIsNoop(t *testing.T) {
	srv, hits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {})

	c, err := New(Config{BaseURL: srv.URL, PrivateKey: testKey})
	require.NoError(t, err)

	body, err := c.Logout(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, body)
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestLogoutClearsTokensOnServerError(t *testing.T) {
	srv, hits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	c, err := New(Config{BaseURL: srv.URL, PrivateKey: testKey})
	require.NoError(t, err)
	c.SetTokens(TokenPair{AccessToken: "a1", RefreshToken: "r1"})

	_, err = c.Logout(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	assert.False(t, c.Authenticated())
	assert.Equal(t, TokenPair{}, c.Tokens())
}

func TestLogoutReturnsServerBody(t *testing.T) {
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/logout", r.URL.Path)
		_, _ = w.Write([]byte(`{"message":"Logged out"}`))
	})

	c, err := New(Config{BaseURL: srv.URL, PrivateKey: testKey})
	require.NoError(t, err)
	c.SetTokens(TokenPair{AccessToken: "a1", RefreshToken: "r1"})

	body, err := c.Logout(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"Logged out"}`, string(body))
	assert.Equal(t, TokenPair{}, c.Tokens())
}

func TestRequestHeaders(t *testing.T) {
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		assert.Equal(t, "BOT", r.Header.Get("X-Client-Id"))
		assert.Equal(t, "Bearer a1", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"address":"0xabc","status":"ACTIVE","extra":1}`))
	})

	c, err := New(Config{BaseURL: srv.URL + "/", PrivateKey: testKey, ClientID: "BOT"})
	require.NoError(t, err)
	c.SetTokens(TokenPair{AccessToken: "a1", RefreshToken: "r1"})

	wallet, err := c.GetAgentWallet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0xabc", wallet.Address)
	assert.Equal(t, "ACTIVE", wallet.Status)
	assert.JSONEq(t, `{"address":"0xabc","status":"ACTIVE","extra":1}`, string(wallet.Raw))
}

func TestCreateAgentWalletSendsNoBody(t *testing.T) {
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/agentWallet", r.URL.Path)
		assert.Empty(t, r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer a1", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Empty(t, body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"address":"0xdef","status":"PENDING_APPROVAL"}`))
	})

	c, err := New(Config{BaseURL: srv.URL, PrivateKey: testKey})
	require.NoError(t, err)
	c.SetTokens(TokenPair{AccessToken: "a1", RefreshToken: "r1"})

	wallet, err := c.CreateAgentWallet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0xdef", wallet.Address)
	assert.Equal(t, "PENDING_APPROVAL", wallet.Status)
}

func TestGetAgentWalletUnauthorized(t *testing.T) {
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, err := New(Config{BaseURL: srv.URL, PrivateKey: testKey})
	require.NoError(t, err)

	_, err = c.GetAgentWallet(context.Background())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusUnauthorized, te.StatusCode)
}

func TestGetBuilderCode(t *testing.T) {
	srv, hits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {})

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	code := c.GetBuilderCode()
	assert.Equal(t, "0xA47D4d99191db54A4829cdf3de2417E527c3b042", code.Address)
	assert.Contains(t, code.Note, "approve")
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestTestConnection(t *testing.T) {
	t.Run("any status is reachable", func(t *testing.T) {
		srv, hits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		c, err := New(Config{BaseURL: srv.URL})
		require.NoError(t, err)
		assert.True(t, c.TestConnection(context.Background()))
		assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	})

	t.Run("closed server is unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		c, err := New(Config{BaseURL: url})
		require.NoError(t, err)
		assert.False(t, c.TestConnection(context.Background()))
	})

	t.Run("non-positive timeout keeps the default", func(t *testing.T) {
		srv, hits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {})

		for _, d := range []time.Duration{0, -time.Second} {
			c, err := New(Config{BaseURL: srv.URL}, WithProbeTimeout(d))
			require.NoError(t, err)
			assert.Equal(t, DefaultProbeTimeout, c.probeTimeout)
			assert.True(t, c.TestConnection(context.Background()))
		}
		assert.Equal(t, int32(2), atomic.LoadInt32(hits))
	})

	t.Run("slow server times out", func(t *testing.T) {
		release := make(chan struct{})
		srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		})
		defer close(release)

		c, err := New(Config{BaseURL: srv.URL}, WithProbeTimeout(50*time.Millisecond))
		require.NoError(t, err)
		assert.False(t, c.TestConnection(context.Background()))
	})
}

func TestTransportErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(&TransportError{Method: http.MethodGet, URL: "http://x/", Err: cause})

	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "GET http://x/: connection refused", err.Error())

	err = &TransportError{Method: http.MethodPost, URL: "http://x/auth/login", StatusCode: 401, Body: []byte("nope")}
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, "POST http://x/auth/login: status 401: nope", err.Error())
}

func TestWithHexPrefix(t *testing.T) {
	assert.Equal(t, "0xabcd", withHexPrefix("abcd"))
	assert.Equal(t, "0xabcd", withHexPrefix("0xabcd"))
	assert.Equal(t, "0xabcd", withHexPrefix("0Xabcd"))
}
