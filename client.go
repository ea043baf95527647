// Package pear is a client for the Pear Protocol API. It logs a wallet in with
// an EIP-712 signed challenge, holds the resulting bearer and refresh tokens,
// and forwards the agent wallet calls.
package pear

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the production API host
	DefaultBaseURL = "https://hl-v2.pearprotocol.io"

	// DefaultClientID identifies individual API traders
	DefaultClientID = "APITRADER"

	// DefaultProbeTimeout bounds TestConnection
	DefaultProbeTimeout = 5 * time.Second
)

// Config is what the client needs to act for one wallet. Either PrivateKey or
// Address may be empty; without a key the client cannot log in.
type Config struct {
	BaseURL    string
	PrivateKey string
	Address    string
	// ClientID is sent as X-Client-Id on every request when set
	ClientID string
}

// Client manages the authenticated session of one wallet against one API host
type Client struct {
	baseURL      string
	clientID     string
	httpClient   *http.Client
	logger       zerolog.Logger
	probeTimeout time.Duration

	privateKey *ecdsa.PrivateKey
	session    *Session
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request and login progress
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithProbeTimeout sets the TestConnection timeout. Non-positive values keep
// DefaultProbeTimeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.probeTimeout = d
		}
	}
}

// New creates a client. A private key derives the wallet address unless an
// address is given explicitly; an address alone yields a read-only client.
func New(cfg Config, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       zerolog.Nop(),
		probeTimeout: DefaultProbeTimeout,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	for _, opt := range opts {
		opt(c)
	}

	var address string
	if cfg.PrivateKey != "" {
		key, err := ParsePrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		c.privateKey = key
		address = crypto.PubkeyToAddress(key.PublicKey).Hex()
	}

	if cfg.Address != "" {
		if !common.IsHexAddress(cfg.Address) {
			return nil, fmt.Errorf("%w: invalid wallet address %q", ErrConfiguration, cfg.Address)
		}
		explicit := common.HexToAddress(cfg.Address).Hex()
		if address != "" && address != explicit {
			c.logger.Info().
				Str("signer", address).
				Str("address", explicit).
				Msg("Using explicit wallet address instead of signer address")
		}
		address = explicit
	}

	c.session = NewSession(address)

	c.logger.Debug().
		Str("base_url", c.baseURL).
		Str("address", address).
		Bool("can_sign", c.privateKey != nil).
		Msg("Pear client initialized")

	return c, nil
}

// ParsePrivateKey accepts a hex secp256k1 key with or without the 0x prefix
// and with or without surrounding quotes.
func ParsePrivateKey(s string) (*ecdsa.PrivateKey, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'') {
		s = s[1 : len(s)-1]
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")

	key, err := crypto.HexToECDSA(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid private key: %v", ErrConfiguration, err)
	}
	return key, nil
}

// Address returns the checksummed wallet address, or an empty string
func (c *Client) Address() string {
	return c.session.Address()
}

// CanSign reports whether the client holds a private key
func (c *Client) CanSign() bool {
	return c.privateKey != nil
}

// Authenticated reports whether an access token is held
func (c *Client) Authenticated() bool {
	return c.session.Authenticated()
}

// Tokens returns the held token pair
func (c *Client) Tokens() TokenPair {
	return c.session.Tokens()
}

// SetTokens installs a token pair obtained elsewhere
func (c *Client) SetTokens(pair TokenPair) {
	c.session.Set(pair)
}

// AccessTokenExpiry returns when the held access token expires, if it is a JWT
// carrying an exp claim. The client never refreshes on its own.
func (c *Client) AccessTokenExpiry() (time.Time, bool) {
	return c.session.AccessTokenExpiry()
}

// RequestChallenge fetches the EIP-712 message the wallet must sign
func (c *Client) RequestChallenge(ctx context.Context, clientID string) (*Challenge, error) {
	address := c.Address()
	if address == "" {
		return nil, fmt.Errorf("%w: wallet address is required to request a challenge", ErrConfiguration)
	}

	query := url.Values{}
	query.Set("address", address)
	query.Set("clientId", clientID)

	body, err := c.do(ctx, http.MethodGet, "/auth/eip712-message?"+query.Encode(), nil, false)
	if err != nil {
		return nil, err
	}

	return DecodeChallenge(body)
}

// SignChallenge signs the challenge with the wallet key
func (c *Client) SignChallenge(challenge *Challenge) (string, error) {
	if c.privateKey == nil {
		return "", fmt.Errorf("%w: private key is required for signing", ErrConfiguration)
	}
	if challenge == nil {
		return "", fmt.Errorf("%w: nil challenge", ErrEncoding)
	}

	return signTypedData(challenge, c.privateKey)
}

type loginRequest struct {
	Method   string       `json:"method"`
	Address  string       `json:"address"`
	ClientID string       `json:"clientId"`
	Details  loginDetails `json:"details"`
}

type loginDetails struct {
	Signature string          `json:"signature"`
	Timestamp json.RawMessage `json:"timestamp,omitempty"`
}

// Authenticate submits a signed challenge and stores the returned tokens,
// replacing any held before. timestamp is forwarded verbatim when not nil.
func (c *Client) Authenticate(ctx context.Context, clientID, signature string, timestamp json.RawMessage) (*TokenPair, error) {
	address := c.Address()
	if address == "" {
		return nil, fmt.Errorf("%w: wallet address is required to authenticate", ErrConfiguration)
	}

	req := loginRequest{
		Method:   "eip712",
		Address:  address,
		ClientID: clientID,
		Details: loginDetails{
			Signature: withHexPrefix(signature),
			Timestamp: timestamp,
		},
	}

	body, err := c.do(ctx, http.MethodPost, "/auth/login", req, false)
	if err != nil {
		return nil, err
	}

	pair, err := decodeTokenPair(body)
	if err != nil {
		return nil, err
	}
	c.session.Set(pair)

	return &pair, nil
}

// Login runs RequestChallenge, SignChallenge and Authenticate in order and
// stops at the first failure.
func (c *Client) Login(ctx context.Context, clientID string) (*TokenPair, error) {
	if c.privateKey == nil {
		return nil, fmt.Errorf("%w: private key is required for login", ErrConfiguration)
	}

	c.logger.Info().Str("client_id", clientID).Msg("[1/3] Getting EIP-712 message")
	challenge, err := c.RequestChallenge(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("request challenge: %w", err)
	}

	c.logger.Info().Str("shape", challenge.Shape.String()).Msg("[2/3] Signing EIP-712 message")
	signature, err := c.SignChallenge(challenge)
	if err != nil {
		return nil, fmt.Errorf("sign challenge: %w", err)
	}

	c.logger.Info().Msg("[3/3] Authenticating")
	pair, err := c.Authenticate(ctx, clientID, signature, challenge.Timestamp())
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	evt := c.logger.Info().Str("address", c.Address())
	if exp, ok := tokenExpiry(pair.AccessToken); ok {
		evt = evt.Time("access_expires_at", exp)
	}
	evt.Msg("Authentication successful")

	return pair, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshToken exchanges the held refresh token for a new pair. The held
// refresh token is kept when the response does not rotate it. On failure the
// session is left as it was.
func (c *Client) RefreshToken(ctx context.Context) (*TokenPair, error) {
	refresh := c.session.RefreshToken()
	if refresh == "" {
		return nil, fmt.Errorf("%w: no refresh token held, authenticate first", ErrPrecondition)
	}

	body, err := c.do(ctx, http.MethodPost, "/auth/refresh", refreshRequest{RefreshToken: refresh}, false)
	if err != nil {
		return nil, err
	}

	pair, err := decodeTokenPair(body)
	if err != nil {
		return nil, err
	}
	pair = c.session.Rotate(pair)

	return &pair, nil
}

// Logout invalidates the held refresh token on the server and forgets both
// tokens. The tokens are forgotten even when the server call fails. Without a
// refresh token Logout does nothing and returns nil.
func (c *Client) Logout(ctx context.Context) (json.RawMessage, error) {
	refresh := c.session.RefreshToken()
	if refresh == "" {
		c.logger.Debug().Msg("No refresh token to invalidate")
		return nil, nil
	}
	defer c.session.Clear()

	body, err := c.do(ctx, http.MethodPost, "/auth/logout", refreshRequest{RefreshToken: refresh}, false)
	if err != nil {
		return nil, err
	}

	return json.RawMessage(body), nil
}

// do sends a JSON request and returns the body of a 2xx response. payload is
// marshalled when not nil. The JSON content type is sent on bodiless GETs as
// well, as the API's own clients do.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}, auth bool) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal request: %v", ErrEncoding, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: c.baseURL + path, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.setHeaders(req, auth)

	return c.send(req)
}

func (c *Client) setHeaders(req *http.Request, auth bool) {
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.clientID != "" {
		req.Header.Set("X-Client-Id", c.clientID)
	}
	if auth {
		if token := c.session.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	target := req.URL.Scheme + "://" + req.URL.Host + req.URL.Path

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", req.Method).Str("url", target).Msg("Request failed")
		return nil, &TransportError{Method: req.Method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: target, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug().
			Str("method", req.Method).
			Str("url", target).
			Int("status", resp.StatusCode).
			Str("request_id", req.Header.Get("X-Request-Id")).
			Msg("API error")
		return nil, &TransportError{Method: req.Method, URL: target, StatusCode: resp.StatusCode, Body: body}
	}

	return body, nil
}

func withHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return "0x" + s[2:]
	}
	return "0x" + s
}
