package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/pear/core"
	"github.com/layer-3/pear/service"
)

// Options selects the wire variants the API answers with
type Options struct {
	// SplitChallenge serves challenges without primaryType and EIP712Domain
	SplitChallenge bool
	// CamelCaseTokens names token fields accessToken/refreshToken instead of
	// access_token/refresh_token
	CamelCaseTokens bool
}

// AuthHandlers contains HTTP handlers for auth and agent wallet endpoints
type AuthHandlers struct {
	authService   *service.AuthService
	walletService *service.AgentWalletService
	opts          Options
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService, walletService *service.AgentWalletService, opts Options) *AuthHandlers {
	return &AuthHandlers{
		authService:   authService,
		walletService: walletService,
		opts:          opts,
	}
}

// Challenge handles the EIP-712 message request
func (h *AuthHandlers) Challenge(c *gin.Context) {
	address := c.Query("address")
	clientID := c.Query("clientId")
	if address == "" || clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address and clientId are required"})
		return
	}

	challenge, err := h.authService.CreateChallenge(address, clientID)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidAddress):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address"})
		case errors.Is(err, core.ErrUnknownClient):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown client id"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create challenge"})
		}
		return
	}

	c.JSON(http.StatusOK, core.AuthDocument(h.authService.Domain(), challenge, h.opts.SplitChallenge))
}

type loginRequest struct {
	Method   string `json:"method" binding:"required"`
	Address  string `json:"address" binding:"required"`
	ClientID string `json:"clientId" binding:"required"`
	Details  struct {
		Signature string          `json:"signature" binding:"required"`
		Timestamp json.RawMessage `json:"timestamp"`
	} `json:"details"`
}

// Login handles the login request
func (h *AuthHandlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Method != "eip712" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported login method"})
		return
	}

	timestamp, err := parseTimestamp(req.Details.Timestamp)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing timestamp"})
		return
	}

	accessToken, refreshToken, err := h.authService.Login(c.Request.Context(), req.Address, req.ClientID, req.Details.Signature, timestamp)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errorMsg := "Authentication failed"

		switch {
		case errors.Is(err, core.ErrInvalidAddress), errors.Is(err, core.ErrUnknownClient):
			statusCode = http.StatusBadRequest
			errorMsg = "Invalid address or client id"
		case errors.Is(err, core.ErrInvalidChallenge):
			statusCode = http.StatusBadRequest
			errorMsg = "Invalid challenge"
		case errors.Is(err, core.ErrTokenExpired):
			statusCode = http.StatusBadRequest
			errorMsg = "Challenge expired"
		case errors.Is(err, core.ErrInvalidSignature):
			statusCode = http.StatusUnauthorized
			errorMsg = "Invalid signature"
		}

		c.JSON(statusCode, gin.H{"error": errorMsg})
		return
	}

	c.JSON(http.StatusOK, h.tokenResponse(accessToken, refreshToken))
}

type refreshTokenRequest struct {
	RefreshToken      string `json:"refreshToken"`
	RefreshTokenSnake string `json:"refresh_token"`
}

func (r refreshTokenRequest) token() string {
	if r.RefreshToken != "" {
		return r.RefreshToken
	}
	return r.RefreshTokenSnake
}

// Refresh handles token refresh
func (h *AuthHandlers) Refresh(c *gin.Context) {
	var req refreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.token() == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	accessToken, refreshToken, err := h.authService.Refresh(c.Request.Context(), req.token())
	if err != nil {
		statusCode := http.StatusInternalServerError
		errorMsg := "Failed to refresh tokens"

		switch {
		case errors.Is(err, core.ErrTokenExpired):
			statusCode = http.StatusUnauthorized
			errorMsg = "Refresh token expired"
		case errors.Is(err, core.ErrTokenInvalidated):
			statusCode = http.StatusUnauthorized
			errorMsg = "Refresh token has been invalidated"
		case errors.Is(err, core.ErrInvalidToken):
			statusCode = http.StatusBadRequest
			errorMsg = "Invalid refresh token"
		}

		c.JSON(statusCode, gin.H{"error": errorMsg})
		return
	}

	c.JSON(http.StatusOK, h.tokenResponse(accessToken, refreshToken))
}

// Logout handles session logout
func (h *AuthHandlers) Logout(c *gin.Context) {
	var req refreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.token() == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	err := h.authService.Logout(c.Request.Context(), req.token())
	if err != nil {
		statusCode := http.StatusInternalServerError
		errorMsg := "Failed to logout"

		switch {
		case errors.Is(err, core.ErrTokenExpired):
			// an expired token can no longer be used anyway
			c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
			return
		case errors.Is(err, core.ErrInvalidToken):
			statusCode = http.StatusBadRequest
			errorMsg = "Invalid refresh token"
		}

		c.JSON(statusCode, gin.H{"error": errorMsg})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GetAgentWallet returns the agent wallet of the authenticated user
func (h *AuthHandlers) GetAgentWallet(c *gin.Context) {
	owner := c.GetString(userAddressKey)

	wallet, err := h.walletService.Get(c.Request.Context(), owner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load agent wallet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address": wallet.Address,
		"status":  wallet.Status,
	})
}

// CreateAgentWallet creates an agent wallet for the authenticated user
func (h *AuthHandlers) CreateAgentWallet(c *gin.Context) {
	owner := c.GetString(userAddressKey)

	wallet, err := h.walletService.Create(c.Request.Context(), owner)
	if err != nil {
		if errors.Is(err, core.ErrAgentWalletExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "Agent wallet already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create agent wallet"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"address":   wallet.Address,
		"status":    wallet.Status,
		"createdAt": wallet.CreatedAt,
	})
}

func (h *AuthHandlers) tokenResponse(accessToken, refreshToken string) gin.H {
	expiresIn := int(h.authService.AccessTTL().Seconds())
	if h.opts.CamelCaseTokens {
		return gin.H{
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
			"tokenType":    "Bearer",
			"expiresIn":    expiresIn,
		}
	}
	return gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"token_type":    "Bearer",
		"expires_in":    expiresIn,
	}
}

// parseTimestamp accepts the challenge timestamp as a JSON number or a
// decimal string
func parseTimestamp(raw json.RawMessage) (int64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, errors.New("missing timestamp")
	}
	return strconv.ParseInt(strings.Trim(s, `"`), 10, 64)
}
