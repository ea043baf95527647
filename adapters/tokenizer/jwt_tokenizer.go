package tokenizer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/pear/core"
	"github.com/layer-3/pear/ports"
)

const AudienceAccess = "session:access"
const AudienceRefresh = "session:refresh"

// JWTTokenizer implements the Tokenizer interface using JWT
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
	domain  core.Domain
}

// NewJWTTokenizer creates a new JWT tokenizer. signKey must be a P-256 key;
// domain is the EIP-712 domain login signatures are checked against.
func NewJWTTokenizer(signKey *ecdsa.PrivateKey, domain core.Domain) ports.Tokenizer {
	return &JWTTokenizer{signKey: signKey, domain: domain}
}

// SessionToAccessToken issues the access token of session
func (j *JWTTokenizer) SessionToAccessToken(session *core.Session) (string, error) {
	return j.sign("access", AccessClaims{
		RegisteredClaims: registered(session, session.ID, session.AccessExpiry, AudienceAccess),
		RefreshID:        session.RefreshID,
		ClientID:         session.ClientID,
	})
}

// SessionToRefreshToken issues the refresh token of session. Its jti is the
// session's RefreshID, which is what logout and rotation invalidate.
func (j *JWTTokenizer) SessionToRefreshToken(session *core.Session) (string, error) {
	return j.sign("refresh", RefreshClaims{
		RegisteredClaims: registered(session, session.RefreshID, session.RefreshExpiry, AudienceRefresh),
		ClientID:         session.ClientID,
	})
}

func registered(session *core.Session, id string, expiry time.Time, audience string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   session.Address,
		ID:        id,
		ExpiresAt: jwt.NewNumericDate(expiry),
		IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
		Audience:  jwt.ClaimStrings{audience},
	}
}

func (j *JWTTokenizer) sign(kind string, claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return signed, nil
}

// AccessTokenToSession parses an access token and returns the associated session
func (j *JWTTokenizer) AccessTokenToSession(tokenStr string) (*core.Session, error) {
	claims := &AccessClaims{}
	if err := j.parse(tokenStr, claims, AudienceAccess); err != nil {
		return nil, err
	}

	return &core.Session{
		ID:           claims.ID,
		Address:      claims.Subject,
		ClientID:     claims.ClientID,
		IssuedAt:     claims.IssuedAt.Time,
		AccessExpiry: claims.ExpiresAt.Time,
		RefreshID:    claims.RefreshID,
	}, nil
}

// RefreshTokenToSession parses a refresh token and returns the associated session
func (j *JWTTokenizer) RefreshTokenToSession(tokenStr string) (*core.Session, error) {
	claims := &RefreshClaims{}
	if err := j.parse(tokenStr, claims, AudienceRefresh); err != nil {
		return nil, err
	}

	return &core.Session{
		Address:       claims.Subject,
		ClientID:      claims.ClientID,
		IssuedAt:      claims.IssuedAt.Time,
		RefreshExpiry: claims.ExpiresAt.Time,
		RefreshID:     claims.ID,
	}, nil
}

func (j *JWTTokenizer) parse(tokenStr string, claims jwt.Claims, audience string) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return &j.signKey.PublicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return core.ErrTokenExpired
		}
		return fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}

	if !token.Valid {
		return core.ErrInvalidToken
	}

	return nil
}

// VerifySignature recovers the signer of the challenge's typed data and
// compares it with the challenge address
func (j *JWTTokenizer) VerifySignature(challenge *core.Challenge, signatureStr string) error {
	decodedSig, err := hexutil.Decode(signatureStr)
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", core.ErrInvalidSignature)
	}
	if len(decodedSig) != crypto.SignatureLength {
		return fmt.Errorf("signature must be 65 bytes: %w", core.ErrInvalidSignature)
	}

	// Wallets send V as 27/28, recovery wants 0/1
	if decodedSig[crypto.RecoveryIDOffset] >= 27 {
		decodedSig[crypto.RecoveryIDOffset] -= 27
	}

	hash, _, err := apitypes.TypedDataAndHash(core.AuthTypedData(j.domain, challenge))
	if err != nil {
		return fmt.Errorf("EIP-712 hashing failed: %w", err)
	}

	pub, err := crypto.SigToPub(hash, decodedSig)
	if err != nil {
		return fmt.Errorf("failed to recover signer: %w", core.ErrInvalidSignature)
	}

	if crypto.PubkeyToAddress(*pub) != common.HexToAddress(challenge.Address) {
		return core.ErrInvalidSignature
	}

	return nil
}
