package ports

import "github.com/layer-3/pear/core"

// Tokenizer converts between domain objects and tokens
type Tokenizer interface {
	// Session tokens operations
	SessionToAccessToken(session *core.Session) (string, error)
	AccessTokenToSession(token string) (*core.Session, error)
	SessionToRefreshToken(session *core.Session) (string, error)
	RefreshTokenToSession(token string) (*core.Session, error)

	// VerifySignature checks that signature is the challenge's address
	// signing the challenge's typed data
	VerifySignature(challenge *core.Challenge, signature string) error
}
