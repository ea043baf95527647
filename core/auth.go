package core

import "time"

// Challenge is an authentication message issued to a wallet for a client id
type Challenge struct {
	Address   string    // Checksummed address of the wallet
	ClientID  string    // Client the wallet logs in through
	Timestamp int64     // Unix seconds the challenge was issued at
	IssuedAt  time.Time // Timestamp as time
}

// Session represents an authenticated wallet session
type Session struct {
	ID            string    // Unique session identifier
	Address       string    // Ethereum address of the user
	ClientID      string    // Client the session was opened through
	IssuedAt      time.Time // When the session was created
	RefreshExpiry time.Time // When the refresh capability expires
	AccessExpiry  time.Time // When the access capability expires
	RefreshID     string    // Unique identifier for the refresh token
}

// Agent wallet statuses
const (
	AgentWalletNotFound        = "NOT_FOUND"
	AgentWalletPendingApproval = "PENDING_APPROVAL"
)

// AgentWallet is a wallet the API trades with on behalf of its owner
type AgentWallet struct {
	Owner     string    `json:"owner"`
	Address   string    `json:"address"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
