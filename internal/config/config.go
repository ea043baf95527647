// Package config reads the settings of the pear commands from the environment.
// The client package itself never looks at the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Client holds the settings of pearctl
type Client struct {
	APIURL           string
	ClientID         string
	WalletPrivateKey string
	WalletAddress    string
	ProbeTimeout     time.Duration
	Debug            bool
}

// Mock holds the settings of pearmock
type Mock struct {
	Addr            string
	RedisURL        string
	ClientIDs       []string
	ChainID         int64
	SplitChallenge  bool
	CamelCaseTokens bool
	Debug           bool
}

// LoadClient loads pearctl configuration from environment variables
func LoadClient() *Client {
	return &Client{
		APIURL:           getEnv("PEAR_API_URL", "https://hl-v2.pearprotocol.io"),
		ClientID:         getEnv("PEAR_CLIENT_ID", "APITRADER"),
		WalletPrivateKey: os.Getenv("WALLET_PRIVATE_KEY"),
		WalletAddress:    os.Getenv("WALLET_ADDRESS"),
		ProbeTimeout:     getEnvDuration("PEAR_PROBE_TIMEOUT", 5*time.Second),
		Debug:            getEnvBool("DEBUG", false),
	}
}

// LoadMock loads pearmock configuration from environment variables
func LoadMock() *Mock {
	return &Mock{
		Addr:            getEnv("PEARMOCK_ADDR", ":9000"),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
		ClientIDs:       getEnvList("PEARMOCK_CLIENT_IDS", []string{"APITRADER"}),
		ChainID:         getEnvInt64("PEARMOCK_CHAIN_ID", 42161),
		SplitChallenge:  getEnvBool("PEARMOCK_SPLIT_CHALLENGE", false),
		CamelCaseTokens: getEnvBool("PEARMOCK_CAMEL_CASE_TOKENS", false),
		Debug:           getEnvBool("DEBUG", false),
	}
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	if len(list) == 0 {
		return defaultValue
	}
	return list
}
