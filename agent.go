package pear

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// BuilderAddress receives the fees of every trade routed through the API.
// Users must approve it before trading.
const BuilderAddress = "0xA47D4d99191db54A4829cdf3de2417E527c3b042"

const builderNote = "All trades are routed to this builder address. Users must approve this address to charge fees."

// BuilderCode describes the fee routing address
type BuilderCode struct {
	Address string `json:"builder_address"`
	Note    string `json:"note"`
}

// AgentWallet is the API-managed wallet that trades on the user's behalf
type AgentWallet struct {
	Address string `json:"address"`
	Status  string `json:"status"`

	// Raw is the full response body
	Raw json.RawMessage `json:"-"`
}

// GetAgentWallet fetches the agent wallet of the logged-in user
func (c *Client) GetAgentWallet(ctx context.Context) (*AgentWallet, error) {
	body, err := c.do(ctx, http.MethodGet, "/agentWallet", nil, true)
	if err != nil {
		return nil, err
	}
	return decodeAgentWallet(body)
}

// CreateAgentWallet asks the API to create an agent wallet. The request has no
// body and no JSON content type; the API rejects an empty JSON body.
func (c *Client) CreateAgentWallet(ctx context.Context) (*AgentWallet, error) {
	target := c.baseURL + "/agentWallet"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, http.NoBody)
	if err != nil {
		return nil, &TransportError{Method: http.MethodPost, URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	c.setHeaders(req, true)

	body, err := c.send(req)
	if err != nil {
		return nil, err
	}
	return decodeAgentWallet(body)
}

func decodeAgentWallet(body []byte) (*AgentWallet, error) {
	wallet := AgentWallet{Raw: json.RawMessage(body)}
	if len(body) == 0 {
		return &wallet, nil
	}
	if err := json.Unmarshal(body, &wallet); err != nil {
		return nil, fmt.Errorf("%w: agent wallet response: %v", ErrEncoding, err)
	}
	return &wallet, nil
}

// GetBuilderCode returns the builder fee address. It makes no request.
func (c *Client) GetBuilderCode() BuilderCode {
	return BuilderCode{
		Address: BuilderAddress,
		Note:    builderNote,
	}
}

// TestConnection reports whether the API host answers at all. Any HTTP
// response counts as reachable; every error counts as unreachable.
func (c *Client) TestConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Connection test failed")
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("url", c.baseURL).Msg("Connection test failed")
		return false
	}
	resp.Body.Close()

	return true
}
