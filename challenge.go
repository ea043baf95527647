package pear

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const domainTypeName = "EIP712Domain"

// Shape tells how the API delivered a challenge
type Shape int

const (
	// ShapeComposite is a complete typed-data document: types including
	// EIP712Domain, primaryType, domain and message
	ShapeComposite Shape = iota + 1

	// ShapeSplit is domain, types and message without primaryType or without
	// the EIP712Domain type. The missing parts are derived on decode.
	ShapeSplit
)

func (s Shape) String() string {
	switch s {
	case ShapeComposite:
		return "composite"
	case ShapeSplit:
		return "split"
	default:
		return "unknown"
	}
}

// Challenge is the EIP-712 message the API asks a wallet to sign. It is
// consumed by one login attempt and never stored.
type Challenge struct {
	Shape     Shape
	TypedData apitypes.TypedData

	raw       json.RawMessage
	timestamp json.RawMessage
}

// DecodeChallenge resolves a challenge body into one of the supported shapes
func DecodeChallenge(body []byte) (*Challenge, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: challenge is not a JSON object: %v", ErrEncoding, err)
	}

	rawTypes, hasTypes := fields["types"]
	rawDomain, hasDomain := fields["domain"]
	rawMessage, hasMessage := fields["message"]
	if !hasTypes || !hasDomain || !hasMessage {
		return nil, fmt.Errorf("%w: challenge has keys [%s], want domain, types and message",
			ErrEncoding, strings.Join(sortedKeys(fields), ", "))
	}

	var td apitypes.TypedData
	if err := json.Unmarshal(rawTypes, &td.Types); err != nil {
		return nil, fmt.Errorf("%w: challenge types: %v", ErrEncoding, err)
	}
	if err := json.Unmarshal(rawDomain, &td.Domain); err != nil {
		return nil, fmt.Errorf("%w: challenge domain: %v", ErrEncoding, err)
	}
	message, err := decodeMessage(rawMessage)
	if err != nil {
		return nil, err
	}
	td.Message = message
	if rawPrimary, ok := fields["primaryType"]; ok {
		if err := json.Unmarshal(rawPrimary, &td.PrimaryType); err != nil {
			return nil, fmt.Errorf("%w: challenge primaryType: %v", ErrEncoding, err)
		}
	}

	c := &Challenge{
		Shape:     ShapeComposite,
		TypedData: td,
		raw:       append(json.RawMessage(nil), body...),
	}

	if _, ok := c.TypedData.Types[domainTypeName]; !ok || c.TypedData.PrimaryType == "" {
		c.Shape = ShapeSplit
		if err := c.completeSplit(); err != nil {
			return nil, err
		}
	}

	if _, ok := c.TypedData.Types[c.TypedData.PrimaryType]; !ok {
		return nil, fmt.Errorf("%w: primary type %q is not declared", ErrEncoding, c.TypedData.PrimaryType)
	}

	var messageFields map[string]json.RawMessage
	if err := json.Unmarshal(rawMessage, &messageFields); err == nil {
		if ts, ok := messageFields["timestamp"]; ok && !bytes.Equal(ts, []byte("null")) {
			c.timestamp = ts
		}
	}

	return c, nil
}

// completeSplit derives EIP712Domain from the domain fields present and infers
// the primary type as the only struct no other struct refers to.
func (c *Challenge) completeSplit() error {
	types := make(apitypes.Types, len(c.TypedData.Types)+1)
	for name, fields := range c.TypedData.Types {
		types[name] = fields
	}
	if _, ok := types[domainTypeName]; !ok {
		types[domainTypeName] = domainType(c.TypedData.Domain)
	}
	c.TypedData.Types = types

	if c.TypedData.PrimaryType != "" {
		return nil
	}

	referenced := make(map[string]bool)
	for name, fields := range types {
		if name == domainTypeName {
			continue
		}
		for _, f := range fields {
			referenced[strings.TrimSuffix(f.Type, "[]")] = true
		}
	}

	var candidates []string
	for name := range types {
		if name != domainTypeName && !referenced[name] {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) != 1 {
		sort.Strings(candidates)
		return fmt.Errorf("%w: cannot infer primary type, candidates [%s]",
			ErrEncoding, strings.Join(candidates, ", "))
	}
	c.TypedData.PrimaryType = candidates[0]

	return nil
}

// domainType lists the EIP712Domain fields in canonical order, keeping only
// those the domain sets.
func domainType(d apitypes.TypedDataDomain) []apitypes.Type {
	var fields []apitypes.Type
	if d.Name != "" {
		fields = append(fields, apitypes.Type{Name: "name", Type: "string"})
	}
	if d.Version != "" {
		fields = append(fields, apitypes.Type{Name: "version", Type: "string"})
	}
	if d.ChainId != nil {
		fields = append(fields, apitypes.Type{Name: "chainId", Type: "uint256"})
	}
	if d.VerifyingContract != "" {
		fields = append(fields, apitypes.Type{Name: "verifyingContract", Type: "address"})
	}
	if d.Salt != "" {
		fields = append(fields, apitypes.Type{Name: "salt", Type: "bytes32"})
	}
	return fields
}

// Hash returns the EIP-712 digest to sign
func (c *Challenge) Hash() ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(c.TypedData)
	if err != nil {
		return nil, fmt.Errorf("%w: hash typed data: %v", ErrEncoding, err)
	}
	return hash, nil
}

// Timestamp returns message.timestamp as sent by the API, or nil
func (c *Challenge) Timestamp() json.RawMessage {
	return c.timestamp
}

// Raw returns the body the challenge was decoded from
func (c *Challenge) Raw() json.RawMessage {
	return c.raw
}

// signTypedData signs the challenge digest and returns the 0x-prefixed
// 65-byte signature with V in {27, 28}.
func signTypedData(c *Challenge, key *ecdsa.PrivateKey) (string, error) {
	hash, err := c.Hash()
	if err != nil {
		return "", err
	}

	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return "", fmt.Errorf("sign typed data: %w", err)
	}
	if sig[crypto.RecoveryIDOffset] < 27 {
		sig[crypto.RecoveryIDOffset] += 27
	}

	return hexutil.Encode(sig), nil
}

// decodeMessage keeps JSON numbers exact by handing them to the EIP-712
// encoder as decimal strings.
func decodeMessage(raw json.RawMessage) (apitypes.TypedDataMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var message map[string]interface{}
	if err := dec.Decode(&message); err != nil {
		return nil, fmt.Errorf("%w: challenge message: %v", ErrEncoding, err)
	}
	if message == nil {
		return nil, fmt.Errorf("%w: challenge message is null", ErrEncoding)
	}

	return numbersToStrings(message).(map[string]interface{}), nil
}

func numbersToStrings(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		return t.String()
	case map[string]interface{}:
		for k, e := range t {
			t[k] = numbersToStrings(e)
		}
		return t
	case []interface{}:
		for i, e := range t {
			t[i] = numbersToStrings(e)
		}
		return t
	default:
		return v
	}
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
