package core

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// AuthPrimaryType is the EIP-712 struct a wallet signs to log in
const AuthPrimaryType = "Authentication"

const authAction = "authentication"

// Domain is the EIP-712 domain of authentication messages
type Domain struct {
	Name    string
	Version string
	ChainID int64
}

var (
	domainFields = []apitypes.Type{
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
	}
	authFields = []apitypes.Type{
		{Name: "address", Type: "address"},
		{Name: "clientId", Type: "string"},
		{Name: "timestamp", Type: "uint256"},
		{Name: "action", Type: "string"},
	}
)

// AuthTypedData is the typed data a wallet signs for challenge
func AuthTypedData(domain Domain, challenge *Challenge) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain":  domainFields,
			AuthPrimaryType: authFields,
		},
		PrimaryType: AuthPrimaryType,
		Domain: apitypes.TypedDataDomain{
			Name:    domain.Name,
			Version: domain.Version,
			ChainId: math.NewHexOrDecimal256(domain.ChainID),
		},
		Message: apitypes.TypedDataMessage{
			"address":   challenge.Address,
			"clientId":  challenge.ClientID,
			"timestamp": strconv.FormatInt(challenge.Timestamp, 10),
			"action":    authAction,
		},
	}
}

// AuthDocument is the wire form of a challenge. The composite form is a full
// typed-data document; the split form leaves out primaryType and the
// EIP712Domain type.
func AuthDocument(domain Domain, challenge *Challenge, split bool) map[string]interface{} {
	types := map[string][]apitypes.Type{
		AuthPrimaryType: authFields,
	}
	doc := map[string]interface{}{
		"domain": map[string]interface{}{
			"name":    domain.Name,
			"version": domain.Version,
			"chainId": domain.ChainID,
		},
		"types": types,
		"message": map[string]interface{}{
			"address":   challenge.Address,
			"clientId":  challenge.ClientID,
			"timestamp": challenge.Timestamp,
			"action":    authAction,
		},
	}
	if !split {
		types["EIP712Domain"] = domainFields
		doc["primaryType"] = AuthPrimaryType
	}
	return doc
}
