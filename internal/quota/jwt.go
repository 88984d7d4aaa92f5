package quota

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

const (
	claimAuth    = "https://api.openai.com/auth"
	claimProfile = "https://api.openai.com/profile"
)

type tokenClaims struct {
	Auth struct {
		AccountID string `json:"chatgpt_account_id"`
		PlanType  string `json:"chatgpt_plan_type"`
	}
	Profile struct {
		Email string `json:"email"`
	}
}

// decodeClaims reads the openai claims out of the payload of a JWT access
// token. The signature is not verified, an unreadable token gives empty
// claims.
func decodeClaims(token string) tokenClaims {
	var claims tokenClaims

	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return claims
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return claims
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return claims
	}
	if auth, ok := raw[claimAuth]; ok {
		_ = json.Unmarshal(auth, &claims.Auth)
	}
	if profile, ok := raw[claimProfile]; ok {
		_ = json.Unmarshal(profile, &claims.Profile)
	}
	return claims
}
