package identity

import (
	"encoding/json"
	"strings"
)

// Profile is the claims bag returned by the identity provider's userinfo endpoint.
// The named fields are the standard OIDC claims the client reads; Claims keeps every claim
// as received so nothing is lost when the profile is persisted.
type Profile struct {
	Subject           string `json:"sub"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	Name              string `json:"name,omitempty"`
	GivenName         string `json:"given_name,omitempty"`
	FamilyName        string `json:"family_name,omitempty"`
	Email             string `json:"email,omitempty"`
	EmailVerified     bool   `json:"email_verified,omitempty"`

	Claims map[string]any `json:"-"`
}

// DisplayName picks the most human friendly name available
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if full := strings.TrimSpace(p.GivenName + " " + p.FamilyName); full != "" {
		return full
	}
	if p.PreferredUsername != "" {
		return p.PreferredUsername
	}
	return p.Subject
}

func (p Profile) MarshalJSON() ([]byte, error) {
	if len(p.Claims) > 0 {
		return json.Marshal(p.Claims)
	}
	type plain Profile
	return json.Marshal(plain(p))
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	type plain Profile
	var fields plain
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	claims := map[string]any{}
	if err := json.Unmarshal(data, &claims); err != nil {
		return err
	}
	*p = Profile(fields)
	p.Claims = claims
	return nil
}
