package config

import (
	"strings"
)

const (
	authorityURLVar = "FITTRACK_AUTHORITY_URL"
	realmVar        = "FITTRACK_REALM"
	issuerURLVar    = "FITTRACK_ISSUER_URL"
	clientIDVar     = "FITTRACK_CLIENT_ID"
	scopesVar       = "FITTRACK_SCOPES"
	discoverVar     = "FITTRACK_DISCOVER"
)

type Identity struct {
	file *fileValues
}

var _ IdentityConfig = Identity{}

// GetAuthorityURL returns the identity provider base URL (e.g., "http://localhost:8181")
func (i Identity) GetAuthorityURL() string {
	return strings.TrimRight(lookup(authorityURLVar, i.file.Identity.AuthorityURL, "http://localhost:8181"), "/")
}

func (i Identity) GetRealm() string {
	return lookup(realmVar, i.file.Identity.Realm, "fitness-oauth2")
}

// GetIssuerURL returns the OIDC issuer. Defaults to the Keycloak realm URL under the authority.
func (i Identity) GetIssuerURL() string {
	return lookup(issuerURLVar, i.file.Identity.IssuerURL, i.GetAuthorityURL()+"/realms/"+i.GetRealm())
}

func (i Identity) GetClientID() string {
	return lookup(clientIDVar, i.file.Identity.ClientID, "oauth2-pkce-client")
}

func (i Identity) GetScopes() []string {
	if value := GetEnv(scopesVar, ""); value != "" {
		return strings.Fields(value)
	}
	if len(i.file.Identity.Scopes) > 0 {
		return i.file.Identity.Scopes
	}
	return []string{"openid", "profile", "email"}
}

// GetDiscoverEndpoints reports whether endpoints come from the issuer's discovery document
// instead of the fixed Keycloak layout.
func (i Identity) GetDiscoverEndpoints() bool {
	return lookupBool(discoverVar, i.file.Identity.Discover, false)
}
