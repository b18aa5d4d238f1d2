package transport

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-fittrack-client/credentials"
)

// CredentialSource supplies the current credential record, if any. Implementations must not
// return a record that is halfway through being rewritten.
type CredentialSource interface {
	Credentials() (credentials.Record, bool)
}

// Invalidator ends the session that owns accessToken
type Invalidator interface {
	ForceInvalidate(accessToken string) bool
}

// Authenticate attaches the access token as a bearer credential and the subject id as a
// routing header. Without a stored record the request is sent unauthenticated.
func Authenticate(src CredentialSource) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			record, ok := src.Credentials()
			if !ok {
				return next.RoundTrip(r)
			}
			r = r.Clone(r.Context())
			if record.AccessToken != "" {
				r.Header.Set(HeaderAuthorization, "Bearer "+record.AccessToken)
			}
			if record.SubjectID != "" {
				r.Header.Set(HeaderUserID, record.SubjectID)
			}
			return next.RoundTrip(r)
		})
	}
}

// PoliceUnauthorized invalidates the session whose token drew a 401 before handing the
// response back. Every other status passes through untouched.
// A request that went out without a bearer token cannot have been rejected because of the
// session, so it never triggers invalidation.
func PoliceUnauthorized(inv Invalidator) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(r)
			if err != nil || resp.StatusCode != http.StatusUnauthorized {
				return resp, err
			}
			if token := bearerToken(r); token != "" {
				inv.ForceInvalidate(token)
			}
			return resp, nil
		})
	}
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get(HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
