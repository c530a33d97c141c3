package session

import (
	"net/url"

	"github.com/pkg/errors"
)

// OAuthTokenParam is the query parameter the OAuth redirect puts the bearer token in.
const OAuthTokenParam = "google_token"

var ErrNoOAuthToken = errors.New("No Google token found in callback URL.")

// OAuthToken extracts the bearer token from an OAuth callback URL (absolute, relative or bare query).
func OAuthToken(callbackURL string) (string, error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return "", errors.Wrap(err, "parsing callback URL")
	}
	query := u.Query()
	if u.RawQuery == "" && u.Path != "" && u.Host == "" {
		// bare "google_token=..." strings parse as a path
		if q, qErr := url.ParseQuery(u.Path); qErr == nil {
			query = q
		}
	}
	token := query.Get(OAuthTokenParam)
	if token == "" {
		return "", ErrNoOAuthToken
	}
	return token, nil
}
