package domain

import "time"

// Credentials stores the OAuth tokens a connection uses.
// Each OAuth connection has exactly one Credentials.
type Credentials struct {
	// ID is the unique identifier (UUID).
	ID string `json:"id"`
	// ConnectionID links to the Connection these credentials belong to.
	ConnectionID string `json:"connection_id"`

	// AccountIdentifier is the mailbox address or calendar owner.
	AccountIdentifier string `json:"account_identifier,omitempty"`

	// OAuth holds the tokens.
	OAuth *OAuthCredentials `json:"oauth,omitempty"`

	// CreatedAt is when the credentials were created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the credentials were last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// OAuthCredentials stores OAuth tokens for a specific user account.
type OAuthCredentials struct {
	// AccessToken is the bearer token for API access.
	AccessToken string `json:"access_token"`
	// RefreshToken is used to obtain new access tokens.
	RefreshToken string `json:"refresh_token,omitempty"`
	// TokenType is typically "Bearer".
	TokenType string `json:"token_type"`
	// Expiry is when the access token expires.
	Expiry time.Time `json:"expiry,omitempty"`
}

// IsExpired returns true if the OAuth access token has expired.
func (c *OAuthCredentials) IsExpired() bool {
	return c.ExpiresWithin(0)
}

// ExpiresWithin reports whether the token expires within margin of now.
// A zero expiry never expires.
func (c *OAuthCredentials) ExpiresWithin(margin time.Duration) bool {
	if c.Expiry.IsZero() {
		return false
	}
	return time.Now().Add(margin).After(c.Expiry)
}

// IsAuthenticated returns true if the credentials contain an access token.
func (c *Credentials) IsAuthenticated() bool {
	return c.OAuth != nil && c.OAuth.AccessToken != ""
}

// GetAccessToken returns the access token.
func (c *Credentials) GetAccessToken() string {
	if c.OAuth == nil {
		return ""
	}
	return c.OAuth.AccessToken
}

// HasRefreshToken returns true if a refresh token is available.
func (c *Credentials) HasRefreshToken() bool {
	return c.OAuth != nil && c.OAuth.RefreshToken != ""
}
