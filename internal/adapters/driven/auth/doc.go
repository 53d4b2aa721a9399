// Package auth provides token providers for connections: stored OAuth
// credentials refreshed through golang.org/x/oauth2, or no auth at all.
package auth
