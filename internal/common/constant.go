// Package common contains shared constants and sentinel errors used across
// authkeeper components.
package common

// AuthorizationHeaderName is the HTTP header and gRPC metadata key that
// carries the access token on inbound requests.
const AuthorizationHeaderName = "authorization"

// BearerPrefix is stripped from the authorization value before validation.
const BearerPrefix = "Bearer "
