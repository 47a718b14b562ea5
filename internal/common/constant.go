// Package common contains shared constants and sentinel errors used across
// ClipVault components.
package common

// Header names the front end uses to pass the caller's identity to the HTTP
// boundary.
const (
	OwnerIDHeaderName    = "X-Owner-ID"
	OwnerNameHeaderName  = "X-Owner-Name"
	OwnerRolesHeaderName = "X-Owner-Roles"
)

// DefaultExtension is the container extension of web-playable artifacts.
const DefaultExtension = "mp4"
