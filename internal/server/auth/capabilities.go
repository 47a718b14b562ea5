// Package auth carries the caller's identity and permissions into service
// calls. The front end authenticates users; ClipVault trusts the identity
// headers it forwards and only maps role names to capabilities.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/clipvault/internal/common"
)

// Capabilities is an immutable snapshot of what the caller may do. It is
// passed by value into every operation.
type Capabilities struct {
	OwnerID     string
	DisplayName string
	CanUpload   bool
	IsAdmin     bool
}

// Admin returns capabilities for operator tooling acting as ownerID.
func Admin(ownerID string) Capabilities {
	return Capabilities{OwnerID: ownerID, DisplayName: ownerID, CanUpload: true, IsAdmin: true}
}

// FromHeaders builds Capabilities from the front end's identity headers.
// Roles are a comma separated list matched case-insensitively. Admins may
// always upload. An empty uploaderRole lets every identified caller upload.
func FromHeaders(h http.Header, adminRole, uploaderRole string) (Capabilities, error) {
	id := strings.TrimSpace(h.Get(common.OwnerIDHeaderName))
	if id == "" {
		return Capabilities{}, fmt.Errorf("%w: missing %s header", common.ErrForbidden, common.OwnerIDHeaderName)
	}

	caps := Capabilities{
		OwnerID:     id,
		DisplayName: strings.TrimSpace(h.Get(common.OwnerNameHeaderName)),
		CanUpload:   uploaderRole == "",
	}

	for _, r := range strings.Split(h.Get(common.OwnerRolesHeaderName), ",") {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if adminRole != "" && strings.EqualFold(r, adminRole) {
			caps.IsAdmin = true
		}
		if uploaderRole != "" && strings.EqualFold(r, uploaderRole) {
			caps.CanUpload = true
		}
	}
	if caps.IsAdmin {
		caps.CanUpload = true
	}
	return caps, nil
}

// CanAccess reports whether the caller may read or modify ownerID's files.
func (c Capabilities) CanAccess(ownerID string) bool {
	return c.IsAdmin || (c.OwnerID != "" && c.OwnerID == ownerID)
}
