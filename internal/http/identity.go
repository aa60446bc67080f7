package http

import (
	"net/http"

	"github.com/google/uuid"
)

// DefaultActorID is the placeholder identity used until session handling
// is implemented.
var DefaultActorID = uuid.MustParse("dfbdcf5a-42b0-4814-825e-86e9b1476575")

// IdentityProvider resolves the acting user for a request. Session-based
// authentication plugs in here; until then FixedIdentity is the only
// implementation.
type IdentityProvider interface {
	CurrentUser(r *http.Request) (uuid.UUID, error)
}

// FixedIdentity attributes every request to a single user.
type FixedIdentity struct {
	UserID uuid.UUID
}

func (f FixedIdentity) CurrentUser(_ *http.Request) (uuid.UUID, error) {
	return f.UserID, nil
}
