package api

import (
	"github.com/xraph/trellis/capability"
)

// ResolveResponse is the response for a capability resolution.
type ResolveResponse struct {
	UserID       string                  `json:"user_id" description:"Resolved user"`
	Capabilities []capability.Capability `json:"capabilities" description:"Effective capabilities in catalog order"`
}

// FavoriteResponse reports the heart state after a toggle.
type FavoriteResponse struct {
	Hearted bool `json:"hearted" description:"Whether the bed is favorited afterwards"`
}
