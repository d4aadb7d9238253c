package domain

import (
	"github.com/bevanjebanesan/Lemon/internal/infrastructure/validate"
)

// Peer identifiers are chosen by the client and treated as opaque strings; the
// server only bounds them so they stay usable as routing keys and log fields.
var validatePeerID = validate.Field("peerId",
	validate.Required(),
	validate.MaxLength(128),
	validate.NoSpaces(),
)

var validateDisplayName = validate.Field("displayName",
	validate.MaxLength(64),
	validate.PrintableText(),
)

func ValidatePeerID(peerID string) error {
	return validatePeerID(peerID)
}

func ValidateDisplayName(name string) error {
	if name == "" {
		return nil
	}
	return validateDisplayName(name)
}
