package services

import "errors"

// Common service errors
var (
	ErrNotFound           = errors.New("record not found")
	ErrInvalidState       = errors.New("invalid state transition")
	ErrEditLocked         = errors.New("document can only be edited in draft")
	ErrNotSendable        = errors.New("document is not ready to send")
	ErrLinkExpired        = errors.New("link has expired")
	ErrLinkRevoked        = errors.New("link is no longer valid")
	ErrClickwrapRequired  = errors.New("terms must be accepted before signing")
	ErrSignerNameRequired = errors.New("typed signer name is required")
	ErrNothingToUndo      = errors.New("nothing to undo")
	ErrNothingToRedo      = errors.New("nothing to redo")
	ErrTemplateInactive   = errors.New("template is inactive or deleted")
)
