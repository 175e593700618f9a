package export

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownArtifact = errors.New("unknown artifact")
)
