// Package panel provides typed access to the backend's management
// endpoints on top of the authenticated client. The wrappers are thin: one
// method per endpoint, validation of required identifiers, and nothing else.
// Authorization failures surface through the client's refresh flow.
package panel

import (
	"errors"

	"remnawave.dev/internal/client"
)

// ErrInvalidInput marks a request rejected before dispatch.
var ErrInvalidInput = errors.New("panel: invalid input")

// Panel groups the typed API surfaces.
type Panel struct {
	Users  *UsersService
	Nodes  *NodesService
	System *SystemService
}

// New wires the services onto one authenticated client.
func New(c *client.Client) *Panel {
	return &Panel{
		Users:  &UsersService{client: c},
		Nodes:  &NodesService{client: c},
		System: &SystemService{client: c},
	}
}
