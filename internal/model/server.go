package model

import (
	"context"
	"net"
)

// SecurityLayer opens the listener the HTTP server accepts connections on.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
	// Secure reports whether connections are encrypted.
	Secure() bool
}

type Server interface {
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}
