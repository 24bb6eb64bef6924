// Package client talks to the maillist gRPC API.
//
// The Client interface is transport-agnostic; GRPCClient implements it over
// the maillist.v1.Subscriptions service. Bad input and an unavailable store
// come back as the sentinel errors ErrInvalidInput and ErrUnavailable, with
// the server's user-facing message preserved in the error text. Every other
// outcome is a normal Reply.
package client
