package ws

import (
	"net/http"

	"github.com/google/uuid"
)

func newConnID() string {
	return uuid.NewString()
}

// withQueryToken lets browser clients, which cannot set headers on a
// websocket handshake, pass a bearer token as ?token=.
func withQueryToken(r *http.Request) *http.Request {
	token := r.URL.Query().Get("token")
	if token == "" || r.Header.Get("Authorization") != "" {
		return r
	}
	clone := r.Clone(r.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return clone
}
