// Package auth resolves the caller's identity from an HTTP request and
// manages the login session lifecycle.
package auth

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"pitchey-api/internal/models"
	"pitchey-api/internal/observability"
)

var tracer = otel.Tracer("pitchey-api/auth")

// Identity is an authenticated caller.
type Identity struct {
	User      models.User
	SessionID string
	Method    string
}

// Result is the outcome of resolving a request.
type Result struct {
	Authenticated bool
	Identity      Identity
}

// Strategy resolves an identity from one kind of credential. It returns
// (nil, nil) when the request carries no usable credential of its kind.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, r *http.Request) (*Identity, error)
}

// IdentityResolver tries strategies in order; the first identity wins.
type IdentityResolver struct {
	strategies []Strategy
}

// NewIdentityResolver composes strategies in priority order.
func NewIdentityResolver(strategies ...Strategy) *IdentityResolver {
	return &IdentityResolver{strategies: strategies}
}

// Resolve never fails: strategy errors are logged and the next strategy is tried.
func (r *IdentityResolver) Resolve(ctx context.Context, req *http.Request) Result {
	for _, s := range r.strategies {
		identity, err := r.try(ctx, s, req)
		if err != nil {
			log.Warn("identity strategy failed", "strategy", s.Name(), "error", err)
			observability.IncAuthResolution(s.Name(), observability.AuthError)
			continue
		}
		if identity == nil {
			observability.IncAuthResolution(s.Name(), observability.AuthMiss)
			continue
		}
		observability.IncAuthResolution(s.Name(), observability.AuthHit)
		identity.Method = s.Name()
		return Result{Authenticated: true, Identity: *identity}
	}
	return Result{}
}

func (r *IdentityResolver) try(ctx context.Context, s Strategy, req *http.Request) (identity *Identity, err error) {
	ctx, span := tracer.Start(ctx, "auth."+s.Name())
	defer span.End()
	defer func() {
		if p := recover(); p != nil {
			log.Error("identity strategy panicked", "strategy", s.Name(), "panic", p)
			identity, err = nil, nil
			span.SetStatus(codes.Error, "panic")
		}
	}()

	identity, err = s.Resolve(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.Bool("auth.resolved", identity != nil))
	return identity, err
}
