package common

import (
	"context"

	"github.com/landlink-ke/land-market/api/internal/domain"
)

type contextKey string

const principalContextKey contextKey = "principal"

// PrincipalResponse is the JSON view of the caller identity.
type PrincipalResponse struct {
	UID         string `json:"uid"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName,omitempty"`
}

// ContextWithPrincipal stores the verified principal into context.
func ContextWithPrincipal(ctx context.Context, principal domain.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext returns the principal, or the anonymous principal
// when the request carried no valid token.
func PrincipalFromContext(ctx context.Context) domain.Principal {
	principal, _ := ctx.Value(principalContextKey).(domain.Principal)
	return principal
}

func NewPrincipalResponse(p domain.Principal) PrincipalResponse {
	return PrincipalResponse{UID: p.UID, Role: string(p.Role), DisplayName: p.DisplayName}
}
