package api

import (
	"context"
	"net/http"
	"strings"

	"instafeed/internal/core"
	"instafeed/internal/identity"
)

// authenticate resolves the bearer token into the request identity. Requests without a token stay anonymous,
// a bad token is rejected.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(w, r, core.ErrUnauthenticated)
			return
		}

		id, err := s.tokens.Verify(token)
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIdentity(ctx context.Context) core.IdentityProvider {
	if id, ok := ctx.Value(identityContextKey).(core.Identity); ok {
		return identity.Static(id)
	}
	return identity.Static{}
}
