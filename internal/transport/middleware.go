package transport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type channelKey struct{}

// ChannelFromContext returns the surface channel set by RequireChannel.
func ChannelFromContext(ctx context.Context) (string, bool) {
	channel, ok := ctx.Value(channelKey{}).(string)
	return channel, ok
}

// RequireChannel rejects requests whose {channel} URL parameter is not in
// the allowed set and stores the channel in the request context otherwise.
func RequireChannel(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		set[name] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			channel := chi.URLParam(r, "channel")
			if _, ok := set[channel]; !ok {
				respondError(w, http.StatusNotFound, "unknown channel")
				return
			}
			ctx := context.WithValue(r.Context(), channelKey{}, channel)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
