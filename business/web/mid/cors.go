package mid

import (
	"context"
	"net/http"

	"github.com/opencoin/blockchain/foundation/web"
)

// Cors attaches the cross-origin headers allowing the specified origin,
// so browser wallets served from elsewhere can reach the node.
func Cors(origin string) web.Middleware {
	return func(handler web.Handler) web.Handler {
		return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Origin, Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

			return handler(ctx, w, r)
		}
	}
}
