package cli

import (
	"context"
	"strings"

	"github.com/recallkb/recall/internal/store"
	"github.com/recallkb/recall/internal/store/mongodb"
	"github.com/recallkb/recall/internal/store/sqlite"
)

// openStore dispatches on the connection string: mongodb URIs go to the
// document store, anything else is treated as a SQLite path.
func openStore(ctx context.Context, uri string) (store.Store, error) {
	if strings.HasPrefix(uri, "mongodb://") || strings.HasPrefix(uri, "mongodb+srv://") {
		return mongodb.Open(ctx, uri)
	}
	return sqlite.Open(uri)
}
