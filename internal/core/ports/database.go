// internal/core/ports/database.go
package ports

import "context"

// Database is the part of the relational backend the presentation layer
// needs: liveness and pool statistics for the health endpoints.
type Database interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) map[string]interface{}
	Close()
}
