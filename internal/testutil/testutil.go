// Package testutil provides shared test helpers: JWT minting for the
// control-plane auth tests, gRPC metadata context construction, and an
// in-memory buntdb handle for matrix/repository tests.
package testutil

import (
	"context"
	"testing"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/tidwall/buntdb"
	"google.golang.org/grpc/metadata"

	"github.com/Ptozin/droneswarm/internal/db"
)

// OpenInMemoryDB opens an in-memory buntdb instance and registers a
// t.Cleanup that closes it when the test ends.
func OpenInMemoryDB(t *testing.T) *buntdb.DB {
	t.Helper()
	d, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// GenerateJWTHS256 returns a signed JWT string with minimal claims used by the app.
func GenerateJWTHS256(t *testing.T, secret, name, kind string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"name": name,
		"kind": kind,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

// CtxWithBearer returns a context containing gRPC metadata Authorization header with the given token.
func CtxWithBearer(ctx context.Context, token string) context.Context {
	md := metadata.Pairs("authorization", "Bearer "+token)
	return metadata.NewIncomingContext(ctx, md)
}
