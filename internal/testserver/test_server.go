// Package testserver runs the full HTTP surface over an in-memory database
// for end-to-end tests.
package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/metafirst/supervisor/internal/app"
	"github.com/metafirst/supervisor/internal/config"
	"github.com/metafirst/supervisor/internal/mcp"
	"github.com/metafirst/supervisor/internal/metrics"
	"github.com/metafirst/supervisor/internal/sqlite"
	"github.com/metafirst/supervisor/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server  *httptest.Server
	App     *app.App
	Token   string
	ActorID string
}

// New starts a server with auth enabled and registers token for actorID.
func New(t *testing.T, token, actorID string) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	a := app.New(db, app.Options{Metrics: metrics.New(), SweepWorkers: 2})

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      a.MCPServices(),
		Resolver:      a.APIKeys,
		AuthEnabled:   true,
		TransportMode: config.TransportHTTP,
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: 5 * time.Minute},
	)

	server := httptest.NewServer(transport.NewServer(transport.Options{
		RPC:     mcp.NewHandler(a.MCPServices()),
		Ingests: a.Ingests,
		Auth:    transport.AuthMiddleware(a.APIKeys),
		MCP:     mcpHandler,
		Metrics: a.Metrics.Handler(),
	}))

	ts := &TestServer{
		Server:  server,
		App:     a,
		Token:   token,
		ActorID: actorID,
	}

	require.NoError(t, ts.AddAPIKey(token, actorID))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// AddAPIKey lets token authenticate as actorID.
func (ts *TestServer) AddAPIKey(token, actorID string) error {
	return ts.App.APIKeys.Create(context.Background(), token, actorID, "test key")
}
