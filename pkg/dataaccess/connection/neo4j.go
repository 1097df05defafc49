package connection

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type Neo4j struct {
	URI      string
	Username string
	Password string

	// MaxPoolSize caps the connections held by the driver. Zero keeps the driver default.
	MaxPoolSize int

	// ConnectTimeout bounds the connectivity check. Defaults to 5 seconds.
	ConnectTimeout time.Duration
}

// Connect creates the pooled driver and verifies it can reach the server.
func (n *Neo4j) Connect(ctx context.Context) (neo4j.DriverWithContext, error) {
	if n.URI == "" {
		return nil, fmt.Errorf("neo4j uri is required")
	}

	driver, err := neo4j.NewDriverWithContext(n.URI, neo4j.BasicAuth(n.Username, n.Password, ""), func(c *neo4j.Config) {
		if n.MaxPoolSize > 0 {
			c.MaxConnectionPoolSize = n.MaxPoolSize
		}
	})
	if err != nil {
		return nil, fmt.Errorf("error creating neo4j driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, timeoutOrDefault(n.ConnectTimeout))
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("error verifying neo4j connectivity: %w", err)
	}
	return driver, nil
}
