package config

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jProvider owns the process-wide Neo4j driver. The driver is built
// once through a fallback chain of transport schemes and cached; a failed
// liveness check invalidates the cache so the next caller rebuilds it.
// Routing errors against Aura-style neo4j:// URIs are the usual trigger for
// the bolt:// fallback; certificate failures trigger the +ssc variants.
type Neo4jProvider struct {
	cfg *Config

	mu     sync.Mutex
	driver neo4j.DriverWithContext
}

func NewNeo4jProvider(cfg *Config) *Neo4jProvider {
	return &Neo4jProvider{cfg: cfg}
}

// Driver returns the cached driver, connecting through the fallback chain
// if no verified driver is cached yet.
func (p *Neo4jProvider) Driver(ctx context.Context) (neo4j.DriverWithContext, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.driver != nil {
		return p.driver, nil
	}

	driver, err := p.connect(ctx)
	if err != nil {
		return nil, err
	}
	p.driver = driver
	return p.driver, nil
}

// CheckLiveness pings the cached driver. On failure the cached driver is
// closed and dropped so the next Driver call rebuilds through the chain.
func (p *Neo4jProvider) CheckLiveness(ctx context.Context) error {
	p.mu.Lock()
	driver := p.driver
	p.mu.Unlock()

	if driver == nil {
		return nil
	}

	if err := livenessQuery(ctx, driver, p.cfg.Neo4jDatabase); err != nil {
		slog.Warn("neo4j liveness check failed, invalidating cached driver", "error", err)
		p.mu.Lock()
		if p.driver == driver {
			p.driver = nil
		}
		p.mu.Unlock()
		_ = driver.Close(ctx)
		return err
	}
	return nil
}

func (p *Neo4jProvider) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.driver == nil {
		return nil
	}
	err := p.driver.Close(ctx)
	p.driver = nil
	return err
}

// connect walks the transport candidates and caches the first driver that
// answers a trivial liveness query. Unverified drivers are never returned.
func (p *Neo4jProvider) connect(ctx context.Context) (neo4j.DriverWithContext, error) {
	auth := neo4j.BasicAuth(p.cfg.Neo4jUser, p.cfg.Neo4jPassword, "")

	var lastErr error
	for _, uri := range candidateURIs(p.cfg.Neo4jURI) {
		driver, err := neo4j.NewDriverWithContext(uri, auth)
		if err != nil {
			lastErr = err
			continue
		}

		verifyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = livenessQuery(verifyCtx, driver, p.cfg.Neo4jDatabase)
		cancel()
		if err != nil {
			slog.Warn("neo4j candidate failed verification", "uri", uri, "error", err)
			_ = driver.Close(ctx)
			lastErr = err
			continue
		}

		if uri != p.cfg.Neo4jURI {
			slog.Info("neo4j connected via fallback transport", "from", p.cfg.Neo4jURI, "to", uri)
		}
		return driver, nil
	}

	return nil, fmt.Errorf("neo4j: all transport candidates failed: %w", lastErr)
}

func livenessQuery(ctx context.Context, driver neo4j.DriverWithContext, database string) error {
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return err
	}
	_, err := neo4j.ExecuteQuery(ctx, driver, "RETURN 1", nil,
		neo4j.EagerResultTransformer, neo4j.ExecuteQueryWithDatabase(database))
	return err
}

// candidateURIs builds the fallback chain: the configured URI, its direct
// bolt variant, then the self-signed-cert variants of both.
func candidateURIs(uri string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(u string) {
		if u != "" && !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	add(uri)
	bolt := boltVariant(uri)
	add(bolt)
	add(sscVariant(bolt))
	add(sscVariant(uri))
	return out
}

func boltVariant(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || !strings.HasPrefix(u.Scheme, "neo4j") {
		return uri
	}
	if strings.Contains(u.Scheme, "+s") {
		u.Scheme = "bolt+s"
	} else {
		u.Scheme = "bolt"
	}
	return u.String()
}

func sscVariant(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	switch {
	case strings.HasPrefix(u.Scheme, "neo4j"):
		u.Scheme = "neo4j+ssc"
	case strings.HasPrefix(u.Scheme, "bolt"):
		u.Scheme = "bolt+ssc"
	}
	return u.String()
}
