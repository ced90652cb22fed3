package config

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// DB is the global ClickHouse connection pool
var DB driver.Conn

// CHConfig holds the ClickHouse configuration
type CHConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Secure   bool
}

// cfg holds the parsed configuration
var cfg CHConfig

// clusterMapPath is the location of the submarket-to-cluster CSV file.
var clusterMapPath string

// Database returns the configured database name
func Database() string {
	return cfg.Database
}

// SetDatabase sets the configured database name (for testing)
func SetDatabase(db string) {
	cfg.Database = db
}

// ClusterMapPath returns the path of the submarket-to-cluster CSV file.
func ClusterMapPath() string {
	return clusterMapPath
}

// SetClusterMapPath overrides the cluster map location (for testing).
func SetClusterMapPath(path string) {
	clusterMapPath = path
}

// CH returns the parsed ClickHouse configuration.
func CH() CHConfig {
	return cfg
}

// SetDB replaces the global connection pool (for testing).
func SetDB(conn driver.Conn) {
	DB = conn
}

// Load initializes configuration from environment variables and creates the
// connection pool
func Load() error {
	cfg.Addr = os.Getenv("CLICKHOUSE_ADDR_TCP")
	if cfg.Addr == "" {
		cfg.Addr = "localhost:9000"
	}

	cfg.Database = os.Getenv("CLICKHOUSE_DATABASE")
	if cfg.Database == "" {
		cfg.Database = "default"
	}

	cfg.Username = os.Getenv("CLICKHOUSE_USERNAME")
	if cfg.Username == "" {
		cfg.Username = "default"
	}

	cfg.Password = os.Getenv("CLICKHOUSE_PASSWORD")
	cfg.Secure = os.Getenv("CLICKHOUSE_SECURE") == "true"

	clusterMapPath = os.Getenv("CLUSTER_MAP_PATH")
	if clusterMapPath == "" {
		clusterMapPath = "submarket_clusters.csv"
	}

	log.Printf("Connecting to ClickHouse: addr=%s, database=%s, username=%s, secure=%v", cfg.Addr, cfg.Database, cfg.Username, cfg.Secure)

	conn, err := Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to create clickhouse connection: %w", err)
	}

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	DB = conn
	log.Printf("Connected to ClickHouse successfully")

	return nil
}

// Open creates a connection pool for the given configuration.
func Open(c CHConfig) (driver.Conn, error) {
	opts := &clickhouse.Options{
		Addr: []string{c.Addr},
		Auth: clickhouse.Auth{
			Database: c.Database,
			Username: c.Username,
			Password: c.Password,
		},
		DialTimeout:     5 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	}

	// Enable TLS for ClickHouse Cloud (port 9440)
	if c.Secure {
		opts.TLS = &tls.Config{}
	}

	return clickhouse.Open(opts)
}

// Close closes the ClickHouse connection pool
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
