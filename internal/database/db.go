// Package database opens the MySQL connection the reservation service
// stores its users, sessions and reservations in.
package database

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection with a short ping.
// Timestamps live in UTC DATETIME columns; parseTime turns them into
// time.Time on scan.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsnConfig(user, pass, host, port, name).FormatDSN())
	if err != nil {
		return nil, err
	}

	// The booking path serializes writers per bucket, so a modest pool
	// suffices; idle connections are recycled well before MySQL's
	// wait_timeout would cut them server-side.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// dsnConfig builds the driver configuration for the given connection
// parameters. Kept separate from Open so the DSN shape is checkable
// without a running server.
func dsnConfig(user, pass, host, port, name string) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = pass
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, port)
	cfg.DBName = name
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	return cfg
}
