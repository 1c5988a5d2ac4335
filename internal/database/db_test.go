package database

import (
	"strings"
	"testing"
	"time"
)

func TestDSNConfig(t *testing.T) {
	cfg := dsnConfig("app", "secret", "db.internal", "3306", "reservations")

	if cfg.Addr != "db.internal:3306" {
		t.Errorf("Addr = %q, want %q", cfg.Addr, "db.internal:3306")
	}
	if !cfg.ParseTime {
		t.Error("ParseTime must be enabled so DATETIME columns scan into time.Time")
	}
	if cfg.Loc != time.UTC {
		t.Errorf("Loc = %v, want UTC", cfg.Loc)
	}

	dsn := cfg.FormatDSN()
	if !strings.HasPrefix(dsn, "app:secret@tcp(db.internal:3306)/reservations") {
		t.Errorf("unexpected DSN shape: %q", dsn)
	}
	if !strings.Contains(dsn, "charset=utf8mb4") {
		t.Errorf("DSN missing charset param: %q", dsn)
	}
}

func TestDSNConfig_EmptyPassword(t *testing.T) {
	dsn := dsnConfig("app", "", "localhost", "3306", "reservations").FormatDSN()
	if !strings.HasPrefix(dsn, "app@tcp(") {
		t.Errorf("empty password must not leave a dangling colon: %q", dsn)
	}
}
