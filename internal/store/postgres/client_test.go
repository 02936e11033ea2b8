package postgres

import (
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  ClientConfig
		want string
	}{
		{
			name: "explicit dsn wins",
			cfg:  ClientConfig{DSN: "postgres://u:p@db/x", Host: "ignored"},
			want: "postgres://u:p@db/x",
		},
		{
			name: "defaults port and sslmode",
			cfg:  ClientConfig{Host: "localhost", Database: "offerbot", User: "bot", Password: "pw"},
			want: "postgres://bot:pw@localhost:5432/offerbot?sslmode=disable",
		},
		{
			name: "custom port and sslmode",
			cfg:  ClientConfig{Host: "db", Port: 6432, Database: "offerbot", User: "bot", Password: "pw", SSLMode: "require"},
			want: "postgres://bot:pw@db:6432/offerbot?sslmode=require",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DSN(tt.cfg); got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("got %d migrations, want at least 2", len(entries))
	}

	data, err := migrationsFS.ReadFile("migrations/" + entries[0].Name())
	if err != nil {
		t.Fatalf("read %s: %v", entries[0].Name(), err)
	}
	for _, table := range []string{"offers", "offer_history", "authentication_tokens", "currency_configs", "audit_log"} {
		if !strings.Contains(string(data), "CREATE TABLE IF NOT EXISTS "+table+" ") {
			t.Errorf("%s does not create table %s", entries[0].Name(), table)
		}
	}
}

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/002_history_archive.sql": {Data: []byte("--")},
		"migrations/001_init.sql":            {Data: []byte("--")},
		"migrations/003_next.sql":            {Data: []byte("--")},
		"migrations/README.md":               {Data: []byte("notes")},
	}

	got, err := pendingMigrations(fsys, []string{"001_init.sql"})
	if err != nil {
		t.Fatalf("pendingMigrations: %v", err)
	}
	want := []string{"002_history_archive.sql", "003_next.sql"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("pending = %v, want %v", got, want)
	}

	got, err = pendingMigrations(fsys, []string{"001_init.sql", "002_history_archive.sql", "003_next.sql"})
	if err != nil {
		t.Fatalf("pendingMigrations: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("pending = %v, want none", got)
	}
}
