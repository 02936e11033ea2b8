package postgres

import (
	"io/fs"
	"regexp"
	"strings"
	"testing"
)

var historyWrite = regexp.MustCompile(`(?i)(UPDATE\s+offer_history\b|ALTER\s+TABLE\s+offer_history\s)`)

func TestHistoryArchiveQueriesLeaveHistoryWriteOnce(t *testing.T) {
	for name, query := range map[string]string{
		"listUnarchived": listUnarchivedSQL,
		"markArchived":   markArchivedSQL,
	} {
		if historyWrite.MatchString(query) {
			t.Errorf("%s writes offer_history: %s", name, query)
		}
	}
	if !strings.Contains(markArchivedSQL, "INSERT INTO offer_history_archive") {
		t.Errorf("markArchived does not record into offer_history_archive: %s", markArchivedSQL)
	}
	if !strings.Contains(listUnarchivedSQL, "offer_history_archive") {
		t.Errorf("listUnarchived ignores offer_history_archive: %s", listUnarchivedSQL)
	}
}

func TestMigrationsKeepHistoryWriteOnce(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}

	var archiveTable, trigger bool
	for _, e := range entries {
		data, err := migrationsFS.ReadFile("migrations/" + e.Name())
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		sql := string(data)
		if historyWrite.MatchString(sql) {
			t.Errorf("%s alters or updates offer_history", e.Name())
		}
		archiveTable = archiveTable || strings.Contains(sql, "CREATE TABLE IF NOT EXISTS offer_history_archive")
		trigger = trigger || strings.Contains(sql, "BEFORE UPDATE ON offer_history")
	}
	if !archiveTable {
		t.Error("no migration creates offer_history_archive")
	}
	if !trigger {
		t.Error("no migration guards offer_history against updates")
	}
}
