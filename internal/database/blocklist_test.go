package database

import (
	"path/filepath"
	"testing"
)

func newBlocklistDB(t *testing.T) *DB {
	t.Helper()

	db, err := Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	for _, word := range []string{"badword", "awful"} {
		if _, err := db.Exec("INSERT INTO blocked_words (word) VALUES (?)", word); err != nil {
			t.Fatalf("failed to insert blocked word: %v", err)
		}
	}
	return db
}

func TestIsBlockedWord(t *testing.T) {
	db := newBlocklistDB(t)

	tests := []struct {
		word    string
		blocked bool
	}{
		{"badword", true},
		{"BadWord", true},
		{"  badword  ", true},
		{"friendly", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			blocked, err := db.IsBlockedWord(tt.word)
			if err != nil {
				t.Fatalf("IsBlockedWord(%q) failed: %v", tt.word, err)
			}
			if blocked != tt.blocked {
				t.Errorf("IsBlockedWord(%q) = %v, want %v", tt.word, blocked, tt.blocked)
			}
		})
	}
}

func TestFindBlockedWords(t *testing.T) {
	db := newBlocklistDB(t)

	tests := []struct {
		name string
		text string
		want int
	}{
		{"clean text", "we love the park and picnics", 0},
		{"one match", "what a badword to use", 1},
		{"case and punctuation", "Badword! truly AWFUL.", 2},
		{"repeated word reported once", "badword badword badword", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocked, err := db.FindBlockedWords(tt.text)
			if err != nil {
				t.Fatalf("FindBlockedWords failed: %v", err)
			}
			if len(blocked) != tt.want {
				t.Errorf("FindBlockedWords(%q) = %v, want %d words", tt.text, blocked, tt.want)
			}
		})
	}
}
