package database

import (
	"bufio"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const blocklistURL = "https://raw.githubusercontent.com/LDNOOBW/List-of-Dirty-Naughty-Obscene-and-Otherwise-Bad-Words/refs/heads/master/en"

// SeedBlocklist fetches and seeds the blocked words list used to
// screen profile bios and message content
func (db *DB) SeedBlocklist() error {
	// Check if blocked words already exist
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM blocked_words").Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check blocklist count: %w", err)
	}

	if count > 0 {
		log.WithField("words", count).Debug("content blocklist already populated")
		return nil
	}

	log.Info("downloading content blocklist")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(blocklistURL)
	if err != nil {
		return fmt.Errorf("failed to download blocklist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status code from blocklist URL: %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	wordsAdded := 0

	// Bulk insert inside one transaction
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertQuery := "INSERT INTO blocked_words (word) VALUES (?)"
	rewrittenQuery := db.Dialect.RewriteQuery(insertQuery)

	stmt, err := tx.Prepare(rewrittenQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for scanner.Scan() {
		word := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if word == "" {
			continue
		}

		if _, err := stmt.Exec(word); err != nil {
			// Skip duplicates, continue adding others
			continue
		}
		wordsAdded++
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading blocklist: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("words", wordsAdded).Info("content blocklist populated")
	return nil
}

// IsBlockedWord checks if a single word is on the blocklist
func (db *DB) IsBlockedWord(word string) (bool, error) {
	cleanWord := strings.TrimSpace(strings.ToLower(word))

	var count int
	query := "SELECT COUNT(*) FROM blocked_words WHERE word = ?"
	err := db.QueryRow(query, cleanWord).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check blocked word: %w", err)
	}

	return count > 0, nil
}

// FindBlockedWords screens free text (bios, message content) and
// returns any blocked words found
func (db *DB) FindBlockedWords(text string) ([]string, error) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '\''
	})

	seen := make(map[string]bool)
	var blocked []string
	for _, word := range words {
		if seen[word] {
			continue
		}
		seen[word] = true

		isBlocked, err := db.IsBlockedWord(word)
		if err != nil {
			return nil, err
		}
		if isBlocked {
			blocked = append(blocked, word)
		}
	}

	return blocked, nil
}
