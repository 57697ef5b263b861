// Package history records analysis summaries in a bbolt database and
// derives dashboard KPIs from them. Only counts and term tallies are
// stored, never the analyzed text.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/ppiankov/inclusify/internal/model"
	"github.com/ppiankov/inclusify/internal/score"
)

// ErrDisabled is returned by a nil Store
var ErrDisabled = errors.New("history disabled")

var bucketAnalyses = []byte("analyses")

// Entry is one recorded analysis
type Entry struct {
	ID         string            `json:"id"`
	ReportID   string            `json:"report_id,omitempty"`
	AnalyzedAt time.Time         `json:"analyzed_at"`
	SourceKind model.SourceKind  `json:"source_kind"`
	SourceName string            `json:"source_name"`
	WordCount  int               `json:"word_count"`
	Counts     model.Counts      `json:"counts"`
	Score      int               `json:"score"`
	Terms      []model.TermCount `json:"terms"`
}

// Issues returns the number of occurrences recorded in the entry
func (e Entry) Issues() int {
	return e.Counts.Total()
}

// Store is the bbolt-backed history. A nil *Store behaves as disabled.
type Store struct {
	db *bolt.DB
}

// DefaultPath returns ~/.inclusify/history.db
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".inclusify", "history.db"), nil
}

// Open opens (or creates) the history database at path
func Open(path string) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAnalyses)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a summary of report
func (s *Store) Record(report *model.Report) (Entry, error) {
	if s == nil {
		return Entry{}, ErrDisabled
	}
	if report == nil {
		return Entry{}, fmt.Errorf("nil report")
	}

	// Version 7 IDs sort by creation time, so key order is record order
	id, err := uuid.NewV7()
	if err != nil {
		return Entry{}, fmt.Errorf("generate id: %w", err)
	}

	entry := Entry{
		ID:         id.String(),
		ReportID:   report.ID,
		AnalyzedAt: report.AnalyzedAt,
		SourceKind: report.Source.Kind,
		SourceName: report.Source.Name,
		WordCount:  report.WordCount,
		Counts:     report.Analysis.Counts,
		Score:      report.Score.Index,
		Terms:      score.CountTerms(report.Analysis.Annotations),
	}
	if entry.AnalyzedAt.IsZero() {
		entry.AnalyzedAt = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal entry: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAnalyses).Put(id[:], data)
	})
	if err != nil {
		return Entry{}, fmt.Errorf("write entry: %w", err)
	}
	return entry, nil
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (s *Store) List(limit int) ([]Entry, error) {
	if s == nil {
		return nil, ErrDisabled
	}

	entries := []Entry{}
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketAnalyses).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("unmarshal entry %x: %w", k, err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Count returns the number of recorded analyses
func (s *Store) Count() (int, error) {
	if s == nil {
		return 0, ErrDisabled
	}
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketAnalyses).Stats().KeyN
		return nil
	})
	return n, err
}

// Clear removes every recorded analysis
func (s *Store) Clear() error {
	if s == nil {
		return ErrDisabled
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketAnalyses); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketAnalyses)
		return err
	})
}

// Stats aggregates every recorded analysis into dashboard KPIs
func (s *Store) Stats(topTerms int) (Stats, error) {
	entries, err := s.List(0)
	if err != nil {
		return Stats{}, err
	}
	return Aggregate(entries, topTerms), nil
}
