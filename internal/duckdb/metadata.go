package duckdb

import (
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// SourceFile records a chain file imported into a store.
type SourceFile struct {
	FileFingerprint
	Chains int64
}

// RecordSource notes that chains were imported from the file fp.
func (s *Store) RecordSource(fp FileFingerprint, chains int) error {
	_, err := s.db.Exec(`INSERT INTO source_files VALUES (?, ?, ?, ?)`,
		fp.Path, fp.Size, fp.ModTime.UTC(), int64(chains))
	if err != nil {
		return fmt.Errorf("record source file: %w", err)
	}
	return nil
}

// Sources returns the imported chain files in import order.
func (s *Store) Sources() ([]SourceFile, error) {
	rows, err := s.db.Query(`SELECT path, size, mod_time, chains FROM source_files ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query source files: %w", err)
	}
	defer rows.Close()

	var sources []SourceFile
	for rows.Next() {
		var sf SourceFile
		if err := rows.Scan(&sf.Path, &sf.Size, &sf.ModTime, &sf.Chains); err != nil {
			return nil, fmt.Errorf("scan source file: %w", err)
		}
		sources = append(sources, sf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source files: %w", err)
	}
	return sources, nil
}
