package trips

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/oarkflow/squealx"
	"github.com/oarkflow/squealx/connection"
	_ "modernc.org/sqlite"
)

// Store holds the trip manifest keyed by claim number. The manifest comes
// from dispatch exports joined against remittance claims during rendering.
type Store struct {
	db *squealx.DB
}

// New opens (or creates) the trip store at path.
func New(path string) (*Store, error) {
	db, _, err := connection.FromConfig(squealx.Config{
		Driver:   "sqlite",
		Database: path,
	})
	if err != nil {
		return nil, fmt.Errorf("open trip store: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmt := `CREATE TABLE IF NOT EXISTS trips (
		claim_number TEXT PRIMARY KEY,
		vehicle TEXT NOT NULL DEFAULT '',
		origin TEXT NOT NULL DEFAULT '',
		destination TEXT NOT NULL DEFAULT ''
	);`
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("run trip migration: %w", err)
	}
	return nil
}

// LoadCSV imports a trip manifest. Expected columns: claim number, vehicle,
// origin, destination. A header row is detected by its first column name.
func (s *Store) LoadCSV(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open trip manifest: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	count := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("read trip manifest: %w", err)
		}
		if len(rec) < 4 {
			continue
		}
		if strings.EqualFold(rec[0], "claim_number") || strings.EqualFold(rec[0], "claim") {
			continue
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO trips (claim_number, vehicle, origin, destination)
			 VALUES (?, ?, ?, ?)`,
			rec[0], rec[1], rec[2], rec[3])
		if err != nil {
			return count, fmt.Errorf("insert trip: %w", err)
		}
		count++
	}
	return count, nil
}

// LookupTrip returns manifest metadata for a claim number.
func (s *Store) LookupTrip(ctx context.Context, claimNumber string) (map[string]string, bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT vehicle, origin, destination FROM trips WHERE claim_number = ?`,
		claimNumber)
	if err != nil {
		return nil, false, fmt.Errorf("query trip: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, false, nil
	}
	var vehicle, origin, destination string
	if err := rows.Scan(&vehicle, &origin, &destination); err != nil {
		return nil, false, fmt.Errorf("scan trip: %w", err)
	}
	return map[string]string{
		"vehicle":     vehicle,
		"origin":      origin,
		"destination": destination,
	}, true, nil
}

// Close releases the store.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
