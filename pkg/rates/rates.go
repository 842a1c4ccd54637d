package rates

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/oarkflow/squealx"
	"github.com/oarkflow/squealx/connection"
	_ "modernc.org/sqlite"

	"github.com/oarkflow/remit/pkg/contracts"
)

// mileageBaseUnits is the benchmark base unit count for ambulance rates.
const mileageBaseUnits = 15

// DefaultMileageRates are the per-mile benchmark unit rates for ambulance
// mileage procedures, used when a payer profile does not override them.
var DefaultMileageRates = map[string]float64{
	"A0425": 18.0,
	"A0435": 19.0,
	"A0436": 36.0,
}

// Service resolves benchmark rates from a SQLite-backed table with an
// in-memory cache in front.
type Service struct {
	db    *squealx.DB
	cache *ristretto.Cache
}

// New opens (or creates) the rate store at path and prepares the cache.
func New(path string) (*Service, error) {
	db, _, err := connection.FromConfig(squealx.Config{
		Driver:   "sqlite",
		Database: path,
	})
	if err != nil {
		return nil, fmt.Errorf("open rate store: %w", err)
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 100_000,
		MaxCost:     10_000,
		BufferItems: 64,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create rate cache: %w", err)
	}
	s := &Service{db: db, cache: cache}
	if err := s.migrate(context.Background()); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS benchmark_rates (
			zip TEXT NOT NULL,
			code TEXT NOT NULL,
			effective TEXT NOT NULL,
			in_network REAL NOT NULL DEFAULT 0,
			out_of_network REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (zip, code, effective)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_rates_lookup ON benchmark_rates(zip, code, effective DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("run rate migration: %w", err)
		}
	}
	return nil
}

// LoadCSV imports a rate table. Expected columns: zip, procedure code,
// effective date (CCYYMMDD), in-network rate, out-of-network rate. A header
// row is detected and skipped.
func (s *Service) LoadCSV(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open rate table: %w", err)
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
			return count, fmt.Errorf("read rate table: %w", err)
		}
		if len(rec) < 5 {
			continue
		}
		if _, err := strconv.Atoi(rec[0]); err != nil {
			// header or junk row
			continue
		}
		in, err1 := strconv.ParseFloat(rec[3], 64)
		out, err2 := strconv.ParseFloat(rec[4], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO benchmark_rates (zip, code, effective, in_network, out_of_network)
			 VALUES (?, ?, ?, ?, ?)`,
			rec[0], rec[1], rec[2], in, out)
		if err != nil {
			return count, fmt.Errorf("insert rate: %w", err)
		}
		count++
	}
	return count, nil
}

// LookupRate returns the newest rate effective on or before the service
// date. Results are cached per zip, code and day.
func (s *Service) LookupRate(ctx context.Context, zip, code string, day time.Time) (contracts.Rate, bool, error) {
	key := zip + "|" + code + "|" + day.Format("20060102")
	if v, ok := s.cache.Get(key); ok {
		if rate, ok := v.(contracts.Rate); ok {
			return rate, true, nil
		}
		return contracts.Rate{}, false, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT effective, in_network, out_of_network FROM benchmark_rates
		 WHERE zip = ? AND code = ? AND effective <= ?
		 ORDER BY effective DESC LIMIT 1`,
		zip, code, day.Format("20060102"))
	if err != nil {
		return contracts.Rate{}, false, fmt.Errorf("query rate: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		// mileage codes fall back to the benchmark per-mile default
		if perMile, ok := DefaultMileageRates[code]; ok {
			rate := contracts.Rate{
				InNetwork:    perMile * mileageBaseUnits,
				OutOfNetwork: perMile * mileageBaseUnits,
				Effective:    day,
			}
			s.cache.Set(key, rate, 1)
			return rate, true, nil
		}
		s.cache.Set(key, nil, 1)
		return contracts.Rate{}, false, nil
	}
	var effective string
	var rate contracts.Rate
	if err := rows.Scan(&effective, &rate.InNetwork, &rate.OutOfNetwork); err != nil {
		return contracts.Rate{}, false, fmt.Errorf("scan rate: %w", err)
	}
	if t, err := time.Parse("20060102", effective); err == nil {
		rate.Effective = t
	}
	s.cache.Set(key, rate, 1)
	return rate, true, nil
}

// MileageRate returns the default per-mile unit rate for a mileage code.
func (s *Service) MileageRate(code string) (float64, bool) {
	v, ok := DefaultMileageRates[code]
	return v, ok
}

// Close releases the store and the cache.
func (s *Service) Close() error {
	if s.cache != nil {
		s.cache.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
