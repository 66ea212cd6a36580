// Command client-import bulk-loads legacy client exports: gzip-compressed
// CSV files with one client per line. A bloom filter seeded from the emails
// already in the database skips duplicates without a round trip per row;
// the files are scanned concurrently.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/webstore-backoffice/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

// record is one parsed CSV row. Expected columns:
// first_name,last_name,email,phone,address,city,country
type record struct {
	firstName string
	lastName  string
	email     string
	phone     string
	address   string
	city      string
	country   string
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing clients*.csv.gz files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("client import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("client import completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "clients*.csv.gz"))
	if err != nil {
		return errors.Wrap(err, "list import files")
	}
	if len(files) == 0 {
		return errors.Errorf("no clients*.csv.gz files found in %s", dataDir)
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("seeding bloom filter from existing clients")

	seen, err := seedFilter(ctx, pool)
	if err != nil {
		return errors.Wrap(err, "seed bloom filter")
	}

	slog.Info("importing files", slog.Int("files", len(files)))

	// The filter is shared across files so a duplicate appearing twice in
	// the import set is also skipped. Bloom false positives only cause an
	// extra existence check, never a lost row.
	var mu sync.Mutex
	var imported, skipped int

	g, ctx := errgroup.WithContext(ctx)
	for _, file := range files {
		g.Go(importFile(ctx, pool, file, seen, &mu, &imported, &skipped))
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("import summary", slog.Int("imported", imported), slog.Int("skipped", skipped))
	return nil
}

// seedFilter loads every known client email into a bloom filter.
func seedFilter(ctx context.Context, pool *pgxpool.Pool) (*bloom.BloomFilter, error) {
	filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)

	rows, err := pool.Query(ctx, `SELECT email FROM clients`)
	if err != nil {
		return nil, errors.Wrap(err, "query client emails")
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, errors.Wrap(err, "scan email")
		}
		filter.AddString(strings.ToLower(email))
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slog.Info("bloom filter seeded", slog.Int("emails", count))
	return filter, nil
}

func importFile(
	ctx context.Context,
	pool *pgxpool.Pool,
	path string,
	seen *bloom.BloomFilter,
	mu *sync.Mutex,
	imported, skipped *int,
) func() error {
	return func() error {
		var count int
		err := streamCSV(ctx, path, func(rec record) error {
			count++
			if count%progressEvery == 0 {
				slog.Info("import progress", slog.String("file", path), slog.Int("rows", count))
			}

			email := strings.ToLower(rec.email)

			mu.Lock()
			dup := seen.TestString(email)
			if !dup {
				seen.AddString(email)
			}
			mu.Unlock()

			if dup {
				// Probably known. Let the unique index settle false positives.
				mu.Lock()
				*skipped++
				mu.Unlock()
				return nil
			}

			tag, err := pool.Exec(ctx, `
				INSERT INTO clients (id, first_name, last_name, email, phone, address, city, country)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (email) DO NOTHING`,
				uuid.New().String(), rec.firstName, rec.lastName, email,
				rec.phone, rec.address, rec.city, rec.country,
			)
			if err != nil {
				return errors.Wrapf(err, "insert client %s", email)
			}

			mu.Lock()
			if tag.RowsAffected() > 0 {
				*imported++
			} else {
				*skipped++
			}
			mu.Unlock()
			return nil
		})
		if err != nil {
			return errors.Wrapf(err, "import %s", path)
		}

		slog.Info("file complete", slog.String("file", path), slog.Int("rows", count))
		return nil
	}
}

// streamCSV opens a gzip-compressed CSV file and calls fn for each row.
func streamCSV(ctx context.Context, path string, fn func(record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	reader := csv.NewReader(gz)
	reader.FieldsPerRecord = 7

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "read %s", path)
		}
		if row[2] == "" || row[2] == "email" { // blank or header row
			continue
		}

		if err := fn(record{
			firstName: row[0],
			lastName:  row[1],
			email:     row[2],
			phone:     row[3],
			address:   row[4],
			city:      row[5],
			country:   row[6],
		}); err != nil {
			return err
		}
	}
}
