// Command oedit-bench drives a synthetic edit workload (random inserts,
// deletes and overwrites) against the omegaedit library and persists
// per-operation latency samples to a SQLite file, with WAL journaling and
// a user_version schema marker.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	_ "github.com/mattn/go-sqlite3"

	omegaedit "github.com/calvinalkan/omegaedit"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "oedit-bench: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("oedit-bench", flag.ContinueOnError)

	dbPath := fs.String("db", "oedit-bench.sqlite", "where to persist result samples")
	iterations := fs.IntP("iterations", "n", 1000, "number of edit operations to perform")
	size := fs.Int64P("size", "s", 1<<20, "initial synthetic file size in bytes")
	seed := fs.Int64("seed", 1, "PRNG seed for reproducible workloads")

	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()

	db, err := openResultsDB(ctx, *dbPath)
	if err != nil {
		return fmt.Errorf("open results db: %w", err)
	}
	defer db.Close()

	runID := time.Now().UTC().Format(time.RFC3339Nano)

	tmp, err := os.CreateTemp("", "oedit-bench-*.bin")
	if err != nil {
		return fmt.Errorf("create synthetic file: %w", err)
	}

	defer os.Remove(tmp.Name())

	if err := writeSyntheticContent(tmp, *size, *seed); err != nil {
		return fmt.Errorf("write synthetic content: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close synthetic file: %w", err)
	}

	s, err := omegaedit.Open(tmp.Name(), omegaedit.OpenOptions{})
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer s.Close()

	rng := rand.New(rand.NewSource(*seed))
	recorded := 0

	for i := 0; i < *iterations; i++ {
		op := rng.Intn(3)
		start := time.Now()

		switch op {
		case 0:
			offset := rng.Int63n(s.ComputedSize() + 1)
			_, err = s.InsertBytes(offset, randomBytes(rng, 1+rng.Intn(64)))
		case 1:
			size := s.ComputedSize()
			if size == 0 {
				continue
			}

			offset := rng.Int63n(size)
			length := rng.Int63n(size-offset) + 1
			_, err = s.Delete(offset, length)
		default:
			size := s.ComputedSize()
			if size == 0 {
				continue
			}

			offset := rng.Int63n(size)
			n := 1 + rng.Intn(32)
			if int64(n) > size-offset {
				n = int(size - offset)
			}

			_, err = s.OverwriteBytes(offset, randomBytes(rng, n))
		}

		elapsed := time.Since(start)

		if err != nil {
			return fmt.Errorf("operation %d failed: %w", i, err)
		}

		if err := recordSample(ctx, db, runID, opName(op), i, elapsed); err != nil {
			return fmt.Errorf("record sample: %w", err)
		}

		recorded++
	}

	fmt.Printf("run %s: %d operations recorded to %s\n", runID, recorded, *dbPath)

	return nil
}

func opName(op int) string {
	switch op {
	case 0:
		return "insert"
	case 1:
		return "delete"
	default:
		return "overwrite"
	}
}

func randomBytes(rng *rand.Rand, n int) []byte {
	b := make([]byte, n)
	_, _ = rng.Read(b)

	return b
}

func writeSyntheticContent(f *os.File, size, seed int64) error {
	rng := rand.New(rand.NewSource(seed))

	const chunk = 1 << 16

	remaining := size
	buf := make([]byte, chunk)

	for remaining > 0 {
		n := int64(len(buf))
		if n > remaining {
			n = remaining
		}

		_, _ = rng.Read(buf[:n])

		if _, err := f.Write(buf[:n]); err != nil {
			return err
		}

		remaining -= n
	}

	return nil
}

const resultsSchemaVersion = 1

func openResultsDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA user_version = `+fmt.Sprint(resultsSchemaVersion)+`;

		CREATE TABLE IF NOT EXISTS samples (
			run_id    TEXT NOT NULL,
			op        TEXT NOT NULL,
			seq       INTEGER NOT NULL,
			nanos     INTEGER NOT NULL,
			recorded  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS samples_run_idx ON samples(run_id);
	`)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return db, nil
}

func recordSample(ctx context.Context, db *sql.DB, runID, op string, seq int, elapsed time.Duration) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO samples (run_id, op, seq, nanos) VALUES (?, ?, ?, ?)`,
		runID, op, seq, elapsed.Nanoseconds())

	return err
}
