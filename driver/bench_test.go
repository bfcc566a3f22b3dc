package driver

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// runBothDrivers runs |fn| against a fresh database of this driver, and of
// the cgo sqlite3 driver for comparison.
func runBothDrivers(b *testing.B, fn func(b *testing.B, db *sql.DB)) {
	var open = map[string]func(b *testing.B) *sql.DB{
		"native": func(b *testing.B) *sql.DB {
			db, err := sql.Open(DriverName, dsn(b, filepath.Join(b.TempDir(), "bench.db")))
			if err != nil {
				b.Fatal(err)
			}
			return db
		},
		"cgo": func(b *testing.B) *sql.DB {
			db, err := sql.Open("sqlite3", filepath.Join(b.TempDir(), "bench.db"))
			if err != nil {
				b.Fatal(err)
			}
			return db
		},
	}
	for _, name := range []string{"native", "cgo"} {
		b.Run(name, func(b *testing.B) {
			var db = open[name](b)
			defer db.Close()
			fn(b, db)
		})
	}
}

func setupBenchTable(b *testing.B, db *sql.DB, n int) {
	if _, err := db.Exec(`CREATE TABLE bench (id INTEGER PRIMARY KEY, name TEXT, value REAL)`); err != nil {
		b.Fatal(err)
	}
	tx, err := db.Begin()
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i != n; i++ {
		if _, err = tx.Exec(`INSERT INTO bench VALUES (?, ?, ?)`, i, "name", float64(i)*1.5); err != nil {
			b.Fatal(err)
		}
	}
	if err = tx.Commit(); err != nil {
		b.Fatal(err)
	}
}

func BenchmarkPointSelect(b *testing.B) {
	runBothDrivers(b, func(b *testing.B, db *sql.DB) {
		setupBenchTable(b, db, 1000)

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			var id int64
			var name string
			var value float64

			if err := db.QueryRow(`SELECT id, name, value FROM bench WHERE id = ?`, i%1000).
				Scan(&id, &name, &value); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkRangeSelect(b *testing.B) {
	runBothDrivers(b, func(b *testing.B, db *sql.DB) {
		setupBenchTable(b, db, 1000)

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			var start = (i * 100) % 900

			rows, err := db.Query(`SELECT id, name, value FROM bench WHERE id BETWEEN ? AND ?`, start, start+100)
			if err != nil {
				b.Fatal(err)
			}
			var count int
			for rows.Next() {
				var id int64
				var name string
				var value float64
				if err := rows.Scan(&id, &name, &value); err != nil {
					b.Fatal(err)
				}
				count++
			}
			if err = rows.Close(); err != nil {
				b.Fatal(err)
			} else if count == 0 {
				b.Fatal("no rows returned")
			}
		}
	})
}

func BenchmarkInsertInTransaction(b *testing.B) {
	runBothDrivers(b, func(b *testing.B, db *sql.DB) {
		setupBenchTable(b, db, 0)

		b.ResetTimer()
		tx, err := db.Begin()
		if err != nil {
			b.Fatal(err)
		}
		for i := 0; i < b.N; i++ {
			if _, err = tx.Exec(`INSERT INTO bench (name, value) VALUES (?, ?)`, "name", float64(i)); err != nil {
				b.Fatal(err)
			}
		}
		if err = tx.Commit(); err != nil {
			b.Fatal(err)
		}
	})
}
