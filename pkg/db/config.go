package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// findProjectRoot looks for go.mod file to determine project root
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// DSN describes where the progress ledger lives. The default is a
// SQLite file next to the downloaded data; pointing LEDGER_DSN at a
// postgres URL moves the ledger to a shared server instead.
type DSN struct {
	// Driver is "sqlite" or "postgres"
	Driver string
	// Value is the gorm DSN: a file path for sqlite, a URL for postgres
	Value string
}

// resolveDSN builds the ledger DSN from the environment.
func resolveDSN() DSN {
	raw := os.Getenv("LEDGER_DSN")

	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return DSN{Driver: "postgres", Value: raw}
	case strings.HasPrefix(raw, "sqlite://"):
		return DSN{Driver: "sqlite", Value: strings.TrimPrefix(raw, "sqlite://")}
	case raw != "":
		return DSN{Driver: "sqlite", Value: raw}
	default:
		dataDir := os.Getenv("QUANTLAKE_DATA_DIR")
		if dataDir == "" {
			dataDir = "data"
		}
		return DSN{Driver: "sqlite", Value: filepath.Join(dataDir, "quantlake.db")}
	}
}

// migrateURL renders the DSN in the form golang-migrate expects.
func (d DSN) migrateURL() string {
	if d.Driver == "postgres" {
		return d.Value
	}
	return "sqlite3://" + d.Value
}
