package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"accounting/internal/core"
)

const (
	transactionsFile = "transactions.json"
	categoriesFile   = "categories.json"
)

type dataPaths struct {
	transactions string
	categories   string
}

func prepareDataDir(dataDir string) (dataPaths, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return dataPaths{}, fmt.Errorf("create data directory: %w", err)
	}
	return dataPaths{
		transactions: filepath.Join(dataDir, transactionsFile),
		categories:   filepath.Join(dataDir, categoriesFile),
	}, nil
}

// load reads both data files, seeding them on first run. A file that exists
// but does not parse surfaces as ErrCorruptData and is never overwritten.
func (s *Store) load() error {
	if err := readJSONFile(s.transactionsPath, &s.transactions); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		s.transactions = []core.Transaction{}
		if err := writeJSONFileAtomic(s.transactionsPath, s.transactions); err != nil {
			return fmt.Errorf("seed transactions file: %w", err)
		}
	}

	if err := readJSONFile(s.categoriesPath, &s.categories); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		s.categories = core.DefaultCategories()
		if err := writeJSONFileAtomic(s.categoriesPath, s.categories); err != nil {
			return fmt.Errorf("seed categories file: %w", err)
		}
	}

	s.known = make(map[string]bool, len(s.categories))
	for _, c := range s.categories {
		s.known[c.Name] = true
	}
	return nil
}

// persistTransactionsLocked writes the transactions file. Callers hold the
// write lock.
func (s *Store) persistTransactionsLocked() error {
	return writeJSONFileAtomic(s.transactionsPath, s.transactions)
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptData, filepath.Base(path), err)
	}
	return nil
}

// writeJSONFileAtomic writes v to a temporary file in the target directory
// and renames it over path, so an interrupted write never leaves a partial
// document behind.
func writeJSONFileAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
