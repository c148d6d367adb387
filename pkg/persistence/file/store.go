package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// writeDoc marshals a record to <root>/<collection>/<id>.json, creating the
// collection directory on first write.
func writeDoc(p *Persistence, collection, id string, record any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	dir := filepath.Join(p.root, collection)

	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create collection directory %s: %w", collection, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s document: %w", collection, err)
	}

	err = os.WriteFile(filepath.Join(dir, id+".json"), data, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write %s document: %w", collection, err)
	}

	return nil
}

// readDoc unmarshals one record; notFound is returned on a lookup miss.
func readDoc(p *Persistence, collection, id string, record any, notFound error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(p.root, collection, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return notFound
		}

		return fmt.Errorf("failed to read %s document: %w", collection, err)
	}

	err = json.Unmarshal(data, record)
	if err != nil {
		return fmt.Errorf("failed to unmarshal %s document: %w", collection, err)
	}

	return nil
}

// readAll loads every record of a collection. A missing collection
// directory is an empty collection.
func readAll[T any](p *Persistence, collection string) ([]*T, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	dir := filepath.Join(p.root, collection)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*T{}, nil
		}

		return nil, fmt.Errorf("failed to read collection %s: %w", collection, err)
	}

	records := make([]*T, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s document: %w", collection, err)
		}

		record := new(T)

		err = json.Unmarshal(data, record)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s document: %w", collection, err)
		}

		records = append(records, record)
	}

	return records, nil
}

// deleteDoc removes one record; notFound is returned when it did not exist.
func deleteDoc(p *Persistence, collection, id string, notFound error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := os.Remove(filepath.Join(p.root, collection, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return notFound
		}

		return fmt.Errorf("failed to delete %s document: %w", collection, err)
	}

	return nil
}
