package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spigell/teacherlink-search/internal/filtering"
)

// File keeps criteria in a JSON document shaped like browser local storage:
// {"<key>": <criteria>}. Other keys in the document are preserved.
type File struct {
	mu   sync.Mutex
	path string
	key  string
}

func NewFile(path, key string) *File {
	return &File{path: path, key: key}
}

func (f *File) Load(context.Context) (filtering.Criteria, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return filtering.Criteria{}, err
	}

	raw, ok := doc[f.key]
	if !ok || string(raw) == "null" {
		return filtering.Criteria{}, ErrNotFound
	}

	c, err := filtering.ParseCriteria(raw)
	if err != nil {
		return filtering.Criteria{}, fmt.Errorf("parsing saved filters from %s: %w", f.path, err)
	}
	return c, nil
}

func (f *File) Save(_ context.Context, criteria filtering.Criteria) error {
	if err := criteria.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(criteria)
	if err != nil {
		return err
	}
	doc[f.key] = raw

	return f.write(doc)
}

func (f *File) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := doc[f.key]; !ok {
		return nil
	}
	delete(doc, f.key)

	return f.write(doc)
}

// read returns an empty document when the file does not exist yet.
func (f *File) read() (map[string]json.RawMessage, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, err
	}
	defer file.Close()

	doc := map[string]json.RawMessage{}
	if err := json.NewDecoder(file).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", f.path, err)
	}
	if doc == nil {
		doc = map[string]json.RawMessage{}
	}
	return doc, nil
}

// write replaces the file atomically.
func (f *File) write(doc map[string]json.RawMessage) error {
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), f.path)
}
