package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rgehrsitz/mesada/internal/domain"
	"gopkg.in/yaml.v3"
)

// FileStore reads cases from a directory of <id>.yaml files
type FileStore struct {
	dir string

	mu    sync.Mutex
	byDoc map[string]string // document number -> file stem
}

// NewFileStore creates a file store rooted at dir
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, filepath.Base(id)+".yaml")
}

func (s *FileStore) load(id string) (*domain.Case, error) {
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read case %s: %w", id, err)
	}
	var c domain.Case
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse case %s: %w", id, err)
	}
	if c.Pensioner.ID == "" {
		c.Pensioner.ID = id
	}
	return &c, nil
}

// loadByDocument finds the case whose pensioner has the document number
func (s *FileStore) loadByDocument(doc string) (*domain.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byDoc[doc]; ok {
		return s.load(id)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}
	s.byDoc = make(map[string]string, len(entries))
	var match *domain.Case
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), ".yaml")
		c, err := s.load(stem)
		if err != nil {
			continue
		}
		s.byDoc[c.Pensioner.DocumentNumber] = stem
		if c.Pensioner.DocumentNumber == doc {
			match = c
		}
	}
	return match, nil
}

func (s *FileStore) Pensioner(_ context.Context, id string) (domain.Pensioner, error) {
	c, err := s.load(id)
	if err != nil {
		return domain.Pensioner{}, err
	}
	return c.Pensioner, nil
}

func (s *FileStore) Payments(_ context.Context, id string) ([]domain.PaymentRecord, error) {
	c, err := s.load(id)
	if err != nil {
		return nil, err
	}
	return c.Payments, nil
}

func (s *FileStore) HistoricalPayments(_ context.Context, doc string) ([]domain.HistoricalPayment, error) {
	c, err := s.loadByDocument(doc)
	if err != nil || c == nil {
		return nil, err
	}
	return c.Historical, nil
}

func (s *FileStore) SharingRecords(_ context.Context, doc string) ([]domain.SharingRecord, error) {
	c, err := s.loadByDocument(doc)
	if err != nil || c == nil {
		return nil, err
	}
	return c.Sharing, nil
}

// PutCase writes the case to <id>.yaml
func (s *FileStore) PutCase(_ context.Context, c *domain.Case) error {
	if c.Pensioner.ID == "" {
		return fmt.Errorf("pensioner id is required")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode case %s: %w", c.Pensioner.ID, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", s.dir, err)
	}
	if err := os.WriteFile(s.path(c.Pensioner.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write case %s: %w", c.Pensioner.ID, err)
	}

	s.mu.Lock()
	s.byDoc = nil
	s.mu.Unlock()
	return nil
}
