package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	maxSourceBytes  = 16 << 20
	unselectedLabel = "-- Select a scenario --"
)

var (
	ErrEmpty       = errors.New("scenario source has no scenarios")
	ErrMissingID   = errors.New("scenario is missing an id")
	ErrDuplicateID = errors.New("duplicate scenario id")
)

// LoadError reports a scenario source that could not be fetched or parsed.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load scenarios from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFor picks the document format from the source extension.
func FormatFor(source string) Format {
	clean := source
	if idx := strings.IndexAny(clean, "?#"); idx >= 0 {
		clean = clean[:idx]
	}
	switch strings.ToLower(filepath.Ext(clean)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

type Option struct {
	ID    string
	Label string
}

// Store holds the scenarios read at startup. It is read-only after Load.
type Store struct {
	source  string
	records []Record
	byID    map[string]int
}

type document struct {
	Scenarios []Record `json:"scenarios"`
}

// Load reads the scenario source once. Paths and http(s) URLs are accepted.
func Load(ctx context.Context, source string) (*Store, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, &LoadError{Source: "(unset)", Err: errors.New("no scenario source configured")}
	}
	data, err := fetch(ctx, source)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	store, err := Parse(data, FormatFor(source))
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	store.source = source
	return store, nil
}

// Parse decodes and validates a scenario document.
func Parse(data []byte, format Format) (*Store, error) {
	if format == FormatYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, err
		}
		data = converted
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode scenarios: %w", err)
	}
	return newStore(doc.Scenarios)
}

// NewStore builds a store from records constructed in code.
func NewStore(records []Record) (*Store, error) {
	return newStore(records)
}

func newStore(records []Record) (*Store, error) {
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	store := &Store{
		records: make([]Record, 0, len(records)),
		byID:    make(map[string]int, len(records)),
	}
	for idx, record := range records {
		id := record.ID
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("scenario #%d: %w", idx+1, ErrMissingID)
		}
		if _, exists := store.byID[id]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, id)
		}
		plan, err := decodePlan(record.ResponseOutput.Data)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: response plan: %w", id, err)
		}
		record.plan = plan
		store.byID[id] = len(store.records)
		store.records = append(store.records, record)
	}
	return store, nil
}

func decodePlan(data json.RawMessage) (ResponsePlan, error) {
	var plan ResponsePlan
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return plan, nil
	}
	if err := json.Unmarshal(data, &plan); err != nil {
		return ResponsePlan{}, err
	}
	return plan, nil
}

func (s *Store) Source() string {
	return s.source
}

func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Scenarios returns the records in source order.
func (s *Store) Scenarios() []Record {
	if s == nil {
		return nil
	}
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Select looks a scenario up by id. Empty and unknown ids miss.
func (s *Store) Select(id string) (Record, bool) {
	if s == nil {
		return Record{}, false
	}
	idx, ok := s.byID[id]
	if !ok {
		return Record{}, false
	}
	return s.records[idx], true
}

// Options lists the selector entries: the unselected default first, then
// one entry per scenario in source order.
func (s *Store) Options() []Option {
	out := make([]Option, 0, s.Len()+1)
	out = append(out, Option{ID: "", Label: unselectedLabel})
	for _, record := range s.Scenarios() {
		out = append(out, Option{ID: record.ID, Label: record.Name})
	}
	return out
}

func fetch(ctx context.Context, source string) ([]byte, error) {
	lower := strings.ToLower(source)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return fetchURL(ctx, source)
	}
	return os.ReadFile(source)
}

func fetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.5")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: http %d", url, resp.StatusCode)
	}
	return body, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("decode yaml scenarios: %w", err)
	}
	normalized, err := normalizeYAML(generic)
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalized)
}

// yaml.v3 decodes nested mappings with string keys, but non-string keys are
// possible and json cannot encode them.
func normalizeYAML(value any) (any, error) {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			next, err := normalizeYAML(item)
			if err != nil {
				return nil, err
			}
			out[key] = next
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			next, err := normalizeYAML(item)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(key)] = next
		}
		return out, nil
	case []any:
		out := make([]any, len(typed))
		for idx, item := range typed {
			next, err := normalizeYAML(item)
			if err != nil {
				return nil, err
			}
			out[idx] = next
		}
		return out, nil
	default:
		return value, nil
	}
}
