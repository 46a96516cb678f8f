package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func loadFixture(t *testing.T) *Store {
	t.Helper()
	store, err := Load(context.Background(), filepath.Join("testdata", "scenarios.json"))
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	return store
}

func TestLoadOptionsFollowSourceOrder(t *testing.T) {
	store := loadFixture(t)
	got := store.Options()
	want := []Option{
		{ID: "", Label: "-- Select a scenario --"},
		{ID: "s1", Label: "Checkout API latency spike"},
		{ID: "s2", Label: "Disk pressure on log shipper"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected options (-want +got):\n%s", diff)
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 scenarios, got %d", store.Len())
	}
}

func TestSelectMisses(t *testing.T) {
	store := loadFixture(t)
	for _, id := range []string{"", "  ", "nope", " s1 ", "S1"} {
		if _, ok := store.Select(id); ok {
			t.Fatalf("expected select(%q) to miss", id)
		}
	}
	record, ok := store.Select("s2")
	if !ok {
		t.Fatalf("expected s2 to be found")
	}
	if record.Name != "Disk pressure on log shipper" {
		t.Fatalf("unexpected record name %q", record.Name)
	}
}

func TestLoadDecodesResponsePlan(t *testing.T) {
	store := loadFixture(t)
	record, _ := store.Select("s1")
	plan := record.Plan()
	if plan.Severity != "high" {
		t.Fatalf("expected severity high, got %q", plan.Severity)
	}
	if len(plan.ActionPlan.Priority1) != 1 || plan.ActionPlan.Priority1[0].Display() != "Restart service" {
		t.Fatalf("unexpected priority1 actions: %+v", plan.ActionPlan.Priority1)
	}
	if plan.HumanInTheLoop == nil || !plan.HumanInTheLoop.Required {
		t.Fatalf("expected human-in-the-loop to be required")
	}
	if plan.HumanInTheLoop.SLA != "15 minutes" {
		t.Fatalf("unexpected sla %q", plan.HumanInTheLoop.SLA)
	}
}

func TestActionDisplayFallbackOrder(t *testing.T) {
	store := loadFixture(t)
	record, _ := store.Select("s2")
	groups := record.Plan().ActionPlan.Groups()
	got := []string{}
	for _, group := range groups {
		for _, action := range group {
			got = append(got, action.Display())
		}
	}
	want := []string{
		"Re-run rotation job",
		"Compress segments older than 3 days",
		"Alert on rotation failures",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected action text (-want +got):\n%s", diff)
	}
}

func TestActionDisplayPrefersActionOverText(t *testing.T) {
	var action Action
	if err := json.Unmarshal([]byte(`{"text":"second","action":"first"}`), &action); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if action.Display() != "first" {
		t.Fatalf("expected action field to win, got %q", action.Display())
	}
	var bare Action
	if err := json.Unmarshal([]byte(`{"owner":"sre"}`), &bare); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if bare.Display() != `{"owner":"sre"}` {
		t.Fatalf("expected raw value fallback, got %q", bare.Display())
	}
	if NewAction("Page oncall").Display() != "Page oncall" {
		t.Fatalf("expected constructed action text")
	}
}

func TestSourceIsKeptVerbatim(t *testing.T) {
	store := loadFixture(t)
	record, _ := store.Select("s1")
	source := string(record.MonitoringOutput.Source())
	if !strings.HasPrefix(strings.TrimSpace(source), "{") || !strings.Contains(source, `"agentType": "monitoring"`) {
		t.Fatalf("expected source bytes from file, got %s", source)
	}
	if strings.Index(source, "agentType") > strings.Index(source, "confidence") {
		t.Fatalf("expected source key order to be preserved")
	}
}

func TestLoadYAML(t *testing.T) {
	store, err := Load(context.Background(), filepath.Join("testdata", "scenarios.yaml"))
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	record, ok := store.Select("yaml-1")
	if !ok {
		t.Fatalf("expected yaml-1")
	}
	plan := record.Plan()
	if plan.Severity != "critical" {
		t.Fatalf("unexpected severity %q", plan.Severity)
	}
	if got := plan.ActionPlan.Priority2[0].Display(); got != "Re-enable the renewal cron" {
		t.Fatalf("unexpected bare action text %q", got)
	}
	if record.MonitoringOutput.Timestamp != "2024-05-01T09:00:00Z" {
		t.Fatalf("unexpected timestamp %q", record.MonitoringOutput.Timestamp)
	}
}

func TestLoadFromURL(t *testing.T) {
	body, err := os.ReadFile(filepath.Join("testdata", "scenarios.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ui_mock_data.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	store, err := Load(context.Background(), srv.URL+"/ui_mock_data.json")
	if err != nil {
		t.Fatalf("load url: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 scenarios, got %d", store.Len())
	}

	_, err = Load(context.Background(), srv.URL+"/missing.json")
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError for 404, got %v", err)
	}
}

func TestLoadFailures(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	cases := []struct {
		name   string
		source string
		target error
	}{
		{name: "missing file", source: filepath.Join(dir, "absent.json"), target: os.ErrNotExist},
		{name: "empty list", source: write("empty.json", `{"scenarios":[]}`), target: ErrEmpty},
		{name: "missing id", source: write("noid.json", `{"scenarios":[{"name":"x"}]}`), target: ErrMissingID},
		{name: "duplicate id", source: write("dup.json", `{"scenarios":[{"id":"a"},{"id":"a"}]}`), target: ErrDuplicateID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, err := Load(context.Background(), tc.source)
			if store != nil {
				t.Fatalf("expected no store on failure")
			}
			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("expected LoadError, got %v", err)
			}
			if !errors.Is(err, tc.target) {
				t.Fatalf("expected %v, got %v", tc.target, err)
			}
		})
	}

	if _, err := Load(context.Background(), write("broken.json", `{"scenarios":`)); err == nil {
		t.Fatalf("expected parse failure")
	}
	if _, err := Load(context.Background(), ""); err == nil {
		t.Fatalf("expected unset source to fail")
	}
}

func TestFormatFor(t *testing.T) {
	cases := map[string]Format{
		"ui_mock_data.json":              FormatJSON,
		"packs/demo.YAML":                FormatYAML,
		"packs/demo.yml":                 FormatYAML,
		"https://host/demo.yaml?rev=3":   FormatYAML,
		"https://host/ui_mock_data":      FormatJSON,
		"https://host/demo.json#section": FormatJSON,
	}
	for source, want := range cases {
		if got := FormatFor(source); got != want {
			t.Fatalf("FormatFor(%q) = %v, want %v", source, got, want)
		}
	}
}
