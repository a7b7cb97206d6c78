package observability

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

type alertRule struct {
	Alert       string            `yaml:"alert"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for"`
	Labels      map[string]string `yaml:"labels"`
	Annotations map[string]string `yaml:"annotations"`
}

type alertGroup struct {
	Name  string      `yaml:"name"`
	Rules []alertRule `yaml:"rules"`
}

type alertSpec struct {
	Groups []alertGroup `yaml:"groups"`
}

func TestBillingAlertRules(t *testing.T) {
	path := filepath.Join("..", "..", "deploy", "prometheus", "alerts", "billing.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read alert file: %v", err)
	}

	var spec alertSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		t.Fatalf("failed to unmarshal alert file: %v", err)
	}

	var billing *alertGroup
	for i := range spec.Groups {
		if spec.Groups[i].Name == "billing" {
			billing = &spec.Groups[i]
			break
		}
	}
	if billing == nil {
		t.Fatal("billing alert group missing")
	}

	required := map[string]string{
		"HighErrorRate":             "critical",
		"HighLatency":               "warning",
		"InvoiceGenerationFailures": "warning",
		"ReconciliationBacklog":     "warning",
	}
	found := map[string]bool{}
	for _, rule := range billing.Rules {
		severity, ok := required[rule.Alert]
		if !ok {
			continue
		}
		found[rule.Alert] = true
		if rule.Labels["severity"] != severity {
			t.Errorf("%s severity = %q, want %q", rule.Alert, rule.Labels["severity"], severity)
		}
		if rule.Expr == "" {
			t.Errorf("%s has empty expr", rule.Alert)
		}
		if rule.Annotations["runbook"] == "" {
			t.Errorf("%s missing runbook annotation", rule.Alert)
		}
	}
	for name := range required {
		if !found[name] {
			t.Errorf("alert %s missing", name)
		}
	}
}
