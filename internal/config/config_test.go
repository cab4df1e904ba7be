package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/multierr"
)

const validYAML = `
router:
  address: "0x00000000F9490004C11Cef243f5400493c00Ad63"
  backends:
    - name: Consideration
      version: "1.4"
      address: "0x00000000000001ad428e4906aE43D8F9852d0dD6"
    - name: Consideration
      version: "1.5"
      address: "0x00000000000000ADc04C56Bf30aC9d3c0aAF14dC"
chain:
  genesis:
    - address: "0x1000000000000000000000000000000000000001"
      balance: "100000000000000000000"
database:
  in_memory: true
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_AppliesDefaultsAndEnv(t *testing.T) {
	t.Setenv("SEAPORT_API_LISTEN_ADDRESS", ":9999")

	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.API.ListenAddress != ":9999" {
		t.Errorf("listen address = %q, want env override", cfg.API.ListenAddress)
	}
	if cfg.API.ReadTimeout != 10*time.Second || cfg.Database.ConnMaxLifetime != time.Hour {
		t.Errorf("durations = %v / %v", cfg.API.ReadTimeout, cfg.Database.ConnMaxLifetime)
	}
	if cfg.Chain.MaxCallDepth != 1024 {
		t.Errorf("max call depth = %d, want 1024", cfg.Chain.MaxCallDepth)
	}
	if len(cfg.Router.Backends) != 2 || cfg.Router.Backends[1].Version != "1.5" {
		t.Errorf("backends = %+v", cfg.Router.Backends)
	}
	if len(cfg.Chain.Genesis) != 1 || cfg.Chain.Genesis[0].Balance != "100000000000000000000" {
		t.Errorf("genesis = %+v", cfg.Chain.Genesis)
	}
	if cfg.Events.Kafka.Enabled {
		t.Errorf("kafka should be disabled by default")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	cfg.Router.Backends = cfg.Router.Backends[:1]
	cfg.Router.Backends[0].Version = "2.0"
	cfg.Chain.Genesis[0].Balance = "lots"
	cfg.Events.Kafka.Enabled = true
	cfg.Events.Kafka.Brokers = nil

	err = cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if got := len(multierr.Errors(errors.Unwrap(err))); got != 4 {
		t.Errorf("problems = %d, want 4: %v", got, err)
	}
}

func TestValidate_RejectsDuplicateBackends(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	cfg.Router.Backends[1].Address = cfg.Router.Backends[0].Address
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for duplicate backends")
	}

	cfg.Router.Backends[1].Address = cfg.Router.Address
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for backend at router address")
	}
}
