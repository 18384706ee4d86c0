package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "HTTP_ADDR", "DB_DRIVER", "SWEEP_INTERVAL", "APPLY_ATTEMPTS", "ENABLE_SIGNUP", "CORS_ORIGINS", "REDIS_ADDR", "AMQP_URL"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Env != EnvProd || c.HTTPAddr != ":8080" || c.DBDriver != "sqlite" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.SweepInterval != time.Minute || c.ApplyAttempts != 3 || c.EnableSignup {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if len(c.CORSOrigins) != 2 || c.RedisAddr != "" || c.AMQPURL != "" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("SWEEP_INTERVAL", "15s")
	t.Setenv("APPLY_ATTEMPTS", "5")
	t.Setenv("APPLY_BASE_DELAY", "nonsense")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")

	c := FromEnv()
	if c.Env != EnvDev || !c.EnableSignup {
		t.Fatalf("dev env not applied: %+v", c)
	}
	if c.SweepInterval != 15*time.Second || c.ApplyAttempts != 5 || c.RedisDB != 2 {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if c.ApplyBaseDelay != 500*time.Millisecond {
		t.Fatalf("bad duration should fall back, got %v", c.ApplyBaseDelay)
	}
	if len(c.CORSOrigins) != 2 || c.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("origins = %v", c.CORSOrigins)
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	if err := os.WriteFile(p, []byte("HTTP_ADDR=:9999\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// an existing variable wins over the file
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("HTTP_ADDR", "")
	os.Unsetenv("HTTP_ADDR")

	c := Load(p)
	if c.HTTPAddr != ":9999" || c.DBDriver != "postgres" {
		t.Fatalf("unexpected config: %+v", c)
	}
}
