package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadMemoryBackendDefaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_PORT", "")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "")
	t.Setenv("BCRYPT_COST", "")
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://u:p@broker:5672/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.AccessTTLMin != 60 || cfg.BcryptCost != 10 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.AMQPURL != "amqp://u:p@broker:5672/" {
		t.Fatalf("AMQP_URL fallback not used: %q", cfg.AMQPURL)
	}
	if cfg.DBHost != "" {
		t.Fatalf("memory backend should not read DB_*: %+v", cfg)
	}
}

func TestLoadReportsEveryMissingVar(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "mysql")
	for _, k := range []string{"JWT_SECRET", "DB_USER", "DB_HOST", "DB_PORT", "DB_NAME"} {
		t.Setenv(k, "")
	}

	_, err := Load()
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, k := range []string{"JWT_SECRET", "DB_USER", "DB_HOST", "DB_PORT", "DB_NAME"} {
		if !strings.Contains(err.Error(), k) {
			t.Errorf("error does not mention %s: %v", k, err)
		}
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown backend", map[string]string{"STORAGE_BACKEND": "mongo"}, "STORAGE_BACKEND"},
		{"non-numeric ttl", map[string]string{"ACCESS_TOKEN_TTL_MIN": "soon"}, "ACCESS_TOKEN_TTL_MIN"},
		{"bcrypt cost too low", map[string]string{"BCRYPT_COST": "2"}, "BCRYPT_COST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STORAGE_BACKEND", "memory")
			t.Setenv("JWT_SECRET", "s3cret")
			t.Setenv("ACCESS_TOKEN_TTL_MIN", "")
			t.Setenv("BCRYPT_COST", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	rl := LoadRateLimitConfig()
	if rl.Capacity != 1 || rl.RefillTokens != 1 {
		t.Fatalf("capacity/refill not clamped: %+v", rl)
	}
	if rl.TTL != 10*time.Second {
		t.Fatalf("TTL = %s, want 10s", rl.TTL)
	}
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", " get, head ,")
	t.Setenv("CACHE_TTL", "1m")
	t.Setenv("CACHE_ENABLED", "off")

	cc := LoadCacheConfig()
	if cc.Enabled {
		t.Fatal("CACHE_ENABLED=off ignored")
	}
	if len(cc.Methods) != 2 || !cc.Methods["GET"] || !cc.Methods["HEAD"] {
		t.Fatalf("Methods = %v", cc.Methods)
	}
	if cc.TTL != time.Minute {
		t.Fatalf("TTL = %s", cc.TTL)
	}
}

func TestLoadRedisConfigHostPort(t *testing.T) {
	t.Setenv("REDIS_ADDR", "ignored:1")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")

	if rc := LoadRedisConfig(); rc.Addr != "cache:6380" {
		t.Fatalf("Addr = %q", rc.Addr)
	}
}
