package openai

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func TestNewClientDefaults(t *testing.T) {
	os.Unsetenv("OPENAI_API_KEY")
	os.Unsetenv("OPENAI_MODEL")
	os.Unsetenv("OPENAI_TIMEOUT_SECONDS")
	c := NewClient()
	if c.model != "gpt-4o-mini" {
		t.Fatalf("model = %q", c.model)
	}
	if c.timeout != 60*time.Second {
		t.Fatalf("timeout = %v", c.timeout)
	}
}

func TestNewClientFromEnv(t *testing.T) {
	os.Setenv("OPENAI_MODEL", "gpt-4o")
	os.Setenv("OPENAI_TIMEOUT_SECONDS", "10")
	defer os.Unsetenv("OPENAI_MODEL")
	defer os.Unsetenv("OPENAI_TIMEOUT_SECONDS")
	c := NewClient()
	if c.model != "gpt-4o" {
		t.Fatalf("model = %q", c.model)
	}
	if c.timeout != 10*time.Second {
		t.Fatalf("timeout = %v", c.timeout)
	}
}

func TestGenerateNotConfigured(t *testing.T) {
	os.Unsetenv("OPENAI_API_KEY")
	c := NewClient()
	if _, err := c.Generate(context.Background(), "hello"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}
