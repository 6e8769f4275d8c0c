package config

import (
	"context"
	"errors"
	"testing"
	"time"
)

func baseEnv() map[string]string {
	return map[string]string{
		"API_FIREBASE_PROJECT_ID":    "flowerdream-test",
		"API_STORAGE_UPLOADS_BUCKET": "flowerdream-uploads",
		"API_SMTP_HOST":              "smtp.example.com",
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(context.Background(),
		WithEnvFile(""),
		WithoutSystemEnv(),
		WithEnvMap(baseEnv()),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Fatalf("unexpected read timeout %v", cfg.Server.ReadTimeout)
	}
	if cfg.Firestore.ProjectID != "flowerdream-test" {
		t.Fatalf("expected firestore project to inherit firebase project, got %q", cfg.Firestore.ProjectID)
	}
	if cfg.PubSub.ProjectID != "flowerdream-test" {
		t.Fatalf("expected pubsub project to inherit firebase project, got %q", cfg.PubSub.ProjectID)
	}
	if cfg.PubSub.OrderEventsTopic != "order-events" {
		t.Fatalf("unexpected default topic %q", cfg.PubSub.OrderEventsTopic)
	}
	if !cfg.Features.EnableEmail {
		t.Fatal("expected email feature enabled by default")
	}
}

func TestLoadValidationFailures(t *testing.T) {
	env := baseEnv()
	delete(env, "API_FIREBASE_PROJECT_ID")

	_, err := Load(context.Background(),
		WithEnvFile(""),
		WithoutSystemEnv(),
		WithEnvMap(env),
	)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	fields := validation.Fields()
	found := false
	for _, field := range fields {
		if field == "Firebase.ProjectID" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected Firebase.ProjectID in %v", fields)
	}
}

func TestLoadRequiresSMTPHostWhenEmailEnabled(t *testing.T) {
	env := baseEnv()
	delete(env, "API_SMTP_HOST")

	_, err := Load(context.Background(),
		WithEnvFile(""),
		WithoutSystemEnv(),
		WithEnvMap(env),
	)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	env["API_FEATURE_EMAIL"] = "false"
	cfg, err := Load(context.Background(),
		WithEnvFile(""),
		WithoutSystemEnv(),
		WithEnvMap(env),
	)
	if err != nil {
		t.Fatalf("Load returned error with email disabled: %v", err)
	}
	if cfg.Features.EnableEmail {
		t.Fatal("expected email feature disabled")
	}
}

func TestLoadResolvesSecretReferences(t *testing.T) {
	env := baseEnv()
	env["API_SMTP_PASSWORD"] = "secret://projects/p/secrets/smtp/versions/latest"

	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if ref != "secret://projects/p/secrets/smtp/versions/latest" {
			t.Fatalf("unexpected ref %q", ref)
		}
		return "s3cr3t", nil
	})

	cfg, err := Load(context.Background(),
		WithEnvFile(""),
		WithoutSystemEnv(),
		WithEnvMap(env),
		WithSecretResolver(resolver),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.SMTP.Password != "s3cr3t" {
		t.Fatalf("expected resolved password, got %q", cfg.SMTP.Password)
	}
}

func TestLoadNormalisesSMPrefix(t *testing.T) {
	env := baseEnv()
	env["API_SMTP_PASSWORD"] = "sm://projects/p/secrets/smtp/versions/1"

	var gotRef string
	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		gotRef = ref
		return "ok", nil
	})

	if _, err := Load(context.Background(),
		WithEnvFile(""),
		WithoutSystemEnv(),
		WithEnvMap(env),
		WithSecretResolver(resolver),
	); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if gotRef != "secret://projects/p/secrets/smtp/versions/1" {
		t.Fatalf("expected normalised ref, got %q", gotRef)
	}
}

func TestLoadFailsWithoutResolverForSecretRef(t *testing.T) {
	env := baseEnv()
	env["API_SMTP_PASSWORD"] = "secret://projects/p/secrets/smtp/versions/latest"

	_, err := Load(context.Background(),
		WithEnvFile(""),
		WithoutSystemEnv(),
		WithEnvMap(env),
	)
	var secretErr *SecretError
	if !errors.As(err, &secretErr) {
		t.Fatalf("expected SecretError, got %v", err)
	}
}
