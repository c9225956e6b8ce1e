// Package credentials resolves remote-access credentials from
// environment-specific sources. The reporting core depends only on the
// domain.CredentialProvider port, never on which variant is active.
package credentials

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"mailmetrics/internal/config"
	"mailmetrics/internal/domain"
)

// StaticProvider resolves an explicit key pair taken from configuration.
type StaticProvider struct {
	region          string
	accessKeyID     string
	secretAccessKey string
}

// NewStaticProvider creates a provider for an explicit key pair.
func NewStaticProvider(region, accessKeyID, secretAccessKey string) *StaticProvider {
	return &StaticProvider{region: region, accessKeyID: accessKeyID, secretAccessKey: secretAccessKey}
}

// Resolve returns the configured key pair.
func (p *StaticProvider) Resolve(_ context.Context) (*domain.Credentials, error) {
	if p.accessKeyID == "" || p.secretAccessKey == "" {
		return nil, domain.ErrCredential(nil, "static credentials are not configured")
	}
	return &domain.Credentials{
		Region:          p.region,
		AccessKeyID:     p.accessKeyID,
		SecretAccessKey: p.secretAccessKey,
		Source:          "static",
	}, nil
}

// FileProvider resolves a key pair from a KEY=VALUE credentials file.
// Recognised keys: AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY,
// AWS_SESSION_TOKEN, AWS_REGION. Comments (#) and blank lines are skipped.
type FileProvider struct {
	path   string
	region string
}

// NewFileProvider creates a provider backed by the given file. region is
// the fallback when the file does not set AWS_REGION.
func NewFileProvider(path, region string) *FileProvider {
	return &FileProvider{path: path, region: region}
}

// Resolve parses the credentials file.
func (p *FileProvider) Resolve(_ context.Context) (*domain.Credentials, error) {
	f, err := os.Open(p.path) //nolint:gosec // path is operator-controlled
	if err != nil {
		return nil, domain.ErrCredential(err, "open credentials file %s", p.path)
	}
	defer f.Close() //nolint:errcheck

	values := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, domain.ErrCredential(err, "read credentials file %s", p.path)
	}

	creds := &domain.Credentials{
		Region:          values["AWS_REGION"],
		AccessKeyID:     values["AWS_ACCESS_KEY_ID"],
		SecretAccessKey: values["AWS_SECRET_ACCESS_KEY"],
		SessionToken:    values["AWS_SESSION_TOKEN"],
		Source:          fmt.Sprintf("file:%s", p.path),
	}
	if creds.Region == "" {
		creds.Region = p.region
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return nil, domain.ErrCredential(nil, "credentials file %s is missing AWS_ACCESS_KEY_ID or AWS_SECRET_ACCESS_KEY", p.path)
	}
	return creds, nil
}

// AmbientProvider defers to the SDK's default credential chain (shared
// config, instance profile, environment). It only pins the region.
type AmbientProvider struct {
	region string
}

// NewAmbientProvider creates a provider for the ambient SDK chain.
func NewAmbientProvider(region string) *AmbientProvider {
	return &AmbientProvider{region: region}
}

// Resolve returns region-only credentials, leaving resolution to the SDK.
func (p *AmbientProvider) Resolve(_ context.Context) (*domain.Credentials, error) {
	if p.region == "" {
		return nil, domain.ErrCredential(nil, "region is required for ambient credentials")
	}
	return &domain.Credentials{Region: p.region, Source: "ambient"}, nil
}

// ChainProvider tries each provider in order and returns the first
// successful resolution.
type ChainProvider struct {
	providers []domain.CredentialProvider
}

// NewChainProvider creates a chain over the given providers.
func NewChainProvider(providers ...domain.CredentialProvider) *ChainProvider {
	return &ChainProvider{providers: providers}
}

// Resolve returns the first successful resolution, or a CredentialError
// describing every attempt when none succeeds.
func (p *ChainProvider) Resolve(ctx context.Context) (*domain.Credentials, error) {
	var attempts []string
	for _, provider := range p.providers {
		creds, err := provider.Resolve(ctx)
		if err == nil {
			return creds, nil
		}
		attempts = append(attempts, err.Error())
	}
	return nil, domain.ErrCredential(nil, "no usable credentials: %s", strings.Join(attempts, "; "))
}

// FromConfig builds the standard resolution chain for a loaded Config:
// explicit key pair, then credentials file (when configured), then the
// ambient SDK chain.
func FromConfig(cfg *config.Config) domain.CredentialProvider {
	var providers []domain.CredentialProvider
	if cfg.HasStaticCredentials() {
		providers = append(providers, NewStaticProvider(cfg.Region, *cfg.AccessKeyID, *cfg.SecretAccessKey))
	}
	if cfg.CredentialsFile != "" {
		providers = append(providers, NewFileProvider(cfg.CredentialsFile, cfg.Region))
	}
	providers = append(providers, NewAmbientProvider(cfg.Region))
	return NewChainProvider(providers...)
}
