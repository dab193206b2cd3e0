package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"resumetailor/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "missing value", input: nil, expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "test/path")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseKVv2(t *testing.T) {
	secret := &api.Secret{Data: map[string]any{
		"data":     map[string]any{"anon_key": "anon"},
		"metadata": map[string]any{"version": float64(3)},
	}}

	parsed, err := parseKVv2(secret, "secret/data/remote")
	require.NoError(t, err)
	assert.Equal(t, "anon", parsed.Data["anon_key"])
	assert.Equal(t, int64(3), parsed.Version)

	_, err = parseKVv2(&api.Secret{Data: map[string]any{"anon_key": "anon"}}, "secret/remote")
	assert.ErrorContains(t, err, "not in KVv2 format")
}

func TestResolveVaultToken(t *testing.T) {
	t.Run("token from config", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct-token"})
		assert.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(path, []byte("  file-token\n"), 0600))

		token, err := resolveVaultToken(VaultConfig{TokenFile: path})
		assert.NoError(t, err)
		assert.Equal(t, "file-token", token)
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{})
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "abcd****mnop", maskSecret("abcdefghijklmnop"))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "", maskSecret(""))
}

type fakeSecrets map[string]map[string]string

func (f fakeSecrets) GetStringSecret(path, key string) (string, error) {
	values, ok := f[path]
	if !ok {
		return "", fmt.Errorf("secret not found at path: %s", path)
	}
	value, ok := values[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	return value, nil
}

func (f fakeSecrets) GetStringSliceSecret(path, key string) ([]string, error) {
	value, err := f.GetStringSecret(path, key)
	if err != nil {
		return nil, err
	}
	return splitAndTrim(value), nil
}

func TestApplySecrets(t *testing.T) {
	cfg := &Config{Vault: VaultConfig{Secrets: VaultSecrets{
		APIKeys:       "secret/data/server",
		AnonKey:       "secret/data/remote",
		S3Credentials: "secret/data/exports",
	}}}
	secrets := fakeSecrets{
		"secret/data/server":  {"keys": "k1, k2"},
		"secret/data/remote":  {"anon_key": "anon-123"},
		"secret/data/exports": {"access_key": "AK", "secret_key": "SK"},
	}

	require.NoError(t, applySecrets(secrets, cfg, errors.NewNopLogger()))

	assert.Equal(t, []string{"k1", "k2"}, cfg.Server.APIKeys)
	assert.Equal(t, "anon-123", cfg.Remote.AnonKey)
	assert.Equal(t, "AK", cfg.Export.S3.AccessKey)
	assert.Equal(t, "SK", cfg.Export.S3.SecretKey)
}

func TestApplySecretsMissingKey(t *testing.T) {
	cfg := &Config{Vault: VaultConfig{Secrets: VaultSecrets{AnonKey: "secret/data/remote"}}}

	err := applySecrets(fakeSecrets{"secret/data/remote": {}}, cfg, nil)
	assert.ErrorContains(t, err, "failed to load anon key")
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := &Config{Vault: VaultConfig{Enabled: false}}
	assert.NoError(t, ApplyVaultSecrets(cfg, errors.NewNopLogger()))
}

func TestVaultClientAgainstServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/sys/health":
			_ = json.NewEncoder(w).Encode(map[string]any{"initialized": true, "sealed": false, "version": "1.15.0"})
		case "/v1/secret/data/session":
			assert.Equal(t, "root-token", r.Header.Get("X-Vault-Token"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{
					"data":     map[string]any{"access_token": "jwt-value", "keys": "a,b"},
					"metadata": map[string]any{"version": 2},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
		}
	}))
	defer server.Close()

	client, err := NewVaultClient(VaultConfig{Enabled: true, Address: server.URL, Token: "root-token"}, errors.NewNopLogger())
	require.NoError(t, err)
	require.NotNil(t, client)

	token, err := client.GetStringSecret("secret/data/session", "access_token")
	require.NoError(t, err)
	assert.Equal(t, "jwt-value", token)

	keys, err := client.GetStringSliceSecret("secret/data/session", "keys")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	_, err = client.GetStringSecret("secret/data/missing", "access_token")
	assert.Error(t, err)
}

func TestNewVaultClientDisabled(t *testing.T) {
	client, err := NewVaultClient(VaultConfig{Enabled: false}, nil)
	assert.NoError(t, err)
	assert.Nil(t, client)
}
