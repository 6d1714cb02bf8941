package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"forgechain/crypto"
)

func testAddress(t *testing.T, b byte) string {
	t.Helper()
	raw := make([]byte, 20)
	raw[19] = b
	addr, err := crypto.NewAddress(crypto.ForgePrefix, raw)
	require.NoError(t, err)
	return addr.String()
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	owner := testAddress(t, 1)
	operator := testAddress(t, 2)
	path := writeConfig(t, fmt.Sprintf("Owner = %q\nOperator = %q\n", owner, operator))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8546", cfg.ListenAddress)
	require.Equal(t, "./forged-data", cfg.DataDir)
	require.Equal(t, "forge-local", cfg.NetworkName)
	require.Equal(t, 4096, cfg.EventBuffer)

	ownerAddr, err := cfg.OwnerAddress()
	require.NoError(t, err)
	require.Equal(t, byte(1), ownerAddr[19])
	operatorAddr, err := cfg.OperatorAddress()
	require.NoError(t, err)
	require.Equal(t, byte(2), operatorAddr[19])
}

func TestLoadPreservesExplicitValues(t *testing.T) {
	owner := testAddress(t, 1)
	operator := testAddress(t, 2)
	path := writeConfig(t, fmt.Sprintf(
		"ListenAddress = \":9000\"\nDataDir = \"/var/lib/forged\"\nNetworkName = \"forge-test\"\nEventBuffer = 128\nTemplateTokenId = \"TMPL-abcdef\"\nOwner = %q\nOperator = %q\n",
		owner, operator,
	))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.ListenAddress)
	require.Equal(t, "/var/lib/forged", cfg.DataDir)
	require.Equal(t, "forge-test", cfg.NetworkName)
	require.Equal(t, 128, cfg.EventBuffer)
	require.Equal(t, "TMPL-abcdef", cfg.TemplateTokenID)
}

func TestLoadRequiresRoleAddresses(t *testing.T) {
	path := writeConfig(t, "ListenAddress = \":9000\"\n")
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Owner")

	operator := testAddress(t, 2)
	path = writeConfig(t, fmt.Sprintf("Owner = \"not-an-address\"\nOperator = %q\n", operator))
	_, err = Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid Owner")
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "set Owner and Operator")

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	require.Contains(t, string(data), "ListenAddress")
}
