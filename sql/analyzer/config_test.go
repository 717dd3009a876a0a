package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	require := require.New(t)

	require.NoError(DefaultConfig().Validate())

	c := DefaultConfig()
	c.RootStrategy = "largest"
	err := c.Validate()
	require.Error(err)
	require.True(ErrInvalidRootStrategy.Is(err))

	_, err = NewBuilder().WithConfig(c).Build()
	require.True(ErrInvalidRootStrategy.Is(err))
}

func TestConfigWithEnv(t *testing.T) {
	testCases := []struct {
		name     string
		env      map[string]string
		expected Config
	}{
		{
			"disabled",
			map[string]string{pruningEnvKey: "OFF"},
			Config{Enabled: false, RootStrategy: RootFirst},
		},
		{
			"invalid switch",
			map[string]string{pruningEnvKey: "maybe"},
			Config{Enabled: true, RootStrategy: RootFirst},
		},
		{
			"root strategy",
			map[string]string{pruningEnvKey: "1", rootStrategyEnvKey: " Fewest_Chunks "},
			Config{Enabled: true, RootStrategy: RootFewestChunks},
		},
		{
			"invalid root strategy",
			map[string]string{pruningEnvKey: "on", rootStrategyEnvKey: "largest"},
			Config{Enabled: true, RootStrategy: RootFirst},
		},
		{
			"debug",
			map[string]string{pruningEnvKey: "true", debugAnalyzerKey: ""},
			Config{Enabled: true, RootStrategy: RootFirst, Debug: true},
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			c := DefaultConfig().WithEnv()
			require.Equal(t, tt.expected.Enabled, c.Enabled)
			require.Equal(t, tt.expected.RootStrategy, c.RootStrategy)
			if tt.expected.Debug {
				require.True(t, c.Debug)
			}
		})
	}
}

func TestConfigFile(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "dips.yml")
	expected := Config{
		Enabled:             false,
		RootStrategy:        RootMostChunks,
		PruneOnAnyPredicate: true,
	}
	require.NoError(WriteConfigFile(path, expected))

	c, err := ReadConfigFile(path)
	require.NoError(err)
	require.Equal(expected, c)

	partial := filepath.Join(dir, "partial.yml")
	require.NoError(os.WriteFile(partial, []byte("root_strategy: fewest_chunks\n"), 0640))

	c, err = ReadConfigFile(partial)
	require.NoError(err)
	require.Equal(Config{Enabled: true, RootStrategy: RootFewestChunks}, c)

	invalid := filepath.Join(dir, "invalid.yml")
	require.NoError(os.WriteFile(invalid, []byte("root_strategy: largest\n"), 0640))

	_, err = ReadConfigFile(invalid)
	require.True(ErrInvalidRootStrategy.Is(err))

	_, err = ReadConfigFile(filepath.Join(dir, "missing.yml"))
	require.Error(err)

	_, err = LoadConfig(invalid)
	require.Error(err)
}

func TestLoadConfig(t *testing.T) {
	require := require.New(t)
	t.Setenv(pruningEnvKey, "off")
	t.Setenv(rootStrategyEnvKey, "first")

	path := filepath.Join(t.TempDir(), "dips.yml")
	require.NoError(WriteConfigFile(path, Config{
		Enabled:      true,
		RootStrategy: RootMostChunks,
	}))

	c, err := LoadConfig(path)
	require.NoError(err)
	require.False(c.Enabled)
	require.Equal(RootFirst, c.RootStrategy)

	c, err = LoadConfig("")
	require.NoError(err)
	require.False(c.Enabled)
	require.Equal(RootFirst, c.RootStrategy)
}
