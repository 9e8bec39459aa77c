package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linode/cloudmanager/pkg/config/definition"
)

func TestDefault(t *testing.T) {
	t.Run("Should validate", func(t *testing.T) {
		require.NoError(t, NewService().Validate(Default()))
	})
	t.Run("Should reject nil", func(t *testing.T) {
		assert.Error(t, NewService().Validate(nil))
	})
}

func TestEnvMappings(t *testing.T) {
	t.Run("Should agree with the field registry", func(t *testing.T) {
		envToPath := GenerateEnvToConfigMap()
		for _, field := range definition.CreateRegistry().Fields() {
			assert.Equal(t, field.Path, envToPath[field.EnvVar], field.EnvVar)
		}
		assert.Len(t, envToPath, len(definition.CreateRegistry().Fields()))
	})
	t.Run("Should flag secrets", func(t *testing.T) {
		assert.True(t, IsSensitiveConfigPath("api.token"))
		assert.False(t, IsSensitiveConfigPath("api.base_url"))
		assert.False(t, IsSensitiveConfigPath("nope"))
	})
}

func TestSensitiveString(t *testing.T) {
	t.Run("Should redact non-empty values", func(t *testing.T) {
		assert.Equal(t, "[REDACTED]", SensitiveString("secret").String())
		assert.Equal(t, "", SensitiveString("").String())
		assert.Equal(t, "secret", SensitiveString("secret").Value())
	})
	t.Run("Should marshal redacted and unmarshal the value", func(t *testing.T) {
		data, err := json.Marshal(APIConfig{Token: "secret"})
		require.NoError(t, err)
		assert.Contains(t, string(data), `"Token":"[REDACTED]"`)
		var s SensitiveString
		require.NoError(t, json.Unmarshal([]byte(`"abc"`), &s))
		assert.Equal(t, "abc", s.Value())
	})
}
