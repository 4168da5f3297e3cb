package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	convopts "github.com/kart-io/camaral-bot/pkg/options/conversation"
	vectoropts "github.com/kart-io/camaral-bot/pkg/options/vector"
)

func validOptions() *ServerOptions {
	o := NewServerOptions()
	o.LLMOptions.APIKey = "sk-test-key"
	o.TelegramOptions.Token = "123:abc"
	o.VectorOptions.Backend = vectoropts.BackendMemory
	return o
}

func TestValidateDefaultsRequireSecrets(t *testing.T) {
	o := NewServerOptions()
	err := o.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram.token is required")
}

func TestValidateMinimalConfig(t *testing.T) {
	o := validOptions()
	require.NoError(t, o.Complete())
	assert.NoError(t, o.Validate())
}

func TestValidateBackendDependencies(t *testing.T) {
	o := validOptions()
	o.ConversationOptions.Backend = convopts.BackendRedis
	o.RedisOptions.Host = ""
	assert.Error(t, o.Validate())

	o = validOptions()
	o.VectorOptions.Backend = vectoropts.BackendMilvus
	o.MilvusOptions.Address = ""
	assert.Error(t, o.Validate())
}

func TestFlagsAreGrouped(t *testing.T) {
	fss := NewServerOptions().Flags()
	assert.Equal(t, []string{
		"server", "log", "tracing", "llm", "rag", "telegram",
		"vector", "milvus", "redis", "conversation", "sql", "pool",
	}, fss.Order)
	assert.NotNil(t, fss.FlagSets["telegram"].Lookup("telegram.token"))
	assert.NotNil(t, fss.FlagSets["rag"].Lookup("rag.index-token"))
}

func TestConfigCarriesOptions(t *testing.T) {
	o := validOptions()
	cfg, err := o.Config()
	require.NoError(t, err)
	assert.Same(t, o.LLMOptions, cfg.LLMOptions)
	assert.Same(t, o.TelegramOptions, cfg.TelegramOptions)
}
