package biz

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/camaral-bot/internal/bot/store"
	boterrors "github.com/kart-io/camaral-bot/pkg/errors"
)

func scores(values ...float32) []store.SearchResult {
	out := make([]store.SearchResult, len(values))
	for i, v := range values {
		out[i] = store.SearchResult{Text: "t", Section: "s", Score: v}
	}
	return out
}

func TestGateIsOffTopic(t *testing.T) {
	gate, err := NewGate(nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		message string
		results []store.SearchResult
		want    bool
	}{
		{"greeting", "hola", scores(0.9, 0.9), true},
		{"greeting uppercase", "Buenas Tardes", scores(0.9), true},
		{"joke", "Cuéntame un chiste por favor", scores(0.9), true},
		{"code request", "escribe un script en python", scores(0.9), true},
		{"thanks", "gracias", scores(0.9), true},
		{"keyword without results", "¿Cuál es el precio del plan Pro?", nil, false},
		{"no keyword no results", "¿qué hora es?", nil, true},
		{"no keyword low score", "¿qué hora es?", scores(0.1, 0.2), true},
		{"no keyword high score", "¿cómo funciona?", scores(0.8, 0.6), false},
		{"greeting inside sentence", "hola, quiero una demo", scores(0.1), false},
		{"threshold is exclusive", "¿qué hora es?", scores(0.3, 0.3), false},
		{"keyword inside another word", "¿Cuál es la capital de Francia?", scores(0.1, 0.2), true},
		{"keyword suffix of history", "explícame la historia de roma", nil, true},
		{"keyword inside mundial", "¿Quién ganó el mundial de fútbol?", scores(0.2), true},
		{"keyword as whole word", "¿Usan IA para responder?", scores(0.1), false},
		{"keyword as word prefix", "¿Cuáles son los precios?", nil, false},
		{"multi-word keyword", "me interesa la inteligencia   artificial", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gate.IsOffTopic(tt.message, tt.results))
		})
	}
}

func TestGateUpdateRejectsInvalidPolicy(t *testing.T) {
	gate, err := NewGate(nil)
	require.NoError(t, err)

	err = gate.Update(&Policy{Patterns: []string{"("}, Threshold: 0.3})
	require.Error(t, err)
	assert.ErrorIs(t, err, boterrors.ErrInvalidArgument)

	err = gate.Update(&Policy{Threshold: 1.5})
	assert.Error(t, err)

	assert.True(t, gate.IsOffTopic("hola", nil))
}

func TestGateUpdateReplacesPolicy(t *testing.T) {
	gate, err := NewGate(nil)
	require.NoError(t, err)

	require.NoError(t, gate.Update(&Policy{Patterns: []string{"^ping$"}, Keywords: []string{"Pong"}, Threshold: 0.5}))

	assert.True(t, gate.IsOffTopic("PING", scores(1)))
	assert.False(t, gate.IsOffTopic("hola", scores(0.6)))
	assert.False(t, gate.IsOffTopic("pong?", nil))
	assert.True(t, gate.IsOffTopic("otra cosa", scores(0.4)))
}

func TestLoadPolicyKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("threshold: 0.5\npatterns:\n  - \"^adiós$\"\n"), 0o600))

	p, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, p.Threshold)
	assert.Equal(t, []string{"^adiós$"}, p.Patterns)
	assert.Equal(t, DefaultPolicy().Keywords, p.Keywords)
}

func TestLoadPolicyMissingFile(t *testing.T) {
	_, err := LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, boterrors.ErrConfiguration)
}

func TestWatchPolicyFileReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("patterns:\n  - \"^ping$\"\n"), 0o600))

	gate, err := NewGate(nil)
	require.NoError(t, err)
	require.NoError(t, gate.WatchPolicyFile(path))

	assert.True(t, gate.IsOffTopic("ping", scores(1)))
	assert.False(t, gate.IsOffTopic("hola", scores(1)))

	require.NoError(t, os.WriteFile(path, []byte("patterns:\n  - \"^hola$\"\n"), 0o600))

	assert.Eventually(t, func() bool {
		return gate.IsOffTopic("hola", scores(1)) && !gate.IsOffTopic("ping", scores(1))
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatchPolicyFileKeepsConfiguredThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keywords:\n  - camaral\n"), 0o600))

	policy := DefaultPolicy()
	policy.Threshold = 0.6
	gate, err := NewGate(policy)
	require.NoError(t, err)
	require.NoError(t, gate.WatchPolicyFile(path))

	assert.True(t, gate.IsOffTopic("¿qué hora es?", scores(0.5)))
	assert.False(t, gate.IsOffTopic("¿qué hora es?", scores(0.7)))
	assert.False(t, gate.IsOffTopic("háblame de Camaral", scores(0.1)))
	assert.Equal(t, 0.6, policy.Threshold)
}

func TestMeanScoreEmpty(t *testing.T) {
	assert.Equal(t, 0.0, meanScore(nil))
	assert.InDelta(t, 0.5, meanScore(scores(0.25, 0.75)), 1e-9)
}
