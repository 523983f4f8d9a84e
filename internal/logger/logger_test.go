package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Msg("parsing started")

	require.NotEmpty(t, buf.String())
	assert.Contains(t, buf.String(), "parsing started")
}

func TestComponent(t *testing.T) {
	buf := &bytes.Buffer{}
	log := Component(NewWithWriter(buf), "recon.keyed")

	log.Info().Msg("run complete")

	assert.Contains(t, buf.String(), "recon.keyed")
}

func TestContextRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)
	ctx := WithContext(context.Background(), log)

	got := FromContext(ctx)
	got.Info().Msg("from context")

	assert.Contains(t, buf.String(), "from context")
}

func TestFromContextDefault(t *testing.T) {
	// No logger attached: must still return a usable logger.
	log := FromContext(context.Background())
	assert.NotPanics(t, func() { log.Debug().Msg("noop") })
}
