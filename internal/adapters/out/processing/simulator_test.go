package processing_test

import (
	"context"
	"testing"
	"time"

	"orderflow/internal/adapters/out/processing"
	"orderflow/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedProcessor_Process_Success(t *testing.T) {
	p := processing.NewSimulatedProcessor(0)
	require.NoError(t, p.Process(t.Context(), nil, ""))
}

func TestSimulatedProcessor_Process_BusinessDirective(t *testing.T) {
	p := processing.NewSimulatedProcessor(0)
	err := p.Process(t.Context(), nil, processing.DirectiveBusinessFailure)
	require.Error(t, err)

	failure, ok := ports.ClassifyFailure(err)
	require.True(t, ok)
	assert.Equal(t, ports.FailureKindBusiness, failure.Kind)
}

func TestSimulatedProcessor_Process_InfrastructureDirective(t *testing.T) {
	p := processing.NewSimulatedProcessor(0)
	err := p.Process(t.Context(), nil, processing.DirectiveInfrastructureFailure)
	require.Error(t, err)

	failure, ok := ports.ClassifyFailure(err)
	require.True(t, ok)
	assert.Equal(t, ports.FailureKindInfrastructure, failure.Kind)
}

func TestSimulatedProcessor_Process_UnknownDirectiveSucceeds(t *testing.T) {
	p := processing.NewSimulatedProcessor(0)
	require.NoError(t, p.Process(t.Context(), nil, "nonsense"))
}

func TestSimulatedProcessor_Process_ContextCancelled(t *testing.T) {
	p := processing.NewSimulatedProcessor(time.Minute)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := p.Process(ctx, nil, "")
	require.ErrorIs(t, err, context.Canceled)
}
