package handler_test

import (
	"context"
	"testing"

	"github.com/equipcage/cage-service/internal/handler"
	"github.com/equipcage/cage-service/pkg/kafka"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConsumer_SetupAfterRebalance(t *testing.T) {
	t.Parallel()

	c := handler.NewConsumer(func(context.Context, kafka.Event) error { return nil }, zap.NewNop())

	// sarama calls Setup once per session; a rebalance starts a new session
	// on the same handler
	require.NoError(t, c.Setup(nil))
	require.NotPanics(t, func() {
		require.NoError(t, c.Setup(nil))
	})
}
