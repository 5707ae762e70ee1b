package fake

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFakeNotifier_Send(t *testing.T) {
	n := New()
	require.NoError(t, n.Send(context.Background(), "tr1", "Notify_Movement", map[string]string{"title": "x"}))

	sent := n.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, "tr1", sent[0].TrackerID)
	require.Equal(t, "Notify_Movement", sent[0].Topic)

	n.Fail = true
	require.Error(t, n.Send(context.Background(), "tr1", "Notify_Stopped", nil))
	require.Len(t, n.Sent(), 1)
}
