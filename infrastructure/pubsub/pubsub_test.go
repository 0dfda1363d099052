package pubsub

import (
	"context"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func newTestClient(t *testing.T) (*pubsub.Client, *pstest.Server) {
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })
	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	client, err := pubsub.NewClient(context.Background(), "test-project", option.WithGRPCConn(conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

func TestEventPublisher_CreatesTopicAndPublishes(t *testing.T) {
	client, srv := newTestClient(t)
	p := NewEventPublisher(client)
	defer p.Stop()

	id, err := p.Publish(context.Background(), "purchase.completed", []byte(`{"code":"ABCD2345"}`))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, `{"code":"ABCD2345"}`, string(msgs[0].Data))

	// second publish reuses the cached topic
	_, err = p.Publish(context.Background(), "purchase.completed", []byte(`{}`))
	require.NoError(t, err)
	assert.Len(t, srv.Messages(), 2)
}

func TestNewPubSub_RequiresProject(t *testing.T) {
	_, err := NewPubSub(context.Background(), "")
	assert.Error(t, err)
}
