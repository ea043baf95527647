package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/layer-3/pear/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, messages <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-messages:
		msg.Ack()
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestWatermillPublisher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	logouts, err := pubSub.Subscribe(ctx, LogoutTopic)
	require.NoError(t, err)
	created, err := pubSub.Subscribe(ctx, AgentWalletCreatedTopic)
	require.NoError(t, err)

	pub := NewWatermillPublisher(pubSub)

	require.NoError(t, pub.PublishLogout(ctx, "0xowner", "refresh-id"))
	msg := receive(t, logouts)
	assert.Equal(t, "refresh-id", msg.UUID)
	var logout LogoutEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &logout))
	assert.Equal(t, LogoutEvent{Address: "0xowner", TokenID: "refresh-id"}, logout)

	wallet := core.AgentWallet{Owner: "0xowner", Address: "0xagent", Status: core.AgentWalletPendingApproval}
	require.NoError(t, pub.PublishAgentWalletCreated(ctx, wallet))
	msg = receive(t, created)
	assert.NotEmpty(t, msg.UUID)
	var event AgentWalletCreatedEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &event))
	assert.Equal(t, AgentWalletCreatedEvent{Owner: "0xowner", Address: "0xagent", Status: core.AgentWalletPendingApproval}, event)
}
