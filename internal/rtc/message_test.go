package rtc

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_EncodeDecode(t *testing.T) {
	msg, err := NewMessage(TypeText, TextPayload{Text: "hi", SentAt: 42})
	require.NoError(t, err)
	b, err := msg.Encode()
	require.NoError(t, err)

	got, err := DecodeMessage(b)
	require.NoError(t, err)
	assert.Equal(t, TypeText, got.Type)

	var text TextPayload
	require.NoError(t, got.DecodePayload(&text))
	assert.Equal(t, TextPayload{Text: "hi", SentAt: 42}, text)
}

func TestDecodeMessage_Garbage(t *testing.T) {
	_, err := DecodeMessage([]byte{0xc1})
	assert.Error(t, err)
}

func TestSelectFraming(t *testing.T) {
	assert.Equal(t, PlainFraming, SelectFraming(false))
	assert.Equal(t, MsgpackFraming, SelectFraming(true))
}

func TestNetworkHeuristics(t *testing.T) {
	assert.True(t, looksLikeTunnel("wg0"))
	assert.True(t, looksLikeTunnel("utun3"))
	assert.False(t, looksLikeTunnel("eth0"))

	assert.True(t, isCGNAT(net.ParseIP("100.100.1.2")))
	assert.False(t, isCGNAT(net.ParseIP("192.168.1.2")))
	assert.False(t, isCGNAT(nil))
}

func TestError(t *testing.T) {
	err := WrapError("wait channel", ErrTimeout, "30s")
	assert.Equal(t, "wait channel: timeout (30s)", err.Error())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "send text: channel not open", NewError("send text", ErrChannelNotOpen).Error())
}
