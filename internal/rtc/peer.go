// Package rtc runs the WebRTC side of a chat: the peer connection, the
// "chat" data channel and its framing.
package rtc

import (
	"log/slog"

	pion "github.com/pion/webrtc/v4"

	"github.com/duet-rtc/duet/internal/config"
	"github.com/duet-rtc/duet/internal/logging"
)

// ChatLabel is the label of the single data channel a session opens.
const ChatLabel = "chat"

// NewPeerConnection builds a peer connection from the ICE settings in cfg.
func NewPeerConnection(cfg *config.Config) (*pion.PeerConnection, error) {
	var iceServers []pion.ICEServer
	if stun := cfg.GetSTUNServers(); len(stun) > 0 {
		iceServers = append(iceServers, pion.ICEServer{URLs: stun})
	}

	turnServers := cfg.GetTURNServers()
	if turnServers != nil {
		username, password := cfg.GetTURNCredentials()
		iceServers = append(iceServers, pion.ICEServer{
			URLs:       turnServers,
			Username:   username,
			Credential: password,
		})
	}

	policy := pion.ICETransportPolicyAll
	if turnServers != nil && (cfg.ForceRelay || behindRestrictiveNetwork()) {
		slog.Debug("restricting ICE to relay candidates")
		policy = pion.ICETransportPolicyRelay
	}

	se := pion.SettingEngine{LoggerFactory: logging.PionFactory()}
	api := pion.NewAPI(pion.WithSettingEngine(se))

	pc, err := api.NewPeerConnection(pion.Configuration{
		ICEServers:         iceServers,
		ICETransportPolicy: policy,
	})
	if err != nil {
		return nil, NewError("create peer connection", err)
	}
	return pc, nil
}

func createChatChannel(pc *pion.PeerConnection) (*pion.DataChannel, error) {
	ordered := true
	dc, err := pc.CreateDataChannel(ChatLabel, &pion.DataChannelInit{
		Ordered: &ordered,
	})
	if err != nil {
		return nil, NewError("create data channel", err)
	}
	return dc, nil
}
