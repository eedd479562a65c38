package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/duet-rtc/duet/internal/config"
	"github.com/duet-rtc/duet/internal/rtc"
	"github.com/duet-rtc/duet/internal/signalclient"
	"github.com/duet-rtc/duet/internal/ui"
)

const (
	connectTimeout = 10 * time.Second
	openTimeout    = 30 * time.Second
)

var (
	flagServer   string
	flagSTUN     string
	flagTURN     string
	flagTURNUser string
	flagTURNPass string
	flagRelay    bool
)

var chatCmd = &cobra.Command{
	Use:     "chat <room>",
	Aliases: []string{"c"},
	Short:   "Join a room and chat with the other member",
	Long: `Join a room on the relay and chat with whoever else joins it.

The first person in a room waits for the second; once both are there a
direct data channel is opened between them.

Examples:
  duet chat lobby
  duet chat lobby --server wss://relay.example.com/ws
  duet chat lobby --turn turn.example.com --turn-user me --turn-pass secret --relay`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		room := strings.TrimSpace(args[0])
		if room == "" {
			return fmt.Errorf("room name must not be empty")
		}
		return runChat(cmd.Context(), room)
	},
}

func runChat(ctx context.Context, room string) error {
	cfg, err := LoadConfig(config.Options{
		ServerURL:  flagServer,
		STUNServer: flagSTUN,
		TURNServer: flagTURN,
		TURNUser:   flagTURNUser,
		TURNPass:   flagTURNPass,
		ForceRelay: flagRelay,
	})
	if err != nil {
		return err
	}

	sp := ui.NewConnectionSpinner(ui.IconConnect + " Connecting to " + cfg.ServerURL + "...")
	sp.Start()
	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	conn, err := NewConnectionContext(dialCtx, cfg)
	cancel()
	if err != nil {
		sp.Error("Could not reach the relay")
		return err
	}
	defer conn.Close()
	sp.Stop()

	joined, err := joinRoom(conn, room)
	if err != nil {
		return err
	}
	fmt.Println(ui.RoomInfo{Room: joined.Room, SID: joined.SID, Members: joined.Members}.View())

	session, err := rtc.NewSession(cfg, conn.Client, room)
	if err != nil {
		return err
	}
	defer session.Close()

	go pumpSignals(conn.Handler, session)

	if err := connectPeer(conn, session, joined.Members == 1); err != nil {
		leaveRoom(conn, room)
		return err
	}

	start := time.Now()
	status, err := runChatUI(conn, session, room)
	leaveRoom(conn, room)
	if err != nil {
		return rtc.NewError("chat ui", err)
	}

	sent, received := session.Counts()
	fmt.Println()
	ui.RenderSessionSummary(ui.SessionSummary{
		Room:     room,
		Peer:     session.PeerID(),
		Status:   status,
		Duration: time.Since(start),
		Sent:     sent,
		Received: received,
	})
	fmt.Printf("%s Left %s\n", ui.IconBye, room)
	return nil
}

// leaveRoom tells the relay we are done with room. A relay connection that
// already dropped has released the room on its own.
func leaveRoom(conn *ConnectionContext, room string) error {
	err := conn.Client.Send(signalclient.TypeLeave, signalclient.RoomRequest{Room: room})
	if err != nil {
		ui.PrintWarning("Relay connection already closed")
	}
	return err
}

// joinRoom sends join and waits for the relay's answer.
func joinRoom(conn *ConnectionContext, room string) (*signalclient.Joined, error) {
	if err := conn.Client.Send(signalclient.TypeJoin, signalclient.RoomRequest{Room: room}); err != nil {
		return nil, rtc.WrapError("join room", rtc.ErrSignaling, err.Error())
	}

	select {
	case joined := <-conn.Handler.Joined:
		return joined, nil
	case errMsg := <-conn.Handler.Error:
		return nil, rtc.WrapError("join room", rtc.ErrSignaling, errMsg)
	case <-conn.Handler.Closed:
		return nil, rtc.WrapError("join room", rtc.ErrSignaling, "connection closed")
	case <-time.After(connectTimeout):
		return nil, rtc.WrapError("join room", rtc.ErrTimeout, "no reply from relay")
	}
}

// pumpSignals feeds relayed offers, answers and candidates to the session.
func pumpSignals(h *signalclient.Handler, session *rtc.Session) {
	for {
		select {
		case sig := <-h.Signal:
			if err := session.HandleSignal(sig); err != nil {
				slog.Warn("failed to apply signal", "type", sig.Type, "error", err)
			}
		case <-h.Closed:
			return
		case <-session.Closed():
			return
		}
	}
}

// connectPeer waits for the second member and for the data channel to open.
// The first member of the room makes the offer.
func connectPeer(conn *ConnectionContext, session *rtc.Session, offerer bool) error {
	sp := ui.NewWaitingSpinner("Waiting for someone to join...")
	sp.Start()
	defer sp.Stop()

	h := conn.Handler
	var openDeadline <-chan time.Time

	for {
		select {
		case <-h.Ready:
			sp.UpdateMessage("Opening a direct connection...")
			if openDeadline == nil {
				openDeadline = time.After(openTimeout)
			}
			if offerer {
				if err := session.StartOffer(); err != nil {
					return err
				}
			}

		case <-session.Opened():
			sp.Success("Connected, say hi!")
			return nil

		case left := <-h.PeerLeft:
			sp.Error("The other member left")
			return rtc.WrapError("connect", rtc.ErrPeerLeft, left.SID)

		case errMsg := <-h.Error:
			slog.Warn("relay error", "message", errMsg)

		case <-h.Closed:
			return rtc.WrapError("connect", rtc.ErrSignaling, "relay connection closed")

		case <-session.Closed():
			return rtc.NewError("connect", rtc.ErrConnectionFailed)

		case <-openDeadline:
			return rtc.WrapError("connect", rtc.ErrTimeout, "data channel did not open")
		}
	}
}

// runChatUI runs the chat until the user leaves or the peer goes away and
// returns a short status for the summary.
func runChatUI(conn *ConnectionContext, session *rtc.Session, room string) (string, error) {
	chat := ui.NewChatUI(room, session.PeerID(), session.SendText)
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		for {
			select {
			case m := <-session.Messages():
				chat.Receive(m.Text, m.At)
			case <-conn.Handler.PeerLeft:
				chat.End("Peer left the chat")
				return
			case <-session.Closed():
				chat.End("Connection closed")
				return
			case <-conn.Handler.Closed:
				// The data channel does not need the relay anymore.
				slog.Debug("relay connection closed during chat")
				return
			case <-stop:
				return
			}
		}
	}()

	reason, err := chat.Run()
	if reason == "" {
		reason = "Ended"
	}
	return reason, err
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVarP(&flagServer, "server", "S", "", "Relay websocket URL (default "+config.DefaultServerURL+")")
	chatCmd.Flags().StringVarP(&flagSTUN, "stun", "s", "", "Custom STUN server")
	chatCmd.Flags().StringVarP(&flagTURN, "turn", "t", "", "Custom TURN server")
	chatCmd.Flags().StringVarP(&flagTURNUser, "turn-user", "u", "", "TURN username")
	chatCmd.Flags().StringVarP(&flagTURNPass, "turn-pass", "p", "", "TURN password")
	chatCmd.Flags().BoolVarP(&flagRelay, "relay", "r", false, "Force relay mode")
}
