package channels

import (
	"context"
	"fmt"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/soban-bot/soban/pkg/config"
	"github.com/soban-bot/soban/pkg/logger"
)

type MatrixChannel struct {
	*BaseChannel
	client       *mautrix.Client
	matrixConfig config.MatrixConfig
	syncer       *mautrix.DefaultSyncer
	startTime    time.Time // events before this timestamp are ignored (initial sync flood guard)
}

func NewMatrixChannel(matrixCfg config.MatrixConfig, dispatcher Dispatcher) (*MatrixChannel, error) {
	client, err := mautrix.NewClient(matrixCfg.Homeserver, id.UserID(matrixCfg.UserID), matrixCfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create matrix client: %w", err)
	}

	if matrixCfg.DeviceID != "" {
		client.DeviceID = id.DeviceID(matrixCfg.DeviceID)
	}

	c := &MatrixChannel{
		BaseChannel:  NewBaseChannel("matrix", dispatcher),
		client:       client,
		matrixConfig: matrixCfg,
		syncer:       client.Syncer.(*mautrix.DefaultSyncer),
		startTime:    time.Now(),
	}
	c.syncer.OnEventType(event.EventMessage, c.handleMessage)
	c.syncer.OnEventType(event.StateMember, c.handleMemberEvent)

	return c, nil
}

func (c *MatrixChannel) Run(ctx context.Context) error {
	logger.InfoCF("matrix", "Starting Matrix client", map[string]any{
		"homeserver": c.matrixConfig.Homeserver,
	})

	if err := c.login(ctx); err != nil {
		return err
	}

	defer c.waitInflight()
	syncCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.setRunning(true)
	defer c.setRunning(false)
	logger.InfoCF("matrix", "Matrix client started", map[string]any{
		"user_id": c.client.UserID.String(),
	})

	err := c.client.SyncWithContext(syncCtx)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("matrix: sync: %w", err)
	}
	logger.InfoC("matrix", "Matrix client stopped")
	return nil
}

// login authenticates with the password when no access token is configured,
// and otherwise makes sure the client knows its own user id.
func (c *MatrixChannel) login(ctx context.Context) error {
	if c.client.AccessToken == "" {
		resp, err := c.client.Login(ctx, &mautrix.ReqLogin{
			Type: mautrix.AuthTypePassword,
			Identifier: mautrix.UserIdentifier{
				Type: mautrix.IdentifierTypeUser,
				User: c.matrixConfig.Username,
			},
			Password:                 c.matrixConfig.Password,
			DeviceID:                 id.DeviceID(c.matrixConfig.DeviceID),
			InitialDeviceDisplayName: "soban",
			StoreCredentials:         true,
		})
		if err != nil {
			return fmt.Errorf("matrix: login: %w", err)
		}
		logger.InfoCF("matrix", "Logged in", map[string]any{
			"user_id":   resp.UserID.String(),
			"device_id": resp.DeviceID.String(),
		})
		return nil
	}

	if c.client.UserID == "" {
		resp, err := c.client.Whoami(ctx)
		if err != nil {
			return fmt.Errorf("matrix: whoami: %w", err)
		}
		c.client.UserID = resp.UserID
		if c.client.DeviceID == "" {
			c.client.DeviceID = resp.DeviceID
		}
	}
	return nil
}

func (c *MatrixChannel) handleMemberEvent(ctx context.Context, evt *event.Event) {
	memberEvt := evt.Content.AsMember()

	if memberEvt.Membership == event.MembershipInvite &&
		evt.GetStateKey() == string(c.client.UserID) &&
		c.matrixConfig.JoinOnInvite {

		roomID := evt.RoomID
		logger.InfoCF("matrix", "Auto-joining room after invite", map[string]any{
			"room_id": roomID.String(),
			"inviter": evt.Sender.String(),
		})

		if _, err := c.client.JoinRoomByID(ctx, roomID); err != nil {
			logger.ErrorCF("matrix", "Failed to join room", map[string]any{
				"room_id": roomID.String(),
				"error":   err.Error(),
			})
		}
	}
}

func (c *MatrixChannel) handleMessage(ctx context.Context, evt *event.Event) {
	// Ignore our own messages
	if evt.Sender == c.client.UserID {
		return
	}

	// Ignore historical events delivered on initial sync (flood guard).
	// Matrix timestamps are in milliseconds.
	if time.UnixMilli(evt.Timestamp).Before(c.startTime) {
		logger.DebugCF("matrix", "Ignoring historical event", map[string]any{
			"event_id": evt.ID.String(),
			"event_ts": evt.Timestamp,
			"start_ts": c.startTime.UnixMilli(),
		})
		return
	}

	msgEvt := evt.Content.AsMessage()
	if msgEvt.MsgType != event.MsgText {
		return
	}
	// Ignore edit events (m.replace relations)
	if msgEvt.RelatesTo != nil && msgEvt.RelatesTo.Type == event.RelReplace {
		return
	}

	c.HandleMessage(ctx, &matrixOrigin{client: c.client, roomID: evt.RoomID}, msgEvt.Body)
}

type matrixOrigin struct {
	client *mautrix.Client
	roomID id.RoomID
}

func (o *matrixOrigin) Send(ctx context.Context, text string) error {
	content := &event.MessageEventContent{
		MsgType: event.MsgText,
		Body:    text,
	}
	if _, err := o.client.SendMessageEvent(ctx, o.roomID, event.EventMessage, content); err != nil {
		return fmt.Errorf("matrix: sending to %s: %w", o.roomID, err)
	}
	return nil
}

func (o *matrixOrigin) Backend() string { return "matrix" }
func (o *matrixOrigin) Target() string  { return o.roomID.String() }
