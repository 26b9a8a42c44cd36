package bridge

import (
	"context"

	"github.com/gamefold/gamefold-go/pkg/log"
	"github.com/gamefold/gamefold-go/pkg/queue"
	"github.com/gamefold/gamefold-go/pkg/subscriptions"
	"github.com/gamefold/gamefold-go/pkg/types"
)

// Synchronizer is the slice of the session manager the bridge drives.
type Synchronizer interface {
	UpdateGameState(ctx context.Context, patch types.GameStatePatch) (*types.GameState, error)
	UpdatePlayerState(ctx context.Context, playerID string, patch types.PlayerStatePatch) (*types.GameState, error)
	LeaveSession(ctx context.Context) error
	OnSessionUpdate(handler func(*types.Session)) subscriptions.UnregisterFunc
	OnStateUpdate(handler func(*types.GameState)) subscriptions.UnregisterFunc
}

// Dispatcher pumps inbound engine commands into the synchronizer and fans
// session/state changes back out as outbound notifications.
type Dispatcher struct {
	synchronizer Synchronizer
	inbound      *queue.InMemoryQueue[Command]
	outbound     *queue.InMemoryQueue[Notification]
	unregisters  []subscriptions.UnregisterFunc
}

type NewDispatcherOptions struct {
	Synchronizer Synchronizer
	// QueueSize bounds both queues. Zero means queue.DefaultBufferSize.
	QueueSize int
}

// NewDispatcher creates a dispatcher and subscribes it to session and
// state changes.
func NewDispatcher(opts NewDispatcherOptions) *Dispatcher {
	d := &Dispatcher{
		synchronizer: opts.Synchronizer,
		inbound:      queue.NewInMemoryQueue[Command](opts.QueueSize),
		outbound:     queue.NewInMemoryQueue[Notification](opts.QueueSize),
	}
	d.unregisters = append(d.unregisters,
		d.synchronizer.OnSessionUpdate(func(session *types.Session) {
			d.notify(Notification{Type: NotificationSessionUpdate, Session: session})
		}),
		d.synchronizer.OnStateUpdate(func(state *types.GameState) {
			d.notify(Notification{Type: NotificationStateUpdate, State: state})
		}),
	)
	return d
}

// Submit queues an inbound command from the engine runtime.
func (d *Dispatcher) Submit(cmd Command) error {
	return d.inbound.Enqueue(cmd)
}

// Outbound exposes the notification queue the engine runtime drains.
func (d *Dispatcher) Outbound() *queue.InMemoryQueue[Notification] {
	return d.outbound
}

// Start processes inbound commands until ctx is canceled.
func (d *Dispatcher) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.stop()
			return
		case cmd := <-d.inbound.C():
			d.handleCommand(ctx, cmd)
		}
	}
}

func (d *Dispatcher) stop() {
	for _, unregister := range d.unregisters {
		unregister()
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, cmd Command) {
	var err error
	switch cmd.Type {
	case CommandUpdateGameState:
		if cmd.StatePatch == nil {
			log.Warn("Bridge update_game_state command without a patch")
			return
		}
		_, err = d.synchronizer.UpdateGameState(ctx, *cmd.StatePatch)
	case CommandUpdatePlayerState:
		if cmd.PlayerPatch == nil || cmd.PlayerID == "" {
			log.Warn("Bridge update_player_state command without a player or patch")
			return
		}
		_, err = d.synchronizer.UpdatePlayerState(ctx, cmd.PlayerID, *cmd.PlayerPatch)
	case CommandLeaveSession:
		err = d.synchronizer.LeaveSession(ctx)
	default:
		log.Warn("Unknown bridge command type %s", cmd.Type)
		return
	}

	if err != nil {
		log.Error("Bridge command %s failed: %v", cmd.Type, err)
		d.notify(Notification{Type: NotificationError, Error: err.Error()})
	}
}

func (d *Dispatcher) notify(notification Notification) {
	if err := d.outbound.Enqueue(notification); err != nil {
		log.Warn("Dropping bridge notification %s: %v", notification.Type, err)
	}
}
