package sdk

import (
	"context"

	"github.com/gamefold/gamefold-go/pkg/analytics"
	"github.com/gamefold/gamefold-go/pkg/api"
	"github.com/gamefold/gamefold-go/pkg/config"
	"github.com/gamefold/gamefold-go/pkg/log"
	"github.com/gamefold/gamefold-go/pkg/push"
	"github.com/gamefold/gamefold-go/pkg/session"
	"github.com/gamefold/gamefold-go/pkg/version"
	"github.com/google/uuid"
)

// SDK bundles the transport, session synchronizer and analytics pipeline
// for one game client.
type SDK struct {
	instanceID string
	gameID     string
	apiClient  *api.Client
	pushClient *push.Client
	sessions   *session.Manager
	analytics  *analytics.Queue
	cancel     context.CancelFunc
}

// New creates an SDK from config. The push channel is not opened until a
// session operation needs it or Connect is called.
func New(cfg *config.Config) (*SDK, error) {
	if cfg.Backend.BaseURL == "" {
		return nil, &session.ConfigurationError{Message: "backend base URL is required"}
	}
	if cfg.Backend.PushURL == "" {
		return nil, &session.ConfigurationError{Message: "backend push URL is required"}
	}
	if cfg.Game.GameID == "" {
		return nil, &session.ConfigurationError{Message: "game ID is required"}
	}

	apiClient := api.NewClient(api.NewClientOptions{
		BaseURL: cfg.Backend.BaseURL,
		APIKey:  cfg.Backend.APIKey,
		Timeout: cfg.Backend.RequestTimeout,
	})
	pushClient := push.NewClient(push.NewClientOptions{
		URL:    cfg.Backend.PushURL,
		APIKey: cfg.Backend.APIKey,
	})
	sessions := session.NewManager(session.NewManagerOptions{
		API:    apiClient,
		Push:   pushClient,
		GameID: cfg.Game.GameID,
	})
	eventQueue := analytics.NewQueue(analytics.NewQueueOptions{
		Sender:        analytics.NewAPISender(apiClient),
		MaxBatchSize:  cfg.Analytics.MaxBatchSize,
		FlushInterval: cfg.Analytics.FlushInterval,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go eventQueue.Start(ctx)

	s := &SDK{
		instanceID: uuid.NewString(),
		gameID:     cfg.Game.GameID,
		apiClient:  apiClient,
		pushClient: pushClient,
		sessions:   sessions,
		analytics:  eventQueue,
		cancel:     cancel,
	}
	log.Info("SDK %s initialized for game %s (version %s)", s.instanceID, s.gameID, version.Get())
	return s, nil
}

// Sessions returns the session synchronizer.
func (s *SDK) Sessions() *session.Manager {
	return s.sessions
}

// Analytics returns the event batching queue.
func (s *SDK) Analytics() *analytics.Queue {
	return s.analytics
}

// Connect opens the push channel eagerly. Session operations connect on
// demand, so calling this is optional.
func (s *SDK) Connect(ctx context.Context) error {
	return s.pushClient.Connect(ctx)
}

// Track records an analytics event, stamping it with the configured game
// and the active session.
func (s *SDK) Track(eventType analytics.EventType, payload map[string]interface{}) {
	event := analytics.NewEvent(eventType, s.gameID)
	if payload != nil {
		event = event.WithPayload(payload)
	}
	if session := s.sessions.CurrentSession(); session != nil {
		event = event.WithSession(session.SessionID)
	}
	s.analytics.Enqueue(event)
}

// Close tears the SDK down: the push channel is disconnected, the
// periodic flush is stopped and a final synchronous flush is attempted so
// buffered events are not lost.
func (s *SDK) Close() error {
	s.cancel()
	s.pushClient.Disconnect()
	if err := s.analytics.Close(); err != nil {
		log.Warn("Failed to flush analytics events on close: %v", err)
		return err
	}
	return nil
}
