package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gamefold/gamefold-go/pkg/analytics"
	"github.com/gamefold/gamefold-go/pkg/config"
	"github.com/gamefold/gamefold-go/pkg/log"
	"github.com/gamefold/gamefold-go/pkg/sdk"
	"github.com/gamefold/gamefold-go/pkg/stub"
	"github.com/gamefold/gamefold-go/pkg/types"
	"github.com/gamefold/gamefold-go/pkg/version"
)

func main() {
	configPath := flag.String("config", "", "Directory containing config.yaml (overrides other flags)")
	backendURL := flag.String("backend-url", "", "Backend base URL")
	pushURL := flag.String("push-url", "", "Backend push channel URL")
	gameID := flag.String("game-id", "demo-game", "Game ID")
	useStub := flag.Bool("stub", false, "Run against an in-process stub backend")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}
	log.SetDefaultLogger(log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel))

	log.Info("Starting demo (SDK version %s)", version.Get())

	var cfg *config.Config
	switch {
	case *configPath != "":
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			panic(fmt.Sprintf("Failed to load config: %v", err))
		}
	case *useStub:
		baseURL, stop := startStub()
		defer stop()
		cfg = &config.Config{
			Backend: config.BackendConfig{
				BaseURL: baseURL,
				PushURL: stub.PushURL(baseURL),
			},
			Game: config.GameConfig{GameID: *gameID},
		}
	default:
		cfg = &config.Config{
			Backend: config.BackendConfig{
				BaseURL: *backendURL,
				PushURL: *pushURL,
			},
			Game: config.GameConfig{GameID: *gameID},
		}
	}

	if err := run(cfg); err != nil {
		log.Error("Demo failed: %v", err)
		os.Exit(1)
	}
}

func startStub() (baseURL string, stop func()) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic(fmt.Sprintf("Failed to listen: %v", err))
	}
	server := &http.Server{Handler: stub.NewServer().Handler()}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("Stub server error: %v", err)
		}
	}()
	baseURL = fmt.Sprintf("http://%s", listener.Addr())
	log.Info("Stub backend listening on %s", baseURL)
	return baseURL, func() { server.Close() }
}

func run(cfg *config.Config) error {
	s, err := sdk.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create SDK: %v", err)
	}
	defer s.Close()

	sessions := s.Sessions()
	unsubscribeSession := sessions.OnSessionUpdate(func(session *types.Session) {
		if session == nil {
			log.Info("Session cleared")
			return
		}
		log.Info("Session %s is %s with players %v", session.SessionID, session.Status, session.Players)
	})
	defer unsubscribeSession()
	unsubscribeState := sessions.OnStateUpdate(func(state *types.GameState) {
		if state == nil {
			log.Info("Game state cleared")
			return
		}
		log.Info("Game state is %s (round %d, score %d)", state.Status, state.Round, state.Score)
	})
	defer unsubscribeState()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session, err := sessions.CreateSession(ctx, "standard", true)
	if err != nil {
		return fmt.Errorf("failed to create session: %v", err)
	}
	s.Track(analytics.EventTypeSessionStart, nil)

	if _, err := sessions.StartSession(ctx); err != nil {
		return fmt.Errorf("failed to start session: %v", err)
	}

	for i := 1; i <= 3; i++ {
		score := i * 10
		if _, err := sessions.UpdatePlayerState(ctx, session.HostID, types.PlayerStatePatch{Score: &score}); err != nil {
			return fmt.Errorf("failed to update player state: %v", err)
		}
		s.Track(analytics.EventTypeScore, map[string]interface{}{"score": score})
	}

	if err := sessions.EndSession(ctx, []string{session.HostID}); err != nil {
		return fmt.Errorf("failed to end session: %v", err)
	}
	s.Track(analytics.EventTypeSessionEnd, nil)

	// completion arrives over the push channel
	time.Sleep(500 * time.Millisecond)

	if err := sessions.LeaveSession(ctx); err != nil {
		return fmt.Errorf("failed to leave session: %v", err)
	}

	log.Info("Demo complete")
	return nil
}
