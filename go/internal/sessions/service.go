package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"github.com/mcdev12/timeee/go/internal/models"
)

const (
	// SessionServiceName is the fully-qualified name of the session RPC service.
	SessionServiceName = "timeee.session.v1.SessionService"

	SaveSessionProcedure    = "/" + SessionServiceName + "/SaveSession"
	GetLeaderboardProcedure = "/" + SessionServiceName + "/GetLeaderboard"
)

// SessionsApp defines what the transport layers need from the sessions application
type SessionsApp interface {
	CreateSession(ctx context.Context, req CreateSessionRequest) (*models.StoredSession, error)
	GetLeaderboard(ctx context.Context, limit int32) ([]models.LeaderboardEntry, error)
	ListSessions(ctx context.Context, username string, limit int32) ([]models.StoredSession, error)
}

// Service exposes the sessions app as Connect RPC procedures. Messages are
// plain JSON structs, so a JSON codec replaces the default protobuf ones.
type Service struct {
	app SessionsApp
}

// NewService creates a new sessions RPC service
func NewService(app SessionsApp) *Service {
	return &Service{
		app: app,
	}
}

// SaveSession stores a session
func (s *Service) SaveSession(ctx context.Context, req *connect.Request[CreateSessionRequest]) (*connect.Response[CreateSessionResponse], error) {
	session, err := s.app.CreateSession(ctx, *req.Msg)
	if err != nil {
		if errors.Is(err, ErrInvalidSession) {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&CreateSessionResponse{
		ID:        session.ID,
		CreatedAt: session.CreatedAt,
	}), nil
}

// GetLeaderboard returns the ranking of accumulated time
func (s *Service) GetLeaderboard(ctx context.Context, req *connect.Request[GetLeaderboardRequest]) (*connect.Response[GetLeaderboardResponse], error) {
	entries, err := s.app.GetLeaderboard(ctx, req.Msg.Limit)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return connect.NewResponse(&GetLeaderboardResponse{
		Entries: entries,
	}), nil
}

// Handler returns the path prefix and handler serving every procedure.
func (s *Service) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(SaveSessionProcedure, connect.NewUnaryHandler(SaveSessionProcedure, s.SaveSession, opts...))
	mux.Handle(GetLeaderboardProcedure, connect.NewUnaryHandler(GetLeaderboardProcedure, s.GetLeaderboard, opts...))
	return "/" + SessionServiceName + "/", mux
}

// jsonCodec marshals plain Go structs with encoding/json. It takes the
// "json" name so it serves application/json requests.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
