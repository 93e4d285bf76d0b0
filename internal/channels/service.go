package channels

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/botgatehq/botgate/internal/platform"
)

// Service owns channel registration and lifecycle.
type Service struct {
	logger   *slog.Logger
	store    Store
	validate *validator.Validate
}

// NewService creates a channel Service.
func NewService(log *slog.Logger, store Store) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		logger:   log.With(slog.String("service", "channels")),
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register validates and stores a new channel for the user. The
// channel starts active.
func (s *Service) Register(ctx context.Context, userID string, req RegisterRequest) (Channel, error) {
	if err := s.validate.Struct(req); err != nil {
		return Channel{}, translateValidation(err)
	}
	platformType, err := platform.ParseType(req.Platform)
	if err != nil {
		return Channel{}, err
	}

	ch, err := s.store.Insert(ctx, Channel{
		UserID:   userID,
		Platform: platformType,
		Token:    req.Token,
		Name:     req.Name,
		URI:      req.URI,
		Status:   StatusActive,
	})
	if err != nil {
		return Channel{}, err
	}
	s.logger.Info("channel registered",
		slog.String("channel_id", ch.ID),
		slog.String("user_id", ch.UserID),
		slog.String("platform", string(ch.Platform)),
	)
	return ch, nil
}

// Get returns one of the user's channels.
func (s *Service) Get(ctx context.Context, userID, channelID string) (Channel, error) {
	ch, err := s.store.Get(ctx, channelID)
	if err != nil {
		return Channel{}, err
	}
	if ch.UserID != userID {
		return Channel{}, ErrChannelNotFound
	}
	return ch, nil
}

// List returns all live channels owned by the user.
func (s *Service) List(ctx context.Context, userID string) ([]Channel, error) {
	return s.store.ListByUser(ctx, userID)
}

// FindActive returns the channel dispatch should use for the user on
// the given platform.
func (s *Service) FindActive(ctx context.Context, userID string, p platform.Type) (Channel, error) {
	return s.store.FindActive(ctx, userID, p)
}

// FindByToken resolves a channel from its bot token, used to
// attribute webhook traffic to an owner.
func (s *Service) FindByToken(ctx context.Context, token string) (Channel, error) {
	return s.store.FindByToken(ctx, token)
}

// UpdateStatus activates or deactivates one of the user's channels.
func (s *Service) UpdateStatus(ctx context.Context, userID, channelID string, status Status) (Channel, error) {
	if status != StatusActive && status != StatusInactive {
		return Channel{}, &platform.ValidationError{
			Field:  "status",
			Reason: fmt.Sprintf("must be %d or %d", StatusInactive, StatusActive),
		}
	}
	if _, err := s.Get(ctx, userID, channelID); err != nil {
		return Channel{}, err
	}
	ch, err := s.store.UpdateStatus(ctx, channelID, status)
	if err != nil {
		return Channel{}, err
	}
	s.logger.Info("channel status updated",
		slog.String("channel_id", ch.ID),
		slog.Int("status", int(ch.Status)),
	)
	return ch, nil
}

// Delete soft-deletes one of the user's channels. Conversations
// created through the channel stay intact.
func (s *Service) Delete(ctx context.Context, userID, channelID string) error {
	if _, err := s.Get(ctx, userID, channelID); err != nil {
		return err
	}
	if err := s.store.SoftDelete(ctx, channelID); err != nil {
		return err
	}
	s.logger.Info("channel deleted", slog.String("channel_id", channelID))
	return nil
}

// translateValidation converts the first field failure into the
// gateway's validation error shape.
func translateValidation(err error) error {
	if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		reason := "failed " + fe.Tag() + " validation"
		if fe.Param() != "" {
			reason += " (" + fe.Tag() + "=" + fe.Param() + ")"
		}
		return &platform.ValidationError{Field: fieldName(fe), Reason: reason}
	}
	return &platform.ValidationError{Field: "request", Reason: err.Error()}
}

func fieldName(fe validator.FieldError) string {
	switch fe.Field() {
	case "Platform":
		return "platform"
	case "Name":
		return "name"
	case "Token":
		return "token"
	case "URI":
		return "uri"
	default:
		return fe.Field()
	}
}
