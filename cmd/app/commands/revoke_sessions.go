package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sackofdump/pcompass/internal/app"
	"github.com/sackofdump/pcompass/internal/config"
)

// RunRevokeSessions bumps the session version for a user, invalidating every
// outstanding current-format auth token. Used for operational lockout when a
// cookie is suspected stolen.
func RunRevokeSessions(ctx context.Context, userIDStr string) error {
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", userIDStr, err)
	}

	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	userUC, err := container.UserUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize user use case: %w", err)
	}

	if err := userUC.RevokeSessions(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	logger.Info("sessions revoked", slog.String("user_id", userID.String()))
	return nil
}
