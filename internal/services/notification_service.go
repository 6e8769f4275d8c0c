package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/flowerdream/api/internal/repositories"
)

var (
	// ErrNotificationInvalidInput signals the caller provided invalid data.
	ErrNotificationInvalidInput = errors.New("notification: invalid input")
	// ErrNotificationNotFound indicates the notification could not be located.
	ErrNotificationNotFound = errors.New("notification: not found")
	// ErrNotificationForbidden indicates the notification belongs to another user.
	ErrNotificationForbidden = errors.New("notification: forbidden")
)

// NotificationServiceDeps bundles collaborators required to construct the notification service.
type NotificationServiceDeps struct {
	Notifications repositories.NotificationRepository
}

type notificationService struct {
	notifications repositories.NotificationRepository
}

// NewNotificationService wires dependencies into a concrete NotificationService implementation.
func NewNotificationService(deps NotificationServiceDeps) (NotificationService, error) {
	if deps.Notifications == nil {
		return nil, errors.New("notification service: notification repository is required")
	}
	return &notificationService{notifications: deps.Notifications}, nil
}

func (s *notificationService) List(ctx context.Context, email string) ([]Notification, error) {
	email, err := requireEmail(email)
	if err != nil {
		return nil, err
	}
	notifications, err := s.notifications.ListByUser(ctx, email, "-created_date")
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return notifications, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, email string) (int, error) {
	email, err := requireEmail(email)
	if err != nil {
		return 0, err
	}
	unread, err := s.notifications.ListUnread(ctx, email)
	if err != nil {
		return 0, s.mapRepositoryError(err)
	}
	return len(unread), nil
}

func (s *notificationService) MarkRead(ctx context.Context, email string, id string) error {
	email, err := requireEmail(email)
	if err != nil {
		return err
	}
	if err := s.requireOwnership(ctx, email, id); err != nil {
		return err
	}
	if err := s.notifications.MarkRead(ctx, id); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, email string) (int, error) {
	email, err := requireEmail(email)
	if err != nil {
		return 0, err
	}
	unread, err := s.notifications.ListUnread(ctx, email)
	if err != nil {
		return 0, s.mapRepositoryError(err)
	}
	for _, notification := range unread {
		if err := s.notifications.MarkRead(ctx, notification.ID); err != nil {
			return 0, s.mapRepositoryError(err)
		}
	}
	return len(unread), nil
}

func (s *notificationService) Delete(ctx context.Context, email string, id string) error {
	email, err := requireEmail(email)
	if err != nil {
		return err
	}
	if err := s.requireOwnership(ctx, email, id); err != nil {
		return err
	}
	if err := s.notifications.Delete(ctx, id); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

func (s *notificationService) requireOwnership(ctx context.Context, email, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: notification id is required", ErrNotificationInvalidInput)
	}
	notification, err := s.notifications.FindByID(ctx, id)
	if err != nil {
		return s.mapRepositoryError(err)
	}
	if !strings.EqualFold(notification.UserEmail, email) {
		return fmt.Errorf("%w: notification %q belongs to another user", ErrNotificationForbidden, id)
	}
	return nil
}

func requireEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", fmt.Errorf("%w: user email is required", ErrNotificationInvalidInput)
	}
	return email, nil
}

func (s *notificationService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrNotificationNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("notification: repository unavailable: %w", err)
		}
	}
	return err
}
