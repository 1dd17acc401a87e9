package service

import (
	"context"
	"errors"

	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/alexanderramin/jobclock/internal/repository"
)

type notificationSettingsService struct {
	settings repository.RecordRepo[domain.NotificationSettings]
}

func NewNotificationSettingsService(settings repository.RecordRepo[domain.NotificationSettings]) NotificationSettingsService {
	return &notificationSettingsService{settings: settings}
}

func (s *notificationSettingsService) Get(ctx context.Context) (domain.NotificationSettings, error) {
	stored, err := s.settings.Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.DefaultNotificationSettings(), nil
	}
	if err != nil {
		return domain.NotificationSettings{}, err
	}
	return *stored, nil
}

func (s *notificationSettingsService) Set(ctx context.Context, settings domain.NotificationSettings) error {
	return s.settings.Put(ctx, &settings)
}
