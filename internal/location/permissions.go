package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/alexanderramin/jobclock/internal/repository"
	"github.com/sirupsen/logrus"
)

// Prompter asks the user whether to grant the "always" location level.
type Prompter func(ctx context.Context) (bool, error)

// StoredPermissions keeps the location grant in the record store. A
// terminal process has no OS permission dialog, so the grant is whatever
// the user last recorded, with foreground access assumed until then.
type StoredPermissions struct {
	repo   repository.RecordRepo[domain.Permissions]
	prompt Prompter
	now    func() time.Time
	log    *logrus.Entry
}

func NewStoredPermissions(repo repository.RecordRepo[domain.Permissions], prompt Prompter, log *logrus.Entry) *StoredPermissions {
	return &StoredPermissions{repo: repo, prompt: prompt, now: time.Now, log: log}
}

func (p *StoredPermissions) Current(ctx context.Context) (domain.Permissions, error) {
	stored, err := p.repo.Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Permissions{Level: domain.PermissionForeground}, nil
	}
	if err != nil {
		return domain.Permissions{}, err
	}
	return *stored, nil
}

// RequestBackground asks for the elevated grant through the prompter.
// Without one the current grant is returned unchanged.
func (p *StoredPermissions) RequestBackground(ctx context.Context) (domain.Permissions, error) {
	current, err := p.Current(ctx)
	if err != nil {
		return domain.Permissions{}, err
	}
	if current.Background() || p.prompt == nil {
		return current, nil
	}
	ok, err := p.prompt(ctx)
	if err != nil {
		return current, fmt.Errorf("prompting for background permission: %w", err)
	}
	if !ok {
		p.log.Info("background location permission declined")
		return current, nil
	}
	return p.Grant(ctx, domain.PermissionAlways)
}

// Grant records level as the current grant.
func (p *StoredPermissions) Grant(ctx context.Context, level domain.PermissionLevel) (domain.Permissions, error) {
	if _, ok := domain.ParsePermissionLevel(string(level)); !ok {
		return domain.Permissions{}, fmt.Errorf("unknown permission level %q", level)
	}
	perms := domain.Permissions{Level: level, UpdatedAt: p.now().UTC()}
	if err := p.repo.Put(ctx, &perms); err != nil {
		return domain.Permissions{}, err
	}
	p.log.WithField("level", level).Info("location permission updated")
	return perms, nil
}

func (p *StoredPermissions) Revoke(ctx context.Context) (domain.Permissions, error) {
	return p.Grant(ctx, domain.PermissionNone)
}
