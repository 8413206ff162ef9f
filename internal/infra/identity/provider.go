// Package identity is the built-in identity provider. It owns credentials; the rest of
// the system only sees model.Identity.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"intake-review/internal/domain"
	"intake-review/internal/domain/model"
	"intake-review/internal/domain/ports/adapter"
	"intake-review/internal/domain/ports/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var _ adapter.IdentityProvider = (*Provider)(nil)

type Provider struct {
	repo repository.IdentityRepository
	cost int
	// dummyHash is compared against on unknown emails. It shares cost with real hashes
	// so both failure paths take the same time.
	dummyHash []byte
	log       *zerolog.Logger
}

func NewProvider(repo repository.IdentityRepository, cost int, logger *zerolog.Logger) *Provider {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cost)
	if err != nil {
		panic(fmt.Sprintf("identity: generate dummy hash: %v", err))
	}
	return &Provider{repo: repo, cost: cost, dummyHash: dummy, log: logger}
}

func (p *Provider) VerifyCredentials(ctx context.Context, email, password string) (*model.Identity, error) {
	rec, err := p.repo.FindByEmail(ctx, repository.NoTX, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(p.dummyHash, []byte(password))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(rec.PasswordHash, []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	id := rec.Identity
	return &id, nil
}

func (p *Provider) CreateIdentity(ctx context.Context, email, password, displayName string) (*model.Identity, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.ErrInvalidArgument
	}
	if password == "" {
		return nil, domain.ErrInvalidArgument
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now()
	rec := &model.IdentityRecord{
		Identity: model.Identity{
			UID:         uuid.NewString(),
			Email:       email,
			DisplayName: strings.TrimSpace(displayName),
			CreatedAt:   now,
		},
		PasswordHash: hash,
		UpdatedAt:    now,
	}
	if err := p.repo.Create(ctx, repository.NoTX, rec); err != nil {
		return nil, err
	}
	p.log.Debug().Str("uid", rec.UID).Msg("identity created")
	id := rec.Identity
	return &id, nil
}

func (p *Provider) GetIdentity(ctx context.Context, uid string) (*model.Identity, error) {
	rec, err := p.repo.FindByUID(ctx, repository.NoTX, uid)
	if err != nil {
		return nil, err
	}
	id := rec.Identity
	return &id, nil
}

func (p *Provider) UpdatePassword(ctx context.Context, uid, password string) error {
	if password == "" {
		return domain.ErrInvalidArgument
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return p.repo.UpdatePasswordHash(ctx, repository.NoTX, uid, hash)
}
