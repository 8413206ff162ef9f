// Command seed fills a Postgres database with demo admins, reference codes and
// fake applications. Development only.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"

	"intake-review/internal/config"
	"intake-review/internal/domain/model"
	"intake-review/internal/domain/ports/repository"
	pg "intake-review/internal/infra/db/postgres"
	"intake-review/internal/infra/identity"
	"intake-review/internal/infra/logging"
	"intake-review/internal/infra/security"
	"intake-review/internal/usecase"
)

const demoPassword = "demo-password"

func main() {
	admins := flag.Int("admins", 3, "number of demo admins")
	perAdmin := flag.Int("apps", 5, "applications per admin code")

	// ---- Config ----
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Storage.Driver != "postgres" {
		log.Fatalf("seed needs storage.driver=postgres, got %q", cfg.Storage.Driver)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	cipher, err := security.NewEncryptionServiceWithContext(cfg.Security.EncryptionKey, "applications.phone")
	if err != nil {
		log.Fatalf("encryption: %v", err)
	}

	users := pg.NewUserProfileRepo(pool)
	codes := pg.NewReferenceCodeRepo(pool)
	ids := identity.NewProvider(pg.NewIdentityRepo(pool), bcrypt.DefaultCost, logger)
	appRepo := pg.NewApplicationRepo(pool, cipher)
	access := usecase.NewAccessEngine(codes, appRepo, users, logger)
	apps := usecase.NewApplicationUseCase(appRepo, access, logger, cfg.Runtime.Dev)
	boot := usecase.NewBootstrapGuard(users, ids, pg.NewTxManager(pool), cfg.Bootstrap.DefaultAdminEmail, cfg.Bootstrap.DefaultAdminName, logger)

	if _, err := boot.EnsureDefaultAdminExists(ctx); err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	// If admins already exist, do nothing
	existing, err := users.List(ctx, repository.NoTX)
	if err != nil {
		log.Fatalf("list profiles: %v", err)
	}
	if len(existing) > 1 {
		fmt.Printf("%d profiles already present. No changes.\n", len(existing))
		for _, p := range existing {
			fmt.Printf("  - %s <%s> %s active=%t\n", p.DisplayName(), p.Email, p.Role, p.IsActive)
		}
		return
	}

	gofakeit.Seed(time.Now().UnixNano())

	for i := 0; i < *admins; i++ {
		name := gofakeit.Name()
		email := fmt.Sprintf("admin%d@example.com", i+1)
		ident, err := ids.CreateIdentity(ctx, email, demoPassword, name)
		if err != nil {
			log.Fatalf("identity %s: %v", email, err)
		}
		p, err := model.NewUserProfile(ident.UID, email, name, model.RoleAdmin)
		if err != nil {
			log.Fatalf("profile %s: %v", email, err)
		}
		if err := users.Create(ctx, repository.NoTX, p); err != nil {
			log.Fatalf("profile %s: %v", email, err)
		}

		value, err := model.GenerateReferenceCode()
		if err != nil {
			log.Fatalf("generate code: %v", err)
		}
		code, err := model.NewReferenceCode(value, &p.ID)
		if err != nil {
			log.Fatalf("code: %v", err)
		}
		if err := codes.Create(ctx, repository.NoTX, code); err != nil {
			log.Fatalf("code %s: %v", value, err)
		}

		for j := 0; j < *perAdmin; j++ {
			if _, err := apps.Submit(ctx, fakeApplication(code.Code)); err != nil {
				log.Fatalf("application: %v", err)
			}
		}
		fmt.Printf("  + %s <%s> code=%s applications=%d\n", name, email, code.Code, *perAdmin)
	}
	fmt.Printf("Seeded %d admins (password %q).\n", *admins, demoPassword)
}

func fakeApplication(ref string) model.ApplicationInput {
	gender := model.GenderMale
	if gofakeit.Bool() {
		gender = model.GenderFemale
	}
	return model.ApplicationInput{
		Name:        gofakeit.Name(),
		Email:       gofakeit.Email(),
		Phone:       "+1" + gofakeit.Phone(),
		Age:         gofakeit.Number(21, 65),
		Nationality: gofakeit.Country(),
		Gender:      gender,
		Requirement: true,
		RefCode:     ref,
	}
}
