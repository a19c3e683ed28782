// Command college-admin runs migrations and bootstraps tenants and administrators.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/college-admin-api/internal/repository"
	"github.com/noah-isme/college-admin-api/internal/service"
	"github.com/noah-isme/college-admin-api/pkg/cache"
	"github.com/noah-isme/college-admin-api/pkg/config"
	"github.com/noah-isme/college-admin-api/pkg/database"
	"github.com/noah-isme/college-admin-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	identitySvc := service.NewIdentityService(repository.NewIdentityRepository(db), nil, logr, service.IdentityConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		MinPasswordLength:  cfg.Identity.MinPasswordLength,
	})
	colleges := repository.NewCollegeRepository(db)
	roleSvc := service.NewRoleService(repository.NewRoleRepository(db), colleges, logr)

	// Registration invalidates the public college cache when Redis is reachable.
	var cacheSvc *service.CacheService
	if redisClient, err := cache.NewRedis(cfg.Redis); err == nil {
		defer redisClient.Close()
		cacheSvc = service.NewCacheService(repository.NewCacheRepository(redisClient, "college-admin", logr), nil, cfg.Colleges.CacheTTL, logr, true)
	} else {
		logr.Warn("redis unavailable, college cache will expire on its own", zap.Error(err))
	}

	cli := commandLine{
		db:       db.DB,
		colleges: service.NewCollegeService(colleges, identitySvc, roleSvc, cacheSvc, cfg.Colleges.CacheTTL, validator.New(), logr),
		identity: identitySvc,
		out:      os.Stdout,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := cli.run(ctx, os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
