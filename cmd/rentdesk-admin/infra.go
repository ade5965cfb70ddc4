package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/rentdesk/internal/bootstrap"
	"github.com/target/rentdesk/internal/data"
)

const profileCommandTimeout = 30 * time.Second

// withProfileOps connects Postgres and, when reachable, Redis, then runs f.
// Without Redis, profile changes still apply but open pages are not told.
func withProfileOps(cmdCtx *commandContext, requireRedis bool, f func(context.Context, *profileOps) error) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, profileCommandTimeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, cmdCtx.Config.Postgres, cmdCtx.Logger)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}

	client, err := bootstrap.ConnectRedis(ctx, cmdCtx.Config.Redis, cmdCtx.Logger)
	if err != nil {
		if requireRedis {
			return errors.Join(fmt.Errorf("connect redis: %w", err), closeInfra(db, nil))
		}
		cmdCtx.Logger.WarnContext(ctx, "redis unavailable; open sessions will not be notified", "error", err)
		client = nil
	}
	defer func() {
		if cerr := closeInfra(db, client); cerr != nil {
			cmdCtx.Logger.Warn("close infrastructure failed", "error", cerr)
		}
	}()

	ops := &profileOps{Profiles: data.NewProfileRepo(db), Out: os.Stdout, Logger: cmdCtx.Logger}
	if client != nil {
		stores := bootstrap.NewStores(&cmdCtx.Config, db, client, cmdCtx.Logger)
		ops.Sessions = stores.Sessions
		ops.Events = stores.Events
	}
	return f(ctx, ops)
}

func closeInfra(db *sql.DB, redisClient redis.UniversalClient) error {
	var closeErr error
	if db != nil {
		if err := db.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close db: %w", err))
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close redis: %w", err))
		}
	}
	return closeErr
}
