package cmd

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/hangouts-inviter/eventgraph/internal/config"
	"github.com/hangouts-inviter/eventgraph/internal/logx"
	"github.com/hangouts-inviter/eventgraph/internal/observability"
	"github.com/hangouts-inviter/eventgraph/internal/ratelimit"
	"github.com/hangouts-inviter/eventgraph/internal/store"

	attrRepo "github.com/hangouts-inviter/eventgraph/repo/attribute"
	carpoolRepo "github.com/hangouts-inviter/eventgraph/repo/carpool"
	deviceRepo "github.com/hangouts-inviter/eventgraph/repo/device"
	"github.com/hangouts-inviter/eventgraph/repo/group"
	hangoutRepo "github.com/hangouts-inviter/eventgraph/repo/hangout"
	codeRepo "github.com/hangouts-inviter/eventgraph/repo/invitecode"
	listRepo "github.com/hangouts-inviter/eventgraph/repo/idealist"
	partRepo "github.com/hangouts-inviter/eventgraph/repo/participation"
	placeRepo "github.com/hangouts-inviter/eventgraph/repo/place"
	pollRepo "github.com/hangouts-inviter/eventgraph/repo/poll"
	tokenRepo "github.com/hangouts-inviter/eventgraph/repo/refreshtoken"
	seriesRepo "github.com/hangouts-inviter/eventgraph/repo/series"

	attributeSvc "github.com/hangouts-inviter/eventgraph/service/attribute"
	"github.com/hangouts-inviter/eventgraph/service/authtoken"
	"github.com/hangouts-inviter/eventgraph/service/calendar"
	carpoolSvc "github.com/hangouts-inviter/eventgraph/service/carpool"
	deviceSvc "github.com/hangouts-inviter/eventgraph/service/device"
	"github.com/hangouts-inviter/eventgraph/service/feed"
	groupSvc "github.com/hangouts-inviter/eventgraph/service/group"
	hangoutSvc "github.com/hangouts-inviter/eventgraph/service/hangout"
	idealistSvc "github.com/hangouts-inviter/eventgraph/service/idealist"
	invitecodeSvc "github.com/hangouts-inviter/eventgraph/service/invitecode"
	participationSvc "github.com/hangouts-inviter/eventgraph/service/participation"
	placeSvc "github.com/hangouts-inviter/eventgraph/service/place"
	pollSvc "github.com/hangouts-inviter/eventgraph/service/poll"
	seriesSvc "github.com/hangouts-inviter/eventgraph/service/series"
)

// app bundles every repository and service the CLI subcommands reach
// into, wired once per invocation against a single SQLite-backed store.
type app struct {
	store store.Store

	Groups  *groupSvc.Service
	Hangout *hangoutSvc.Service
	Series  *seriesSvc.Service
	Polls   *pollSvc.Service
	Carpool *carpoolSvc.Service
	Attrs   *attributeSvc.Service
	Parts   *participationSvc.Service
	Places  *placeSvc.Service
	Lists   *idealistSvc.Service
	Invites *invitecodeSvc.Service
	Cal     *calendar.Service
	Tokens  *authtoken.Service
	Devices *deviceSvc.Service
	Feed    *feed.Service
}

// newApp opens the store (running its schema migration as a side effect)
// and wires every repository into its service, aggregate root by
// aggregate root, with no HTTP router or cluster/consensus wiring since
// the core's API is consumed directly.
func newApp(cfg config.Config) (*app, func() error, error) {
	raw, err := store.NewSQLiteStore(cfg.Store.DSN)
	if err != nil {
		return nil, nil, err
	}
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	inst := store.NewInstrumented(raw, zlog)
	inst.SlowThreshold = cfg.Store.SlowQueryThreshold
	inst.AttemptTimeout = cfg.Store.AttemptTimeout
	inst.TotalTimeout = cfg.Store.TotalTimeout
	inst.MaxRetries = cfg.Store.MaxRetries
	var s store.Store = inst

	auditor := observability.NewAuditor(nil)

	groupRepo := group.New(s)
	hRepo := hangoutRepo.New(s)
	sRepo := seriesRepo.New(s)
	pRepo := pollRepo.New(s)
	cRepo := carpoolRepo.New(s)
	aRepo := attrRepo.New(s)
	ptRepo := partRepo.New(s)
	plRepo := placeRepo.New(s)
	ilRepo := listRepo.New(s)
	icRepo := codeRepo.New(s)
	rtRepo := tokenRepo.New(s)
	dvRepo := deviceRepo.New(s)

	groupsSvc := groupSvc.New(groupRepo, auditor)
	hangoutSvcInst := hangoutSvc.New(hRepo, auditor)

	limiter := ratelimit.New(zlog, cfg.InviteCode.RateLimitPerMinute, cfg.InviteCode.RateLimitBurst)

	a := &app{
		store:   s,
		Groups:  groupsSvc,
		Hangout: hangoutSvcInst,
		Series:  seriesSvc.New(sRepo, auditor),
		Polls:   pollSvc.New(pRepo, hangoutSvcInst),
		Carpool: carpoolSvc.New(cRepo, hangoutSvcInst),
		Attrs:   attributeSvc.New(aRepo, hangoutSvcInst),
		Parts:   participationSvc.New(ptRepo, hangoutSvcInst),
		Places:  placeSvc.New(plRepo),
		Lists:   idealistSvc.New(ilRepo),
		Invites: invitecodeSvc.New(icRepo, groupRepo, limiter, cfg.InviteCode),
		Cal:     calendar.New(),
		Tokens:  authtoken.New(rtRepo),
		Devices: deviceSvc.New(dvRepo),
		Feed:    feed.New(s, groupRepo, cfg.Feed),
	}

	closer := func() error {
		return raw.Close()
	}
	return a, closer, nil
}

func mustApp() (*app, func() error) {
	cfg, err := config.Load()
	if err != nil {
		logx.Logger().Error("config load failed", "err", err)
		os.Exit(1)
	}
	a, closer, err := newApp(cfg)
	if err != nil {
		logx.Logger().Error("store init failed", "err", err)
		os.Exit(1)
	}
	return a, closer
}
