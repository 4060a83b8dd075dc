package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/folkengine/goname"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/pflag"

	"github.com/rohow/mopad-client/classify"
	"github.com/rohow/mopad-client/clock"
	"github.com/rohow/mopad-client/config"
	"github.com/rohow/mopad-client/globals"
	"github.com/rohow/mopad-client/persistence"
	"github.com/rohow/mopad-client/resources"
	"github.com/rohow/mopad-client/session"
	"github.com/rohow/mopad-client/store"
	"github.com/rohow/mopad-client/types"
)

var (
	configPath = pflag.StringP("config", "c", "", "path to config file or directory")
	loginName  = pflag.String("login", "", "log in with this user name (needs --team and --password)")
	register   = pflag.Bool("register", false, "register a new user instead of logging in")
	team       = pflag.String("team", "", "team name for login/registration")
	password   = pflag.String("password", "", "password for login/registration")
	remote     = pflag.Bool("remote", false, "register as a remote attendee")
)

func main() {
	flagSet := config.GetFlagSet()
	pflag.CommandLine.AddFlagSet(flagSet)
	pflag.Parse()

	cfg, err := config.ReadConfiguration(*configPath, flagSet)
	if err != nil {
		panic(err)
	}
	if cfg.LogLevel != "" {
		globals.AppLogger.SetLevel(hclog.LevelFromString(cfg.LogLevel))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	persister, err := persistence.NewPersister(cfg)
	if err != nil {
		panic(err)
	}
	if persister != nil {
		defer persister.Close()
	}

	st := store.NewStore()
	if persister != nil {
		if snap, err := persister.GetSnapshot(); err != nil {
			globals.AppLogger.Warn("could not load snapshot", "error", err)
		} else if snap != nil {
			globals.AppLogger.Info("seeding mirror from snapshot", "saved_at", snap.SavedAt)
			st.LoadSnapshot(snap.Users, snap.Talks, snap.Locations, snap.Teams)
		}
	}

	source := clock.NewWall(time.Duration(cfg.ClockTickSecs) * time.Second)
	defer source.Stop()

	sess := session.NewSession(cfg.ServerURL, cfg.ReconnectSecs, st, persister, session.AlwaysVisible())
	if auth := authCommand(); auth != nil {
		if err := sess.LoginOrRegister(auth); err != nil {
			panic(err)
		}
	}
	go sess.Run(ctx)

	refresher, err := resources.StartRefresher(resources.NewClient(cfg.ServerURL), st, cfg.RefreshCron)
	if err != nil {
		panic(err)
	}
	defer refresher.Stop()

	go watchSchedule(ctx, st, source)

	<-ctx.Done()
	globals.AppLogger.Info("shutting down")
	if persister != nil {
		snap := persistence.Snapshot{
			Users:     st.Users(),
			Talks:     st.Talks(),
			Locations: st.Locations(),
			Teams:     st.Teams(),
			SavedAt:   time.Now(),
		}
		if err := persister.StoreSnapshot(snap); err != nil {
			globals.AppLogger.Warn("could not store snapshot", "error", err)
		}
	}
}

// authCommand builds the authentication command from the flags, or nil when
// the stored relogin token (if any) should be used.
func authCommand() types.Command {
	if *register {
		name := strings.TrimSpace(*loginName)
		if name == "" {
			name = goname.New(goname.FantasyMap).FirstLast()
			globals.AppLogger.Info("no name given, registering as", "name", name)
		}
		cmd := types.RegisterCommand{Name: name, Team: *team, Password: *password}
		if *remote {
			mode := types.AttendanceRemote
			cmd.AttendanceMode = &mode
		}
		return cmd
	}
	if *loginName != "" {
		return types.LoginCommand{Name: *loginName, Team: *team, Password: *password}
	}
	return nil
}

// watchSchedule logs the schedule buckets whenever the mirror changes or the
// clock advances past a boundary.
func watchSchedule(ctx context.Context, st *store.Store, source clock.Source) {
	changes := st.Watch()
	var last classify.Buckets
	log := func() {
		buckets := classify.Partition(st.Talks(), source.Now())
		if len(buckets.Current) != len(last.Current) || len(buckets.Upcoming) != len(last.Upcoming) {
			globals.AppLogger.Info("schedule",
				"current", len(buckets.Current),
				"upcoming", len(buckets.Upcoming),
				"past", len(buckets.Past),
				"unscheduled", len(buckets.Unscheduled))
		}
		last = buckets
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			log()
		case <-source.Ticks():
			log()
		}
	}
}
