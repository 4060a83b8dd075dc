package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rohow/mopad-client/classify"
	"github.com/rohow/mopad-client/config"
	"github.com/rohow/mopad-client/filter"
	"github.com/rohow/mopad-client/globals"
	"github.com/rohow/mopad-client/persistence"
	"github.com/rohow/mopad-client/resources"
	"github.com/rohow/mopad-client/session"
	"github.com/rohow/mopad-client/store"
	"github.com/rohow/mopad-client/types"
)

// A simple CLI tool around the MOPAD server resources and the locally cached
// client state.

var (
	configPath = pflag.StringP("config", "c", "", "path to config file or directory")
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

	client := resources.NewClient(cfg.ServerURL)

	var cmdTeams = &cobra.Command{
		Use:   "teams",
		Short: "List the teams known to the server",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			teams, err := client.Teams(ctx)
			if err != nil {
				globals.AppLogger.Error("could not fetch teams", "error", err)
				os.Exit(1)
			}
			printJSON(teams)
		},
	}

	var cmdLocations = &cobra.Command{
		Use:   "locations",
		Short: "List the scheduling venues",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			locations, err := client.Locations(ctx)
			if err != nil {
				globals.AppLogger.Error("could not fetch locations", "error", err)
				os.Exit(1)
			}
			printJSON(locations)
		},
	}

	var calendarUser int64
	var cmdCalendar = &cobra.Command{
		Use:   "calendar",
		Short: "Print the iCalendar feed of scheduled talks",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			var userID *int64
			if cmd.Flags().Changed("user") {
				userID = &calendarUser
			}
			ics, err := client.Calendar(ctx, userID)
			if err != nil {
				globals.AppLogger.Error("could not fetch calendar", "error", err)
				os.Exit(1)
			}
			os.Stdout.Write(ics)
		},
	}
	cmdCalendar.Flags().Int64Var(&calendarUser, "user", 0, "restrict to one user's noob/nerd talks")

	var talksFilter string
	var cmdTalks = &cobra.Command{
		Use:   "talks",
		Short: "List the locally cached talks",
		Long: `talks prints the talks from the local snapshot cache, optionally filtered
by an expression, e.g. 'Scheduled && Minutes > 30'.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			persister, err := persistence.NewPersister(cfg)
			if err != nil {
				globals.AppLogger.Error("could not open persistence", "error", err)
				os.Exit(1)
			}
			if persister == nil {
				globals.AppLogger.Error("no persistence configured")
				os.Exit(1)
			}
			defer persister.Close()
			snap, err := persister.GetSnapshot()
			if err != nil {
				globals.AppLogger.Error("could not read snapshot", "error", err)
				os.Exit(1)
			}
			if snap == nil {
				globals.AppLogger.Error("no snapshot cached yet, run the client first")
				os.Exit(1)
			}
			now := time.Now().Unix()
			buckets := classify.Partition(snap.Talks, now)
			all := make([]types.Talk, 0, len(snap.Talks))
			all = append(all, buckets.Current...)
			all = append(all, buckets.Upcoming...)
			all = append(all, buckets.Past...)
			all = append(all, buckets.Unscheduled...)
			selected, err := filter.Select(all, talksFilter, 0, now)
			if err != nil {
				globals.AppLogger.Error("could not evaluate filter", "error", err)
				os.Exit(1)
			}
			type listing struct {
				types.Talk
				Bucket string `json:"bucket"`
			}
			out := make([]listing, 0, len(selected))
			for _, t := range selected {
				out = append(out, listing{Talk: t, Bucket: classify.BucketName(t, now)})
			}
			printJSON(out)
		},
	}
	cmdTalks.Flags().StringVarP(&talksFilter, "filter", "f", "", "filter expression")

	var cmdToken = &cobra.Command{
		Use:   "token",
		Short: "Manage the stored relogin token",
	}
	var cmdTokenShow = &cobra.Command{
		Use:   "show",
		Short: "Print the stored relogin token",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			persister := mustPersister(cfg)
			defer persister.Close()
			token, err := persister.GetToken()
			if err != nil {
				globals.AppLogger.Error("could not read token", "error", err)
				os.Exit(1)
			}
			if token == "" {
				fmt.Println("no token stored")
				return
			}
			fmt.Println(token)
		},
	}
	var cmdTokenDelete = &cobra.Command{
		Use:   "delete",
		Short: "Forget the stored relogin token",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			persister := mustPersister(cfg)
			defer persister.Close()
			if err := persister.DeleteToken(); err != nil {
				globals.AppLogger.Error("could not delete token", "error", err)
				os.Exit(1)
			}
		},
	}
	cmdToken.AddCommand(cmdTokenShow, cmdTokenDelete)

	var addTitle, addDescription string
	var addMinutes int64
	var cmdAddTalk = &cobra.Command{
		Use:   "add-talk",
		Short: "Create a talk using the stored relogin token",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			persister := mustPersister(cfg)
			defer persister.Close()
			if err := addTalk(cfg, persister, addTitle, addDescription, addMinutes); err != nil {
				globals.AppLogger.Error("could not add talk", "error", err)
				os.Exit(1)
			}
		},
	}
	cmdAddTalk.Flags().StringVarP(&addTitle, "title", "t", "", "talk title")
	cmdAddTalk.Flags().StringVarP(&addDescription, "description", "d", "", "talk description")
	cmdAddTalk.Flags().Int64VarP(&addMinutes, "minutes", "m", 45, "talk duration in minutes")

	rootCmd := &cobra.Command{Use: "mopadctl"}
	rootCmd.AddCommand(cmdTeams, cmdLocations, cmdCalendar, cmdTalks, cmdToken, cmdAddTalk)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func mustPersister(cfg *config.Config) persistence.Persister {
	persister, err := persistence.NewPersister(cfg)
	if err != nil {
		globals.AppLogger.Error("could not open persistence", "error", err)
		os.Exit(1)
	}
	if persister == nil {
		globals.AppLogger.Error("no persistence configured")
		os.Exit(1)
	}
	return persister
}

// addTalk runs a short-lived session: relogin with the stored token, send the
// AddTalk command, wait for the server's echo.
func addTalk(cfg *config.Config, persister persistence.Persister, title, description string, minutes int64) error {
	if minutes <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	token, err := persister.GetToken()
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("no relogin token stored, log in with the client first")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st := store.NewStore()
	sess := session.NewSession(cfg.ServerURL, cfg.ReconnectSecs, st, persister, session.AlwaysVisible())
	go sess.Run(ctx)

	changes := st.Watch()
	for st.CurrentUserID() == 0 {
		if reason := st.AuthError(); reason != "" {
			return fmt.Errorf("authentication failed: %s", reason)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for login")
		case <-changes:
		}
	}

	before := len(st.Talks())
	if err := sess.CreateTalk(title, description, types.DurationFromSecs(minutes*60)); err != nil {
		return err
	}
	for len(st.Talks()) <= before {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for the talk to appear")
		case <-changes:
		}
	}
	fmt.Println("talk created")
	return nil
}

func printJSON(v interface{}) {
	out, err := json.Marshal(v)
	if err != nil {
		globals.AppLogger.Error("could not marshal output", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
