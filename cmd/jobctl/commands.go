package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/EmpoweredVote/jobmarket/internal/api"
	"github.com/EmpoweredVote/jobmarket/internal/config"
	"github.com/EmpoweredVote/jobmarket/internal/geocoding"
	"github.com/EmpoweredVote/jobmarket/internal/logger"
)

type rootOptions struct {
	token  string
	output string
	cfg    config.Config
	client *api.Client
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "jobctl",
		Short:         "Browse job postings on the media API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.Setup(cfg.LogLevel)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if _, err := newRenderer(opts.output); err != nil {
				return err
			}
			client, err := api.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.client = client
			if opts.token == "" {
				opts.token = os.Getenv("JOBS_TOKEN")
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.token, "token", "", "media API token (defaults to $JOBS_TOKEN)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "json", "output format: json or yaml")

	root.AddCommand(
		newJobsCmd(opts),
		newJobCmd(opts),
		newCommentsCmd(opts),
		newLocationsCmd(opts),
		newLoginCmd(opts),
		newAvailableCmd(opts),
	)
	return root
}

func (o *rootOptions) print(cmd *cobra.Command, v any) error {
	r, err := newRenderer(o.output)
	if err != nil {
		return err
	}
	return r(cmd.OutOrStdout(), v)
}

func newJobsCmd(opts *rootOptions) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List job postings, optionally for one role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r api.Role
			if role != "" {
				parsed, err := api.ParseRole(role)
				if err != nil {
					return err
				}
				r = parsed
			}
			items, err := opts.client.ListPostings(cmd.Context(), opts.token, r)
			if err != nil {
				return err
			}
			return opts.print(cmd, items)
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "employer or employee")
	return cmd
}

func newJobCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "job <id>",
		Short: "Show one job posting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			item, err := opts.client.GetPosting(cmd.Context(), opts.token, id)
			if err != nil {
				return err
			}
			return opts.print(cmd, item)
		},
	}
}

func newCommentsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "comments <id>",
		Short: "List the comments on a job posting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			comments, err := opts.client.ListComments(cmd.Context(), opts.token, id)
			if err != nil {
				return err
			}
			return opts.print(cmd, comments)
		},
	}
}

func newLocationsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "locations <query>",
		Short: "Search places for a job location",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			geo, err := geocoding.NewFromConfig(opts.cfg)
			if err != nil {
				return err
			}
			if geo == nil {
				return errors.New("MAPBOX_TOKEN is not set")
			}
			results, err := geo.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return opts.print(cmd, results)
		},
	}
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var creds api.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if creds.Password == "" {
				creds.Password = os.Getenv("JOBS_PASSWORD")
			}
			sess, err := opts.client.Login(cmd.Context(), creds)
			if err != nil {
				return err
			}
			return opts.print(cmd, sess)
		},
	}
	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "account password (defaults to $JOBS_PASSWORD)")
	return cmd
}

func newAvailableCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "available <username>",
		Short: "Check whether a username is free",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := opts.client.CheckUsernameAvailable(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return opts.print(cmd, map[string]any{"username": args[0], "available": ok})
		},
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
