// Command rwctl is the operator CLI for a Remnawave panel backend. It keeps
// an authenticated session on disk, refreshes tokens transparently, and
// gates commands on the account's permission grants the same way the web
// dashboard does.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"remnawave.dev/internal/client"
	"remnawave.dev/internal/config"
	"remnawave.dev/internal/obs"
	"remnawave.dev/internal/panel"
	"remnawave.dev/internal/rbac"
	"remnawave.dev/internal/session"
)

var version = "0.3.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rwctl:", err)
		os.Exit(1)
	}
}

type app struct {
	cfg    config.Config
	log    *zap.Logger
	client *client.Client
	panel  *panel.Panel
	perms  *rbac.Store
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var (
		configPath string
		panelURL   string
		timeout    time.Duration
	)

	root := &cobra.Command{
		Use:           "rwctl",
		Short:         "Administer a Remnawave panel from the terminal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env is a development convenience, absence is fine
			_ = godotenv.Load()

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if panelURL != "" {
				cfg.PanelURL = panelURL
			}
			if cmd.Flags().Changed("timeout") {
				cfg.Timeout = timeout
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return a.init(cfg)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&panelURL, "panel-url", "", "panel base URL")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newRefreshCmd(a),
		newUsersCmd(a),
		newNodesCmd(a),
		newStatsCmd(a),
	)
	return root
}

func (a *app) init(cfg config.Config) error {
	log, err := obs.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	credsPath := cfg.CredentialsFile
	if credsPath == "" {
		credsPath, err = session.DefaultCredentialsPath()
		if err != nil {
			return err
		}
	}
	sess, err := session.New(session.NewFileStore(credsPath))
	if err != nil {
		return err
	}

	c, err := client.New(cfg.PanelURL, sess,
		client.WithTimeout(cfg.Timeout),
		client.WithLogger(log),
		client.WithUserAgent("rwctl/"+version),
		client.WithLogoutHook(func() {
			fmt.Fprintln(os.Stderr, "session expired, run `rwctl login`")
		}),
	)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	a.client = c
	a.panel = panel.New(c)
	a.perms = rbac.NewStore(c)
	return nil
}

// require gates a command on the current account's grants, mirroring the
// dashboard's UI gating. The store stays fail-open when the identity fetch
// fails; the backend still enforces authoritatively.
func (a *app) require(ctx context.Context, resource rbac.Resource, action rbac.Action) error {
	if !a.perms.Loaded() {
		a.perms.Load(ctx)
	}
	if !a.perms.Has(resource, action) {
		return fmt.Errorf("role %q lacks %s:%s", a.perms.Role(), resource, action)
	}
	return nil
}

func newLoginCmd(a *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return errors.New("--username is required")
			}
			if password == "" {
				var err error
				password, err = promptPassword()
				if err != nil {
					return err
				}
			}
			if err := a.client.Login(cmd.Context(), username, password); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "logged in as", username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "admin password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Invalidate the session and forget stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.perms.Clear()
			return a.client.Logout(cmd.Context())
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated account, its role and grants",
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := a.client.Me(cmd.Context())
			if err != nil {
				return err
			}
			out := map[string]any{
				"id":       account.ID,
				"username": account.Username,
				"role":     account.Role,
				"grants":   account.Grants,
			}
			if account.RoleID != nil {
				out["role_id"] = *account.RoleID
			}
			if claims, err := session.DecodeClaims(a.client.Session().Current().AccessToken); err == nil {
				out["token_expires_at"] = claims.ExpiresAt
			}
			return printJSON(out)
		},
	}
}

func newRefreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Force a token rotation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.client.Refresh(cmd.Context())
		},
	}
}

func newUsersCmd(a *app) *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "Manage subscription accounts",
	}

	var limit, offset int
	var search string
	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.require(cmd.Context(), rbac.ResourceUsers, rbac.ActionRead); err != nil {
				return err
			}
			page, err := a.panel.Users.List(cmd.Context(), panel.ListUsersParams{
				Limit: limit, Offset: offset, Search: search,
			})
			if err != nil {
				return err
			}
			return printJSON(page)
		},
	}
	list.Flags().IntVar(&limit, "limit", 50, "page size")
	list.Flags().IntVar(&offset, "offset", 0, "page offset")
	list.Flags().StringVar(&search, "search", "", "filter by username substring")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.require(cmd.Context(), rbac.ResourceUsers, rbac.ActionRead); err != nil {
				return err
			}
			user, err := a.panel.Users.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(user)
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.require(cmd.Context(), rbac.ResourceUsers, rbac.ActionDelete); err != nil {
				return err
			}
			return a.panel.Users.Delete(cmd.Context(), args[0])
		},
	}

	reset := &cobra.Command{
		Use:   "reset-traffic <id>",
		Short: "Zero an account's used traffic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.require(cmd.Context(), rbac.ResourceUsers, rbac.ActionUpdate); err != nil {
				return err
			}
			return a.panel.Users.ResetTraffic(cmd.Context(), args[0])
		},
	}

	users.AddCommand(list, get, del, reset)
	return users
}

func newNodesCmd(a *app) *cobra.Command {
	nodes := &cobra.Command{
		Use:   "nodes",
		Short: "Monitor and control the node fleet",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.require(cmd.Context(), rbac.ResourceNodes, rbac.ActionRead); err != nil {
				return err
			}
			fleet, err := a.panel.Nodes.List(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(fleet)
		},
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.require(cmd.Context(), rbac.ResourceNodes, rbac.ActionRead); err != nil {
				return err
			}
			node, err := a.panel.Nodes.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(node)
		},
	}

	restart := &cobra.Command{
		Use:   "restart <id>",
		Short: "Reconnect a node agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.require(cmd.Context(), rbac.ResourceNodes, rbac.ActionManage); err != nil {
				return err
			}
			return a.panel.Nodes.Restart(cmd.Context(), args[0])
		},
	}

	toggle := func(use, short string, verb func(context.Context, string) (panel.Node, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.require(cmd.Context(), rbac.ResourceNodes, rbac.ActionUpdate); err != nil {
					return err
				}
				node, err := verb(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(node)
			},
		}
	}

	nodes.AddCommand(list, get, restart,
		toggle("enable", "Return a node to rotation", func(ctx context.Context, id string) (panel.Node, error) {
			return a.panel.Nodes.Enable(ctx, id)
		}),
		toggle("disable", "Take a node out of rotation", func(ctx context.Context, id string) (panel.Node, error) {
			return a.panel.Nodes.Disable(ctx, id)
		}),
	)
	return nodes
}

func newStatsCmd(a *app) *cobra.Command {
	var window time.Duration
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dashboard counters and bandwidth",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.require(cmd.Context(), rbac.ResourceStats, rbac.ActionRead); err != nil {
				return err
			}
			stats, err := a.panel.System.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := map[string]any{"system": stats}
			if window > 0 {
				end := time.Now()
				bw, err := a.panel.System.Bandwidth(cmd.Context(), end.Add(-window), end)
				if err != nil {
					return err
				}
				out["bandwidth"] = bw
			}
			return printJSON(out)
		},
	}
	cmd.Flags().DurationVar(&window, "bandwidth-window", 0, "include bandwidth for the trailing window (e.g. 24h)")
	return cmd
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "password: ")
	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
