package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/inbox-copilot/internal/auth"
	"github.com/nhle/inbox-copilot/internal/draft"
	"github.com/nhle/inbox-copilot/internal/model"
	"github.com/nhle/inbox-copilot/internal/output"
	"github.com/nhle/inbox-copilot/internal/store"
	digestview "github.com/nhle/inbox-copilot/internal/ui/digest"
)

const digestWidth = 80

func (c *cli) loginCmd() *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with your university account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if code == "" {
				u, err := c.auth.LoginURL(ctx)
				if err != nil {
					return err
				}
				stderr := cmd.ErrOrStderr()
				fmt.Fprintf(stderr, "Open this address in your browser and sign in:\n\n  %s\n\n", u)
				fmt.Fprint(stderr, "Paste the code, or the address you were redirected to: ")
				if code, err = readLine(cmd.InOrStdin()); err != nil {
					return err
				}
			}

			authCode, state := auth.ParseCode(code)
			res, err := c.auth.HandleCallback(ctx, authCode, state)
			if err != nil {
				return err
			}
			c.printer.Message("Signed in.")
			if res.User == nil {
				return c.printer.Print(res, output.KeyValues("Success", "true"))
			}
			exp, _ := c.auth.TokenExpiry()
			return c.printer.Print(res, userTable(res.User, exp))
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "authorization code or redirect URL")
	return cmd
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading code: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := c.auth.Logout(); err != nil {
				return err
			}
			c.printer.Message("Signed out.")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			u, err := c.auth.GetCurrentUser()
			if err != nil {
				return err
			}
			exp, _ := c.auth.TokenExpiry()
			if c.auth.SessionExpired(time.Now()) {
				c.printer.Message("Session expired; run `inbox-copilot login` again.")
			}
			return c.printer.Print(u, userTable(u, exp))
		},
	}
}

func (c *cli) emailsCmd() *cobra.Command {
	var filter model.ListFilter
	cmd := &cobra.Command{
		Use:     "emails",
		Aliases: []string{"ls"},
		Short:   "List emails",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			if filter.PerPage <= 0 {
				filter.PerPage = c.cfg.Display.PageSize
			}
			page, err := c.inbox.ListEmails(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if err := c.printer.Print(page, emailsTable(page.Emails)); err != nil {
				return err
			}
			p := page.Pagination
			c.printer.Message("Page %d of %d (%d emails)", p.Page, p.Pages, p.Total)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&filter.Page, "page", 1, "page number")
	f.IntVar(&filter.PerPage, "per-page", 0, "emails per page (default from config)")
	f.StringVar(&filter.Category, "category", "", "only this category")
	f.IntVar(&filter.Urgency, "urgency", 0, "only this urgency level (1-5)")
	f.BoolVar(&filter.UnreadOnly, "unread", false, "only unread emails")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one email with its body and draft reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			e, err := c.inbox.GetEmailWithContent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.printer.Print(e, emailTable(*e))
		},
	}
}

func (c *cli) readCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark an email as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			if err := c.inbox.MarkRead(cmd.Context(), args[0]); err != nil {
				return err
			}
			c.printer.Message("Marked %s as read.", args[0])
			return nil
		},
	}
}

func (c *cli) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Ask the inbox a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			res, err := c.inbox.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return c.printer.Print(res, searchTable(res.Results, time.Now()))
		},
	}
}

func (c *cli) digestCmd() *cobra.Command {
	var (
		date   string
		latest bool
	)
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Generate the daily digest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := c.openStore()
			if err != nil {
				return err
			}

			var rec *model.DigestRecord
			if latest {
				rec, err = s.LatestDigest(ctx)
				if errors.Is(err, store.ErrNotFound) {
					c.printer.Message("No digest stored yet. Run `inbox-copilot digest` to generate one.")
					return nil
				}
				if err != nil {
					return err
				}
			} else {
				if err := c.requireSession(); err != nil {
					return err
				}
				d, err := c.inbox.GenerateDailyDigest(ctx, date)
				if err != nil {
					return err
				}
				if rec, err = s.SaveDigest(ctx, date, *d); err != nil {
					return err
				}
			}

			if c.printer.Format() == output.FormatTable {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), digestview.Render(*rec, digestWidth))
				return err
			}
			return c.printer.Print(rec, output.Table{})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to summarize (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&latest, "latest", false, "print the last stored digest instead of generating one")
	return cmd
}

func (c *cli) replyCmd() *cobra.Command {
	var exportPath string
	cmd := &cobra.Command{
		Use:   "reply <id>",
		Short: "Draft a reply using your saved settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.requireSession(); err != nil {
				return err
			}
			s, err := c.openStore()
			if err != nil {
				return err
			}
			prefs, err := s.GetPreferences(ctx)
			if err != nil {
				return err
			}

			id := args[0]
			reply, err := c.inbox.GenerateReply(ctx, id, prefs.ReplyPreferences())
			if err != nil {
				return err
			}

			if exportPath != "" {
				rec, err := c.inbox.GetRaw(ctx, id)
				if err != nil {
					return err
				}
				user, err := c.auth.GetCurrentUser()
				if err != nil {
					c.logger.Warn("exporting draft without sender", zap.Error(err))
				}
				msg, err := draft.FromEmail(user, *rec, reply.Reply)
				if err != nil {
					return err
				}
				if err := draft.ExportFile(exportPath, msg); err != nil {
					return err
				}
				c.printer.Message("Draft saved to %s", exportPath)
			}

			t := output.KeyValues("Reply", reply.Reply)
			if reply.Reasoning != "" {
				t.Rows = append(t.Rows, []string{"Reasoning", reply.Reasoning})
			}
			return c.printer.Print(reply, t)
		},
	}
	cmd.Flags().StringVar(&exportPath, "export", "", "also write the draft to this .eml file")
	return cmd
}

func (c *cli) classifyCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "classify [id]",
		Short: "Classify one email, or every unprocessed email with --all",
		Args: func(_ *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return errors.New("pass an email id or --all, not both")
			}
			if !all && len(args) != 1 {
				return errors.New("expected an email id (or --all)")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			if all {
				n, err := c.inbox.BatchClassify(cmd.Context())
				if err != nil {
					return err
				}
				return c.printer.Print(map[string]int{"processed": n},
					output.KeyValues("Processed", fmt.Sprint(n)))
			}
			res, err := c.inbox.ClassifyEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.printer.Print(res, classificationTable(args[0], res))
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "classify every unprocessed email")
	return cmd
}

func (c *cli) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Pull new mail into the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			res, err := c.inbox.SyncEmails(cmd.Context())
			if err != nil {
				return err
			}
			return c.printer.Print(res, output.KeyValues(
				"New", fmt.Sprint(res.NewEmails),
				"Total", fmt.Sprint(res.TotalEmails),
				"Message", res.Message,
			))
		},
	}
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show mailbox statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			st, err := c.inbox.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return c.printer.Print(st, statsTable(st))
		},
	}
}

func (c *cli) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Show email counts per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			rows, err := c.inbox.Categories(cmd.Context())
			if err != nil {
				return err
			}
			return c.printer.Print(rows, categoriesTable(rows))
		},
	}
}

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := c.cfg
			return c.printer.Print(cfg, output.KeyValues(
				"config file", c.configPath,
				"api.base_url", cfg.API.BaseURL,
				"api.timeout_sec", fmt.Sprint(cfg.API.TimeoutSec),
				"api.max_retries", fmt.Sprint(cfg.API.MaxRetries),
				"display.poll_interval_sec", fmt.Sprint(cfg.Display.PollIntervalSec),
				"display.page_size", fmt.Sprint(cfg.Display.PageSize),
				"storage.db_path", cfg.Storage.DBPath,
				"log.level", cfg.Log.Level,
				"log.file", cfg.Log.File,
				"keyring.backend", cfg.Keyring.Backend,
				"metrics.addr", cfg.Metrics.Addr,
			))
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the current settings to the config file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if _, err := os.Stat(c.configPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", c.configPath)
			}
			if err := model.SaveConfig(c.configPath, c.cfg); err != nil {
				return err
			}
			c.printer.Message("Wrote %s", c.configPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(show, initCmd)
	return cmd
}
