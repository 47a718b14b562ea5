package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dmitrijs2005/clipvault/internal/client/client"
)

func (a *App) Command() *cli.Command {
	return &cli.Command{
		Name:  "clipvault",
		Usage: "operate a ClipVault server",
		Commands: []*cli.Command{
			a.healthCmd(),
			a.uploadCmd(),
			a.listCmd(),
			a.deleteCmd(),
			a.usageCmd(),
			a.quotaCmd(),
			a.folderCmd(),
			a.reconcileCmd(),
		},
	}
}

func (a *App) healthCmd() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "check that the server answers",
		Flags: withCommon(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			if err := c.Health(ctx); err != nil {
				return err
			}
			a.printf("ok\n")
			return nil
		},
	}
}

func (a *App) uploadCmd() *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "fetch a video by URL and store it under NAME",
		ArgsUsage: "URL NAME",
		Flags: withCommon(
			&cli.StringFlag{Name: "folder", Usage: "custom folder path (admin only)"},
			&cli.StringFlag{Name: "owner", Usage: "upload on behalf of another owner (admin only)"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("usage: upload URL NAME")
			}
			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			url, err := c.Upload(ctx, client.UploadRequest{
				OwnerID:   cmd.String("owner"),
				SourceURL: cmd.Args().Get(0),
				Name:      cmd.Args().Get(1),
				Folder:    cmd.String("folder"),
			})
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return a.printJSON(map[string]string{"url": url})
			}
			a.printf("%s\n", url)
			return nil
		},
	}
}

func (a *App) listCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "list an owner's files, newest first",
		ArgsUsage: "[OWNER]",
		Flags:     withCommon(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			files, err := c.List(ctx, argOr(cmd, 0, c.OwnerID()))
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return a.printJSON(files)
			}
			if len(files) == 0 {
				a.printf("no files\n")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCREATED\tEXPIRES\tURL")
			for _, f := range files {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Name, f.CreatedAt.Format(time.DateTime), formatTime(f.ExpiresAt), f.URL)
			}
			return tw.Flush()
		},
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateTime)
}

func (a *App) deleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "delete a file",
		ArgsUsage: "NAME",
		Flags:     withCommon(&cli.StringFlag{Name: "owner", Usage: "owner of the file (default: yourself)"}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("usage: delete NAME")
			}
			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			owner := cmd.String("owner")
			if owner == "" {
				owner = c.OwnerID()
			}
			if err := c.Delete(ctx, owner, cmd.Args().Get(0)); err != nil {
				return err
			}
			a.printf("deleted %s\n", cmd.Args().Get(0))
			return nil
		},
	}
}

func (a *App) usageCmd() *cli.Command {
	return &cli.Command{
		Name:      "usage",
		Usage:     "show committed files against the upload limit",
		ArgsUsage: "[OWNER]",
		Flags:     withCommon(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			u, err := c.Usage(ctx, argOr(cmd, 0, c.OwnerID()))
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return a.printJSON(u)
			}
			if u.Limit <= 0 {
				a.printf("%d files (unlimited)\n", u.Count)
				return nil
			}
			a.printf("%d of %d files\n", u.Count, u.Limit)
			return nil
		},
	}
}

func (a *App) quotaCmd() *cli.Command {
	return &cli.Command{
		Name:      "quota",
		Usage:     "set an owner's upload limit, 0 for unlimited (admin only)",
		ArgsUsage: "OWNER LIMIT",
		Flags:     withCommon(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("usage: quota OWNER LIMIT")
			}
			limit, err := strconv.ParseUint(cmd.Args().Get(1), 10, 31)
			if err != nil {
				return fmt.Errorf("limit must be a non-negative integer: %w", err)
			}
			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			if err := c.SetQuota(ctx, cmd.Args().Get(0), uint(limit)); err != nil {
				return err
			}
			a.printf("limit for %s set to %d\n", cmd.Args().Get(0), limit)
			return nil
		},
	}
}

func (a *App) folderCmd() *cli.Command {
	return &cli.Command{
		Name:      "folder",
		Usage:     "set the folder for an owner's future uploads (admin only)",
		ArgsUsage: "OWNER FOLDER",
		Flags:     withCommon(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("usage: folder OWNER FOLDER")
			}
			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			if err := c.SetFolder(ctx, cmd.Args().Get(0), cmd.Args().Get(1)); err != nil {
				return err
			}
			a.printf("folder for %s set to %s\n", cmd.Args().Get(0), cmd.Args().Get(1))
			return nil
		},
	}
}

func (a *App) reconcileCmd() *cli.Command {
	return &cli.Command{
		Name:  "reconcile",
		Usage: "run the expiry and orphan sweep now (admin only)",
		Flags: withCommon(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := a.client(cmd)
			if err != nil {
				return err
			}
			rep, err := c.Reconcile(ctx)
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return a.printJSON(rep)
			}
			a.printf("resumed=%d expired=%d orphans=%d dangling=%d failed=%d\n",
				rep.Resumed, rep.Expired, rep.Orphans, rep.Dangling, rep.Failed)
			return nil
		},
	}
}
