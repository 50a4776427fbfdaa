package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/client/models"
	"github.com/dmitrijs2005/gophdrive/internal/filetype"
)

var errUsage = errors.New("usage")

// formatDate matches the web dashboard, e.g. "3:04pm, 2 Jan".
func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("3:04pm, 2 Jan")
}

// parseList reads "[type] [-sort s] [-query q] [-limit n]".
func parseList(args []string) (models.ListOptions, error) {
	var opts models.ListOptions
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		opts.Type, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.Sort, "sort", "", "sort")
	fs.StringVar(&opts.Query, "query", "", "name contains")
	fs.IntVar(&opts.Limit, "limit", 0, "max files")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected %q", fs.Arg(0))
	}
	return opts, nil
}

func (a *App) List(ctx context.Context, args []string) error {
	opts, err := parseList(args)
	if err != nil {
		return a.report(err)
	}

	list, err := a.fileService.List(ctx, opts)
	if err != nil {
		return a.report(err)
	}

	a.last = list.Files
	a.setLocation(listLocation(opts))
	a.printFiles(list.Files)
	a.printf("%d file(s)\n", list.Total)
	return nil
}

func listLocation(opts models.ListOptions) string {
	loc := "/" + opts.Type
	var q []string
	if opts.Query != "" {
		q = append(q, "query="+opts.Query)
	}
	if opts.Sort != "" {
		q = append(q, "sort="+opts.Sort)
	}
	if len(q) > 0 {
		loc += "?" + strings.Join(q, "&")
	}
	return loc
}

func (a *App) printFiles(files []*models.File) {
	a.outMu.Lock()
	defer a.outMu.Unlock()

	if len(files) == 0 {
		fmt.Fprintln(a.out, "No files uploaded")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for i, f := range files {
		shared := ""
		if a.user != nil && f.Owner != a.user.ID {
			shared = "shared"
		}
		fmt.Fprintf(tw, "%d.\t%s\t%s\t%s\t%s\t%s\n", i+1, f.Name, f.Type,
			filetype.FormatSize(f.Size, 1), formatDate(f.CreatedAt), shared)
	}
	_ = tw.Flush()
}

// resolve finds a file of the last listing by its number or id.
func (a *App) resolve(ref string) (*models.File, error) {
	if len(a.last) == 0 {
		return nil, errors.New("no listing yet, run list first")
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(a.last) {
			return nil, fmt.Errorf("no file number %d", n)
		}
		return a.last[n-1], nil
	}
	for _, f := range a.last {
		if f.ID == ref {
			return f, nil
		}
	}
	return nil, fmt.Errorf("no file %q in the last listing", ref)
}

func (a *App) Upload(ctx context.Context, args []string) error {
	if len(args) != 1 {
		a.printf("Usage: upload <path>\n")
		return errUsage
	}
	f, err := a.fileService.Upload(ctx, args[0])
	if err != nil {
		return a.report(fmt.Errorf("failed to upload %s: %w", args[0], err))
	}
	a.printf("Uploaded %s (%s)\n", f.Name, filetype.FormatSize(f.Size, 1))
	return nil
}

func (a *App) Rename(ctx context.Context, args []string) error {
	if len(args) < 2 {
		a.printf("Usage: rename <n> <new name>\n")
		return errUsage
	}
	f, err := a.resolve(args[0])
	if err != nil {
		return a.report(err)
	}
	updated, err := a.fileService.Rename(ctx, f, strings.Join(args[1:], " "))
	if err != nil {
		return a.report(err)
	}
	*f = *updated
	a.printf("Renamed to %s\n", updated.Name)
	return nil
}

// Share replaces the access list; without emails it revokes every share.
func (a *App) Share(ctx context.Context, args []string) error {
	if len(args) < 1 {
		a.printf("Usage: share <n> [email...]\n")
		return errUsage
	}
	f, err := a.resolve(args[0])
	if err != nil {
		return a.report(err)
	}

	var emails []string
	for _, arg := range args[1:] {
		emails = append(emails, strings.Split(arg, ",")...)
	}

	updated, err := a.fileService.Share(ctx, f, emails)
	if err != nil {
		return a.report(err)
	}
	*f = *updated
	if len(updated.Users) == 0 {
		a.printf("%s is not shared\n", updated.Name)
	} else {
		a.printf("%s is shared with %s\n", updated.Name, strings.Join(updated.Users, ", "))
	}
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		a.printf("Usage: delete <n>\n")
		return errUsage
	}
	f, err := a.resolve(args[0])
	if err != nil {
		return a.report(err)
	}

	ok, err := Confirm(a.reader, fmt.Sprintf("Delete %s?", f.Name), a.out)
	if err != nil || !ok {
		return err
	}

	if err := a.fileService.Delete(ctx, f); err != nil {
		return a.report(err)
	}

	for i, lf := range a.last {
		if lf == f {
			a.last = append(a.last[:i:i], a.last[i+1:]...)
			break
		}
	}
	a.printf("Deleted %s\n", f.Name)
	return nil
}

func (a *App) Download(ctx context.Context, args []string) error {
	if len(args) != 1 {
		a.printf("Usage: download <n>\n")
		return errUsage
	}
	f, err := a.resolve(args[0])
	if err != nil {
		return a.report(err)
	}
	path, n, err := a.fileService.Download(ctx, f, a.config.DownloadDir)
	if err != nil {
		return a.report(err)
	}
	a.printf("Saved %s (%s)\n", path, filetype.FormatSize(n, 1))
	return nil
}

func (a *App) Usage(ctx context.Context) error {
	u, err := a.fileService.Usage(ctx)
	if err != nil {
		return a.report(err)
	}

	a.outMu.Lock()
	defer a.outMu.Unlock()

	fmt.Fprintf(a.out, "Used %s of %s (%.0f%%)\n",
		filetype.FormatSize(u.Used, 1), filetype.FormatSize(u.All, 1), u.Percentage)
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, row := range u.Summary {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.Title, filetype.FormatSize(row.Size, 1), formatDate(row.LatestDate), row.Route)
	}
	return tw.Flush()
}
