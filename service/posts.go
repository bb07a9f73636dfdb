package service

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"socialpost/app/models"
	"socialpost/app/services"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures/demo_posts.yaml
var demoPosts []byte

func newPostsCmd(opts *options) *cobra.Command {
	posts := &cobra.Command{
		Use:   "posts",
		Short: "Inspect and seed stored posts",
	}
	posts.AddCommand(newPostsListCmd(opts), newPostsSeedCmd(opts))
	return posts
}

func newPostsListCmd(opts *options) *cobra.Command {
	var (
		status  string
		search  string
		page    int
		perPage int
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List posts as a table",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := models.ParseStatusFilter(status)
			if err != nil {
				return err
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			log, err := commandLogger(cmd, cfg)
			if err != nil {
				return err
			}
			repo, err := openRepository(cfg, log)
			if err != nil {
				return err
			}
			defer repo.Close()

			if perPage <= 0 {
				perPage = cfg.PageSize
			}
			result, counts, err := services.NewPostService(repo.Posts(), log).ListPosts(cmd.Context(), models.PostQuery{
				Status:  filter,
				Search:  search,
				Page:    page,
				PerPage: perPage,
			})
			if err != nil {
				return err
			}
			renderPosts(cmd.OutOrStdout(), result, counts, loc)
			return nil
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "all", "all, scheduled, posted or draft")
	cmd.Flags().StringVarP(&search, "search", "q", "", "case-insensitive text in title, caption or platform")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "posts per page (defaults to PAGE_SIZE)")
	return cmd
}

var statusColors = map[models.Status]*color.Color{
	models.StatusDraft:     color.New(color.FgYellow),
	models.StatusScheduled: color.New(color.FgCyan),
	models.StatusPosted:    color.New(color.FgGreen, color.Bold),
}

func renderPosts(w io.Writer, page models.Page, counts map[models.StatusFilter]int, loc *time.Location) {
	if len(page.Posts) == 0 {
		fmt.Fprintln(w, "No posts found")
	} else {
		table := tablewriter.NewWriter(w)
		table.SetAutoWrapText(false)
		table.SetHeader([]string{"#", "Title", "Platform", "Status", "When"})
		for _, p := range page.Posts {
			label := p.Status.Label()
			if c, ok := statusColors[p.Status]; ok {
				label = c.Sprint(label)
			}
			table.Append([]string{
				strconv.Itoa(p.ID),
				p.Title,
				string(p.Platform),
				label,
				when(p, loc),
			})
		}
		table.Render()
	}
	fmt.Fprintf(w, "page %d of %d, %d matching posts (all %d, scheduled %d, posted %d, draft %d)\n",
		page.Page, page.TotalPages, page.Total,
		counts[models.FilterAll], counts[models.FilterScheduled], counts[models.FilterPosted], counts[models.FilterDraft])
}

func when(p *models.Post, loc *time.Location) string {
	const layout = "2006-01-02 15:04 MST"
	switch {
	case p.ScheduledTime != nil:
		return p.ScheduledTime.In(loc).Format(layout)
	case p.PostedAt != nil:
		return p.PostedAt.In(loc).Format(layout)
	}
	return "-"
}

// seedPost is one entry of a YAML fixture file.
type seedPost struct {
	Title         string     `yaml:"title"`
	Caption       string     `yaml:"caption"`
	Image         string     `yaml:"image"`
	Platform      string     `yaml:"platform"`
	Status        string     `yaml:"status"`
	ScheduledTime *time.Time `yaml:"scheduledTime"`
	PostedAt      *time.Time `yaml:"postedAt"`
	ProductID     string     `yaml:"productId"`
}

// parseSeed decodes a YAML list of posts.
func parseSeed(data []byte) ([]*models.Post, error) {
	var entries []seedPost
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(err, "parse seed file")
	}
	posts := make([]*models.Post, 0, len(entries))
	for _, e := range entries {
		posts = append(posts, &models.Post{
			Title:         e.Title,
			Caption:       e.Caption,
			Image:         e.Image,
			Platform:      models.Platform(e.Platform),
			Status:        models.Status(e.Status),
			ScheduledTime: e.ScheduledTime,
			PostedAt:      e.PostedAt,
			ProductID:     e.ProductID,
		})
	}
	return posts, nil
}

// seedPosts stores posts in order. It stops at the first invalid entry.
func seedPosts(ctx context.Context, svc *services.PostService, posts []*models.Post) (int, error) {
	for i, p := range posts {
		if _, err := svc.CreatePost(ctx, p); err != nil {
			return i, errors.Wrapf(err, "seed entry %d", i+1)
		}
	}
	return len(posts), nil
}

func newPostsSeedCmd(opts *options) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load posts from a YAML fixture (defaults to the demo history)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data := demoPosts
			if file != "" {
				var err error
				if data, err = os.ReadFile(file); err != nil {
					return errors.Wrap(err, "read seed file")
				}
			}
			posts, err := parseSeed(data)
			if err != nil {
				return err
			}

			cfg, err := opts.load()
			if err != nil {
				return err
			}
			log, err := commandLogger(cmd, cfg)
			if err != nil {
				return err
			}
			repo, err := openRepository(cfg, log)
			if err != nil {
				return err
			}
			defer repo.Close()

			n, err := seedPosts(cmd.Context(), services.NewPostService(repo.Posts(), log), posts)
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d posts\n", n)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML file with a list of posts")
	return cmd
}
