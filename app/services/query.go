package services

import (
	"strings"

	"socialpost/app/models"
)

// DefaultPageSize is the number of posts shown per history page.
const DefaultPageSize = 6

// FilterPosts returns the posts matching status and search, in their original order.
// The status predicate is applied first; a blank search matches everything.
func FilterPosts(posts []*models.Post, status models.StatusFilter, search string) []*models.Post {
	if status == "" {
		status = models.FilterAll
	}
	search = strings.TrimSpace(search)

	filtered := make([]*models.Post, 0, len(posts))
	for _, p := range posts {
		if !status.Matches(p.Status) {
			continue
		}
		if search != "" && !p.Contains(search) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered
}

// Paginate slices posts into fixed-size pages. Page numbers start at 1; a page
// past the end is empty but still reports the totals.
func Paginate(posts []*models.Post, page, perPage int) models.Page {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPageSize
	}
	total := len(posts)
	totalPages := (total + perPage - 1) / perPage

	start := (page - 1) * perPage
	end := start + perPage
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return models.Page{
		Posts:      posts[start:end],
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Query filters and paginates in one step.
func Query(posts []*models.Post, q models.PostQuery) models.Page {
	return Paginate(FilterPosts(posts, q.Status, q.Search), q.Page, q.PerPage)
}

// CountByStatus counts posts per filter value, "all" included.
func CountByStatus(posts []*models.Post) map[models.StatusFilter]int {
	counts := map[models.StatusFilter]int{
		models.FilterAll:       len(posts),
		models.FilterScheduled: 0,
		models.FilterPosted:    0,
		models.FilterDraft:     0,
	}
	for _, p := range posts {
		counts[models.StatusFilter(p.Status)]++
	}
	return counts
}

// HistoryView tracks the filter state of a post history listing. Changing
// the status filter or the search text always returns to the first page.
type HistoryView struct {
	status  models.StatusFilter
	search  string
	page    int
	perPage int
}

// NewHistoryView returns a view showing all posts from page 1.
func NewHistoryView(perPage int) *HistoryView {
	if perPage < 1 {
		perPage = DefaultPageSize
	}
	return &HistoryView{status: models.FilterAll, page: 1, perPage: perPage}
}

func (v *HistoryView) SetStatus(status models.StatusFilter) {
	v.status = status
	v.page = 1
}

func (v *HistoryView) SetSearch(search string) {
	v.search = search
	v.page = 1
}

func (v *HistoryView) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	v.page = page
}

func (v *HistoryView) Page() int { return v.page }

// Query returns the view state as a PostQuery.
func (v *HistoryView) Query() models.PostQuery {
	return models.PostQuery{Status: v.status, Search: v.search, Page: v.page, PerPage: v.perPage}
}

// Apply renders the current page of posts.
func (v *HistoryView) Apply(posts []*models.Post) models.Page {
	return Query(posts, v.Query())
}
