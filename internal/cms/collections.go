package cms

import (
	"context"
	"net/http"
	"strconv"

	"parish_portal/internal/domain/models"
)

const (
	CollectionNotices             = "notice-board-items"
	CollectionBlogPosts           = "blog-posts"
	CollectionEvents              = "events"
	CollectionRegistrations       = "event-registrations"
	CollectionMinistries          = "ministries"
	CollectionMassTimes           = "mass-timings"
	CollectionAdorationTimes      = "adoration-times"
	CollectionConfessionTimes     = "confession-times"
	CollectionPriests             = "priests"
	CollectionContactSubmissions  = "contact-submissions"
	CollectionFeedbackSubmissions = "feedback-submissions"

	SingleParishInfo = "parish-info"
)

var (
	noticeSearchFields = []string{"title", "content", "description", "category"}
	blogSearchFields   = []string{"title", "excerpt", "author"}
)

func (c *Client) ListNotices(ctx context.Context, page, pageSize int, search string) (models.PaginatedResponse[models.NoticeBoardItem], error) {
	const op = "cms.ListNotices"

	q := NewQuery().
		Sort("publishedAt", Desc).
		Populate("image").
		Search(search, noticeSearchFields...)

	res, err := listPage[models.NoticeBoardItem](ctx, c, op, CollectionNotices, q, page, pageSize)
	if err != nil {
		return res, err
	}
	res.Data = c.normalizeNotices(op, res.Data)

	return res, nil
}

func (c *Client) GetNoticeBySlug(ctx context.Context, slug string) (*models.NoticeBoardItem, error) {
	const op = "cms.GetNoticeBySlug"

	if slug == "" {
		return nil, nil
	}

	q := NewQuery().Eq(slug, "slug").Populate("image")

	item, err := findOne[models.NoticeBoardItem](ctx, c, op, CollectionNotices, q)
	if err != nil || item == nil {
		return nil, err
	}

	normalized := c.normalizeNotice(op, *item)
	return &normalized, nil
}

func (c *Client) ListBlogPosts(ctx context.Context, page, pageSize int, search string) (models.PaginatedResponse[models.BlogPost], error) {
	const op = "cms.ListBlogPosts"

	q := NewQuery().
		Sort("publishedAt", Desc).
		Populate("featuredImage", "gallery").
		Search(search, blogSearchFields...)

	return listPage[models.BlogPost](ctx, c, op, CollectionBlogPosts, q, page, pageSize)
}

func (c *Client) GetBlogPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	const op = "cms.GetBlogPostBySlug"

	if slug == "" {
		return nil, nil
	}

	q := NewQuery().Eq(slug, "slug").Populate("featuredImage", "gallery")

	return findOne[models.BlogPost](ctx, c, op, CollectionBlogPosts, q)
}

func (c *Client) ListEvents(ctx context.Context) ([]models.Event, error) {
	const op = "cms.ListEvents"

	q := NewQuery().Sort("date", Asc).Populate("image")

	return listAll[models.Event](ctx, c, op, CollectionEvents, q)
}

func (c *Client) GetEventBySlug(ctx context.Context, slug string) (*models.Event, error) {
	const op = "cms.GetEventBySlug"

	if slug == "" {
		return nil, nil
	}

	q := NewQuery().Eq(slug, "slug").Populate("image")

	return findOne[models.Event](ctx, c, op, CollectionEvents, q)
}

// GetEvent событие по числовому id. Фильтр вместо /events/:id, потому что
// Strapi v5 адресует путь по documentId.
func (c *Client) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	const op = "cms.GetEvent"

	q := NewQuery().Eq(strconv.FormatInt(id, 10), "id")

	return findOne[models.Event](ctx, c, op, CollectionEvents, q)
}

func (c *Client) ListMinistries(ctx context.Context) ([]models.Ministry, error) {
	const op = "cms.ListMinistries"

	return listAll[models.Ministry](ctx, c, op, CollectionMinistries, NewQuery().Sort("name", Asc).Populate("image"))
}

func (c *Client) ListMassTimes(ctx context.Context) ([]models.MassTime, error) {
	const op = "cms.ListMassTimes"

	return listAll[models.MassTime](ctx, c, op, CollectionMassTimes, NewQuery().Sort("day", Asc))
}

func (c *Client) ListAdorationTimes(ctx context.Context) ([]models.AdorationTime, error) {
	const op = "cms.ListAdorationTimes"

	return listAll[models.AdorationTime](ctx, c, op, CollectionAdorationTimes, NewQuery().Sort("day", Asc))
}

func (c *Client) ListConfessionTimes(ctx context.Context) ([]models.ConfessionTime, error) {
	const op = "cms.ListConfessionTimes"

	return listAll[models.ConfessionTime](ctx, c, op, CollectionConfessionTimes, NewQuery().Sort("day", Asc))
}

func (c *Client) ListPriests(ctx context.Context) ([]models.Priest, error) {
	const op = "cms.ListPriests"

	return listAll[models.Priest](ctx, c, op, CollectionPriests, NewQuery().Populate("photo"))
}

func (c *Client) GetParishInfo(ctx context.Context) (*models.ParishInfo, error) {
	const op = "cms.GetParishInfo"

	return getSingle[models.ParishInfo](ctx, c, op, SingleParishInfo, nil)
}

// ListSlugs все slug коллекции, для sitemap.
// ListSlugs все slug'и коллекции для sitemap, постранично.
func (c *Client) ListSlugs(ctx context.Context, collection string) ([]string, error) {
	const op = "cms.ListSlugs"

	q := NewQuery().Fields("slug")

	items, err := listEvery[struct {
		Slug string `json:"slug"`
	}](ctx, c, op, collection, q)
	if err != nil {
		return nil, err
	}

	slugs := make([]string, 0, len(items))
	for _, it := range items {
		if it.Slug != "" {
			slugs = append(slugs, it.Slug)
		}
	}

	return slugs, nil
}

func (c *Client) SubmitContact(ctx context.Context, sub models.ContactSubmission) error {
	const op = "cms.SubmitContact"

	_, err := c.do(ctx, op, http.MethodPost, CollectionContactSubmissions, CollectionContactSubmissions, nil, sub)
	return err
}

func (c *Client) SubmitFeedback(ctx context.Context, sub models.FeedbackSubmission) error {
	const op = "cms.SubmitFeedback"

	_, err := c.do(ctx, op, http.MethodPost, CollectionFeedbackSubmissions, CollectionFeedbackSubmissions, nil, sub)
	return err
}
