package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"parish_portal/internal/cms"
	"parish_portal/internal/cms/cmstest"
	"parish_portal/internal/domain/models"
	"parish_portal/internal/transport/http/dto/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mediaURL = "https://media.example.org"

func newTestService(t *testing.T) (*ContentService, *cmstest.Server) {
	t.Helper()

	srv := cmstest.New()
	t.Cleanup(srv.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := cms.New(log, cms.Config{BaseURL: srv.URL, MediaURL: mediaURL, Timeout: 2 * time.Second})
	require.NoError(t, err)

	svc := NewContentService(log, client, Config{MediaURL: client.MediaURL()})
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC) }

	return svc, srv
}

func TestContentService_NoticesDefaults(t *testing.T) {
	ctx := context.Background()
	svc, srv := newTestService(t)

	for i := 1; i <= 15; i++ {
		srv.Seed(cms.CollectionNotices, map[string]any{
			"type":        "text",
			"title":       fmt.Sprintf("Notice %d", i),
			"content":     "Parish picnic",
			"slug":        fmt.Sprintf("notice-%d", i),
			"publishedAt": time.Date(2025, 1, i, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
		})
	}

	page, err := svc.Notices(ctx, 1, 0, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, DefaultNoticePageSize)
	assert.Equal(t, 15, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.PageCount)
	assert.Equal(t, "Notice 15", page.Items[0].Title, "newest first")
}

func TestContentService_NoticeViews(t *testing.T) {
	ctx := context.Background()
	svc, srv := newTestService(t)

	srv.Seed(cms.CollectionNotices,
		map[string]any{
			"type":  "text",
			"title": "Choir practice",
			"slug":  "choir-practice",
			"image": map[string]any{
				"url":     "/uploads/choir.jpg",
				"formats": map[string]any{"small": map[string]any{"url": "/uploads/small_choir.jpg"}},
			},
			"publishedAt": "2025-02-01T00:00:00Z",
		},
		map[string]any{
			"type":        "poster",
			"title":       "Lent schedule",
			"slug":        "lent-schedule",
			"urgent":      true,
			"publishedAt": "2025-02-02T00:00:00Z",
		},
	)

	choir, err := svc.Notice(ctx, "Choir Practice")
	require.NoError(t, err)
	require.NotNil(t, choir)
	assert.Equal(t, models.NoticeImage, choir.Type)
	assert.True(t, choir.Reclassified)
	require.NotNil(t, choir.Image)
	assert.Equal(t, mediaURL+"/uploads/choir.jpg", choir.Image.URL)
	assert.Equal(t, mediaURL+"/uploads/small_choir.jpg", choir.Image.Small)
	assert.Equal(t, mediaURL+"/uploads/choir.jpg", choir.Image.Large, "missing size falls back to original")

	lent, err := svc.Notice(ctx, "lent-schedule")
	require.NoError(t, err)
	require.NotNil(t, lent)
	assert.Equal(t, models.NoticeText, lent.Type)
	assert.True(t, lent.Urgent, "poster without image becomes text and keeps urgent")
	assert.Equal(t, "Lent schedule", lent.Content)

	missing, err := svc.Notice(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	empty, err := svc.Notice(ctx, "  ")
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestContentService_SlugsPassThrough(t *testing.T) {
	ctx := context.Background()
	svc, srv := newTestService(t)

	srv.Seed(cms.CollectionBlogPosts, map[string]any{
		"title": "Feast of St Rita", "slug": "feast_of_st_rita", "publishedAt": "2025-05-22T00:00:00Z",
	})
	srv.Seed(cms.CollectionNotices, map[string]any{
		"type": "text", "title": "Mass update", "slug": "Mass-Update", "publishedAt": "2025-05-01T00:00:00Z",
	})
	srv.Seed(cms.CollectionEvents, map[string]any{
		"title": "Rosary night", "slug": "rosary.night~2025", "date": "2025-05-30", "location": "Chapel",
	})

	post, err := svc.BlogPost(ctx, "feast_of_st_rita")
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Equal(t, "Feast of St Rita", post.Title)

	notice, err := svc.Notice(ctx, " Mass-Update ")
	require.NoError(t, err)
	require.NotNil(t, notice)
	assert.Equal(t, "Mass update", notice.Title)

	ev, err := svc.Event(ctx, "rosary.night~2025")
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "Rosary night", ev.Title)

	other, err := svc.BlogPost(ctx, "feast-of-st-rita")
	require.NoError(t, err)
	assert.Nil(t, other, "slugs are matched exactly")
}

func TestContentService_BlogPosts(t *testing.T) {
	ctx := context.Background()
	svc, srv := newTestService(t)

	for i := 1; i <= 5; i++ {
		srv.Seed(cms.CollectionBlogPosts, map[string]any{
			"title":       fmt.Sprintf("Homily %d", i),
			"slug":        fmt.Sprintf("homily-%d", i),
			"author":      "Fr. Thomas",
			"publishedAt": time.Date(2025, 2, i, 0, 0, 0, 0, time.UTC).Format(time.RFC3339),
			"content": []any{
				map[string]any{"type": "paragraph", "children": []any{
					map[string]any{"type": "text", "text": "Peace be with you."},
				}},
			},
			"gallery": []any{map[string]any{"url": "/uploads/altar.jpg"}},
		})
	}

	page, err := svc.BlogPosts(ctx, 1, 0, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, DefaultBlogPageSize)
	assert.Equal(t, 5, page.Pagination.Total)
	assert.Equal(t, "Peace be with you.", page.Items[0].Excerpt, "excerpt falls back to content text")

	post, err := svc.BlogPost(ctx, "homily-2")
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Contains(t, post.ContentHTML, "<p>Peace be with you.</p>")
	require.Len(t, post.Gallery, 1)
	assert.Equal(t, mediaURL+"/uploads/altar.jpg", post.Gallery[0].URL)

	missing, err := svc.BlogPost(ctx, "homily-99")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestContentService_Events(t *testing.T) {
	ctx := context.Background()
	svc, srv := newTestService(t)

	srv.Seed(cms.CollectionEvents,
		map[string]any{"title": "Ash Wednesday", "slug": "ash-wednesday", "date": "2025-03-05", "location": "Church"},
		map[string]any{"title": "Stations of the Cross", "slug": "stations", "date": "2025-03-10", "location": "Church"},
		map[string]any{"title": "Parish retreat", "slug": "retreat", "date": "2025-04-01", "location": "Retreat house",
			"registrationRequired": true, "maxAttendees": 40, "currentAttendees": 40},
		map[string]any{"title": "Candlemas", "slug": "candlemas", "date": "2025-02-02", "location": "Chapel"},
	)

	tests := []struct {
		name   string
		filter EventFilter
		search string
		want   []string
	}{
		{name: "upcoming includes today", filter: EventsUpcoming, want: []string{"stations", "retreat"}},
		{name: "past newest first", filter: EventsPast, want: []string{"ash-wednesday", "candlemas"}},
		{name: "registration only", filter: EventsRegistration, want: []string{"retreat"}},
		{name: "all ascending", filter: EventsAll, want: []string{"candlemas", "ash-wednesday", "stations", "retreat"}},
		{name: "search by location", filter: EventsAll, search: "CHAPEL", want: []string{"candlemas"}},
		{name: "unknown filter means upcoming", filter: EventFilter("soon"), want: []string{"stations", "retreat"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := svc.Events(ctx, tt.filter, tt.search)
			require.NoError(t, err)

			got := make([]string, 0, len(events))
			for _, ev := range events {
				got = append(got, ev.Slug)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	retreat, err := svc.Event(ctx, "retreat")
	require.NoError(t, err)
	require.NotNil(t, retreat)
	assert.True(t, retreat.FullyBooked)
	require.NotNil(t, retreat.RemainingSpots)
	assert.Zero(t, *retreat.RemainingSpots)

	stations, err := svc.Event(ctx, "stations")
	require.NoError(t, err)
	assert.Nil(t, stations.RemainingSpots)
	assert.True(t, stations.Upcoming)
}

func TestGroupMasses(t *testing.T) {
	schedule := groupMasses([]models.MassTime{
		{ID: 1, Day: "SUNDAY", Time: "8:00 AM"},
		{ID: 2, Day: "FRIDAY", Time: "7:00 AM"},
		{ID: 3, Day: "SATURDAY", Time: "4:30 PM"},
		{ID: 4, Day: "Monday", Time: "7:00 AM"},
		{ID: 5, Day: "FRIDAY", Time: "12:10 PM"},
		{ID: 6, Day: "First Friday", Time: "6:00 PM"},
	})

	require.Len(t, schedule.Weekend, 2)
	assert.Equal(t, int64(3), schedule.Weekend[0].ID, "saturday vigil first")
	assert.Equal(t, int64(1), schedule.Weekend[1].ID)

	require.Len(t, schedule.Daily, 3)
	assert.Equal(t, "Monday", schedule.Daily[0].Day)
	assert.Equal(t, "FRIDAY", schedule.Daily[1].Day)
	assert.Len(t, schedule.Daily[1].Masses, 2)
	assert.Equal(t, "First Friday", schedule.Daily[2].Day)

	empty := groupMasses(nil)
	assert.NotNil(t, empty.Weekend)
	assert.NotNil(t, empty.Daily)
}

func TestContentService_MassSchedulePartialFailure(t *testing.T) {
	ctx := context.Background()
	svc, srv := newTestService(t)

	srv.Seed(cms.CollectionMassTimes, map[string]any{"day": "SUNDAY", "time": "10:30 AM", "type": "Sunday"})
	srv.Seed(cms.CollectionConfessionTimes, map[string]any{"day": "SATURDAY", "startTime": "15:00", "endTime": "16:00"})
	srv.FailOn(http.MethodGet, cms.CollectionAdorationTimes, http.StatusBadGateway)

	schedule, err := svc.MassSchedule(ctx)
	require.Error(t, err)
	assert.True(t, cms.IsMaintenance(err))

	assert.Len(t, schedule.Weekend, 1)
	assert.Len(t, schedule.Confession, 1)
	assert.NotNil(t, schedule.Adoration)
	assert.Empty(t, schedule.Adoration)
}

func TestContentService_NoticesUnavailable(t *testing.T) {
	ctx := context.Background()
	svc, srv := newTestService(t)
	srv.Fail(http.StatusBadGateway)

	page, err := svc.Notices(ctx, 3, 0, "")
	require.Error(t, err)
	assert.True(t, cms.IsMaintenance(err))
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, models.Pagination{Page: 1, PageSize: DefaultNoticePageSize}, page.Pagination)
}

func TestContentService_Submissions(t *testing.T) {
	ctx := context.Background()
	svc, srv := newTestService(t)
	srv.Seed(cms.CollectionContactSubmissions)
	srv.Seed(cms.CollectionFeedbackSubmissions)

	err := svc.SubmitContact(ctx, request.ContactRequest{Name: "  ", Email: "a@b.org", Message: "hi"})
	assert.ErrorIs(t, err, ErrInvalidSubmission)

	err = svc.SubmitContact(ctx, request.ContactRequest{Name: "Maria", Email: "maria@example.org", Message: " Baptism enquiry "})
	require.NoError(t, err)

	items := srv.Items(cms.CollectionContactSubmissions)
	require.Len(t, items, 1)
	assert.Equal(t, "Baptism enquiry", items[0]["message"])

	err = svc.SubmitFeedback(ctx, request.FeedbackRequest{Message: "Lovely choir", Rating: 5})
	require.NoError(t, err)
	assert.Len(t, srv.Items(cms.CollectionFeedbackSubmissions), 1)

	err = svc.SubmitFeedback(ctx, request.FeedbackRequest{Message: "x", Rating: 9})
	assert.ErrorIs(t, err, ErrInvalidSubmission)
}
