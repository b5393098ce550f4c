package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"parish_portal/internal/domain/models"
	"parish_portal/internal/lib/logger/sl"
	"parish_portal/internal/lib/slug"
	"parish_portal/internal/transport/http/dto"
	"parish_portal/internal/transport/http/dto/request"
)

const (
	DefaultBlogPageSize   = 3
	DefaultNoticePageSize = 12
	summaryRunes          = 160
)

var ErrInvalidSubmission = errors.New("invalid submission")

type EventFilter string

const (
	EventsAll          EventFilter = "all"
	EventsUpcoming     EventFilter = "upcoming"
	EventsRegistration EventFilter = "registration"
	EventsPast         EventFilter = "past"
)

func (f EventFilter) Valid() bool {
	switch f {
	case EventsAll, EventsUpcoming, EventsRegistration, EventsPast:
		return true
	}
	return false
}

type ContentSource interface {
	ListNotices(ctx context.Context, page, pageSize int, search string) (models.PaginatedResponse[models.NoticeBoardItem], error)
	GetNoticeBySlug(ctx context.Context, slug string) (*models.NoticeBoardItem, error)
	ListBlogPosts(ctx context.Context, page, pageSize int, search string) (models.PaginatedResponse[models.BlogPost], error)
	GetBlogPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	GetEventBySlug(ctx context.Context, slug string) (*models.Event, error)
	ListMinistries(ctx context.Context) ([]models.Ministry, error)
	ListMassTimes(ctx context.Context) ([]models.MassTime, error)
	ListAdorationTimes(ctx context.Context) ([]models.AdorationTime, error)
	ListConfessionTimes(ctx context.Context) ([]models.ConfessionTime, error)
	ListPriests(ctx context.Context) ([]models.Priest, error)
	GetParishInfo(ctx context.Context) (*models.ParishInfo, error)
	SubmitContact(ctx context.Context, sub models.ContactSubmission) error
	SubmitFeedback(ctx context.Context, sub models.FeedbackSubmission) error
}

type Config struct {
	MediaURL       string
	BlogPageSize   int
	NoticePageSize int
}

// ContentService готовит данные CMS для страниц сайта: абсолютные url картинок,
// html из rich-text, группировка расписаний.
type ContentService struct {
	log            *slog.Logger
	src            ContentSource
	mediaURL       string
	blogPageSize   int
	noticePageSize int
	now            func() time.Time
}

func NewContentService(log *slog.Logger, src ContentSource, cfg Config) *ContentService {
	if cfg.BlogPageSize < 1 {
		cfg.BlogPageSize = DefaultBlogPageSize
	}
	if cfg.NoticePageSize < 1 {
		cfg.NoticePageSize = DefaultNoticePageSize
	}

	return &ContentService{
		log:            log,
		src:            src,
		mediaURL:       cfg.MediaURL,
		blogPageSize:   cfg.BlogPageSize,
		noticePageSize: cfg.NoticePageSize,
		now:            time.Now,
	}
}

// Notices страница объявлений. При сбое CMS возвращается пустая страница и ошибка.
func (s *ContentService) Notices(ctx context.Context, page, pageSize int, search string) (dto.Page[dto.NoticeView], error) {
	const op = "content_service.Notices"

	if pageSize < 1 {
		pageSize = s.noticePageSize
	}

	res, err := s.src.ListNotices(ctx, page, pageSize, search)

	out := dto.Page[dto.NoticeView]{
		Items:      make([]dto.NoticeView, 0, len(res.Data)),
		Pagination: res.Meta.Pagination,
	}
	for _, n := range res.Data {
		out.Items = append(out.Items, s.noticeView(n))
	}

	if err != nil {
		s.log.Warn("notices unavailable", slog.String("op", op), sl.Err(err))
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// Notice nil без ошибки, если объявления нет или slug пустой.
func (s *ContentService) Notice(ctx context.Context, rawSlug string) (*dto.NoticeView, error) {
	const op = "content_service.Notice"

	key := slug.Lookup(rawSlug)
	if key == "" {
		return nil, nil
	}

	item, err := s.src.GetNoticeBySlug(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if item == nil {
		return nil, nil
	}

	view := s.noticeView(*item)
	return &view, nil
}

func (s *ContentService) BlogPosts(ctx context.Context, page, pageSize int, search string) (dto.Page[dto.BlogPostSummary], error) {
	const op = "content_service.BlogPosts"

	if pageSize < 1 {
		pageSize = s.blogPageSize
	}

	res, err := s.src.ListBlogPosts(ctx, page, pageSize, search)

	out := dto.Page[dto.BlogPostSummary]{
		Items:      make([]dto.BlogPostSummary, 0, len(res.Data)),
		Pagination: res.Meta.Pagination,
	}
	for _, p := range res.Data {
		out.Items = append(out.Items, s.blogSummary(p))
	}

	if err != nil {
		s.log.Warn("blog posts unavailable", slog.String("op", op), sl.Err(err))
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *ContentService) BlogPost(ctx context.Context, rawSlug string) (*dto.BlogPostView, error) {
	const op = "content_service.BlogPost"
	log := s.log.With(slog.String("op", op), slog.String("slug", rawSlug))

	key := slug.Lookup(rawSlug)
	if key == "" {
		return nil, nil
	}

	post, err := s.src.GetBlogPostBySlug(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if post == nil {
		return nil, nil
	}

	html, err := post.Content.HTML()
	if err != nil {
		// битый контент не должен ронять страницу поста
		log.Error("failed to render post content", slog.Int64("post_id", post.ID), sl.Err(err))
		html = ""
	}

	view := dto.BlogPostView{
		BlogPostSummary: s.blogSummary(*post),
		ContentHTML:     html,
		Gallery:         make([]dto.ImageView, 0, len(post.Gallery)),
	}
	for i := range post.Gallery {
		view.Gallery = append(view.Gallery, *s.imageView(&post.Gallery[i]))
	}

	return &view, nil
}

// Events события с фильтром и поиском по названию, описанию и месту.
// Прошедшие идут от новых к старым, остальные по возрастанию даты.
func (s *ContentService) Events(ctx context.Context, filter EventFilter, search string) ([]dto.EventView, error) {
	const op = "content_service.Events"

	if !filter.Valid() {
		filter = EventsUpcoming
	}

	events, err := s.src.ListEvents(ctx)
	if err != nil {
		s.log.Warn("events unavailable", slog.String("op", op), sl.Err(err))
		return []dto.EventView{}, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	term := strings.ToLower(strings.TrimSpace(search))

	selected := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if term != "" && !matchesEvent(ev, term) {
			continue
		}

		upcoming := ev.IsUpcoming(now)
		_, dateErr := ev.Day()
		past := dateErr == nil && !upcoming

		switch filter {
		case EventsUpcoming:
			if !upcoming {
				continue
			}
		case EventsRegistration:
			if !upcoming || !ev.RegistrationRequired {
				continue
			}
		case EventsPast:
			if !past {
				continue
			}
		}
		selected = append(selected, ev)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		a, _ := selected[i].Day()
		b, _ := selected[j].Day()
		if filter == EventsPast {
			return a.After(b)
		}
		return a.Before(b)
	})

	out := make([]dto.EventView, 0, len(selected))
	for _, ev := range selected {
		out = append(out, s.eventView(ev, now))
	}

	return out, nil
}

func (s *ContentService) Event(ctx context.Context, rawSlug string) (*dto.EventView, error) {
	const op = "content_service.Event"

	key := slug.Lookup(rawSlug)
	if key == "" {
		return nil, nil
	}

	ev, err := s.src.GetEventBySlug(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if ev == nil {
		return nil, nil
	}

	view := s.eventView(*ev, s.now())
	return &view, nil
}

func (s *ContentService) Ministries(ctx context.Context) ([]dto.MinistryView, error) {
	const op = "content_service.Ministries"

	items, err := s.src.ListMinistries(ctx)

	out := make([]dto.MinistryView, 0, len(items))
	for _, m := range items {
		out = append(out, dto.MinistryView{
			ID:             m.ID,
			Name:           m.Name,
			Description:    m.Description,
			Leader:         m.Leader,
			MeetingTime:    m.MeetingTime,
			ContactEmail:   m.ContactEmail,
			Slug:           m.Slug,
			Category:       m.Category,
			Requirements:   m.Requirements,
			TimeCommitment: m.TimeCommitment,
			Benefits:       m.Benefits,
			Image:          s.imageView(m.Image),
		})
	}

	if err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *ContentService) Clergy(ctx context.Context) ([]dto.PriestView, error) {
	const op = "content_service.Clergy"

	items, err := s.src.ListPriests(ctx)

	out := make([]dto.PriestView, 0, len(items))
	for _, p := range items {
		out = append(out, dto.PriestView{
			ID:    p.ID,
			Name:  p.Name,
			Title: p.Title,
			Bio:   p.Bio,
			Email: p.Email,
			Photo: s.imageView(p.Photo),
		})
	}

	if err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// MassSchedule собирает мессы, адорацию и исповедь. Ошибка одной коллекции
// не мешает отдать остальные; ошибки объединяются.
func (s *ContentService) MassSchedule(ctx context.Context) (dto.MassSchedule, error) {
	const op = "content_service.MassSchedule"

	masses, massErr := s.src.ListMassTimes(ctx)
	adoration, adorationErr := s.src.ListAdorationTimes(ctx)
	confession, confessionErr := s.src.ListConfessionTimes(ctx)

	schedule := groupMasses(masses)
	schedule.Adoration = nonNil(adoration)
	schedule.Confession = nonNil(confession)

	if err := errors.Join(massErr, adorationErr, confessionErr); err != nil {
		s.log.Warn("mass schedule is incomplete", slog.String("op", op), sl.Err(err))
		return schedule, fmt.Errorf("%s: %w", op, err)
	}

	return schedule, nil
}

// ParishInfo nil без ошибки, если запись не заведена в CMS.
func (s *ContentService) ParishInfo(ctx context.Context) (*models.ParishInfo, error) {
	const op = "content_service.ParishInfo"

	info, err := s.src.GetParishInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return info, nil
}

func (s *ContentService) SubmitContact(ctx context.Context, req request.ContactRequest) error {
	const op = "content_service.SubmitContact"

	sub := models.ContactSubmission{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
	}
	if sub.Name == "" || sub.Email == "" || sub.Message == "" {
		return fmt.Errorf("%s: %w", op, ErrInvalidSubmission)
	}

	if err := s.src.SubmitContact(ctx, sub); err != nil {
		s.log.Error("failed to submit contact form", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("contact form submitted", slog.String("op", op))

	return nil
}

func (s *ContentService) SubmitFeedback(ctx context.Context, req request.FeedbackRequest) error {
	const op = "content_service.SubmitFeedback"

	sub := models.FeedbackSubmission{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Category: strings.TrimSpace(req.Category),
		Rating:   req.Rating,
		Message:  strings.TrimSpace(req.Message),
	}
	if sub.Message == "" || sub.Rating < 0 || sub.Rating > 5 {
		return fmt.Errorf("%s: %w", op, ErrInvalidSubmission)
	}

	if err := s.src.SubmitFeedback(ctx, sub); err != nil {
		s.log.Error("failed to submit feedback", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *ContentService) imageView(img *models.Image) *dto.ImageView {
	if img.IsZero() {
		return nil
	}

	original := img.Variant(models.ImageOriginal)

	return &dto.ImageView{
		URL:       img.ResolveURL(s.mediaURL, models.ImageOriginal),
		Thumbnail: img.ResolveURL(s.mediaURL, models.ImageThumbnail),
		Small:     img.ResolveURL(s.mediaURL, models.ImageSmall),
		Medium:    img.ResolveURL(s.mediaURL, models.ImageMedium),
		Large:     img.ResolveURL(s.mediaURL, models.ImageLarge),
		Alt:       img.AlternativeText,
		Width:     original.Width,
		Height:    original.Height,
	}
}

func (s *ContentService) noticeView(n models.NoticeBoardItem) dto.NoticeView {
	view := dto.NoticeView{
		ID:           n.ID,
		Type:         n.Type,
		Title:        n.Title,
		Content:      n.Content,
		Description:  n.Description,
		Category:     n.Category,
		Slug:         n.Slug,
		Urgent:       n.IsUrgent(),
		Reclassified: n.Reclassified,
		PublishedAt:  n.PublishedAt,
	}

	switch {
	case !n.Image.IsZero():
		view.Image = s.imageView(n.Image)
	case n.HasImage():
		u := n.ImageLink(s.mediaURL, models.ImageOriginal)
		view.Image = &dto.ImageView{URL: u, Thumbnail: u, Small: u, Medium: u, Large: u, Alt: n.Title}
	}

	return view
}

func (s *ContentService) blogSummary(p models.BlogPost) dto.BlogPostSummary {
	return dto.BlogPostSummary{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Excerpt:     p.Summary(summaryRunes),
		Author:      p.Author,
		Image:       s.imageView(p.FeaturedImage),
		PublishedAt: p.PublishedAt,
	}
}

func (s *ContentService) eventView(ev models.Event, now time.Time) dto.EventView {
	view := dto.EventView{
		ID:                   ev.ID,
		Title:                ev.Title,
		Description:          ev.Description,
		Date:                 ev.Date,
		Time:                 ev.Time,
		Location:             ev.Location,
		Slug:                 ev.Slug,
		RegistrationRequired: ev.RegistrationRequired,
		MaxAttendees:         ev.MaxAttendees,
		CurrentAttendees:     ev.CurrentAttendees,
		FullyBooked:          ev.IsFullyBooked(),
		Upcoming:             ev.IsUpcoming(now),
		Image:                s.imageView(ev.Image),
	}
	if ev.HasCeiling() {
		remaining := ev.RemainingSpots()
		view.RemainingSpots = &remaining
	}

	return view
}

func matchesEvent(ev models.Event, term string) bool {
	return strings.Contains(strings.ToLower(ev.Title), term) ||
		strings.Contains(strings.ToLower(ev.Description), term) ||
		strings.Contains(strings.ToLower(ev.Location), term)
}

var weekdayOrder = map[string]int{
	"MONDAY":    1,
	"TUESDAY":   2,
	"WEDNESDAY": 3,
	"THURSDAY":  4,
	"FRIDAY":    5,
	"SATURDAY":  6,
	"SUNDAY":    7,
}

// groupMasses суббота и воскресенье уходят в Weekend (сначала суббота),
// остальные дни группируются в порядке недели; неизвестные дни в конце.
func groupMasses(masses []models.MassTime) dto.MassSchedule {
	schedule := dto.MassSchedule{
		Weekend: []models.MassTime{},
		Daily:   []dto.DayMasses{},
	}

	var saturday, sunday []models.MassTime
	index := make(map[string]int)

	for _, m := range masses {
		day := strings.ToUpper(strings.TrimSpace(m.Day))
		switch day {
		case "SATURDAY":
			saturday = append(saturday, m)
			continue
		case "SUNDAY":
			sunday = append(sunday, m)
			continue
		}

		i, ok := index[day]
		if !ok {
			i = len(schedule.Daily)
			index[day] = i
			schedule.Daily = append(schedule.Daily, dto.DayMasses{Day: m.Day})
		}
		schedule.Daily[i].Masses = append(schedule.Daily[i].Masses, m)
	}

	schedule.Weekend = append(append(schedule.Weekend, saturday...), sunday...)

	sort.SliceStable(schedule.Daily, func(i, j int) bool {
		return dayRank(schedule.Daily[i].Day) < dayRank(schedule.Daily[j].Day)
	})

	return schedule
}

func dayRank(day string) int {
	if r, ok := weekdayOrder[strings.ToUpper(strings.TrimSpace(day))]; ok {
		return r
	}
	return len(weekdayOrder) + 1
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
