package seo

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"parish_portal/internal/cms"
	"parish_portal/internal/lib/logger/sl"

	"github.com/patrickmn/go-cache"
)

const (
	xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

	DefaultCacheTTL = time.Hour

	cacheKey = "sitemap"
)

type ChangeFreq string

const (
	Daily   ChangeFreq = "daily"
	Weekly  ChangeFreq = "weekly"
	Monthly ChangeFreq = "monthly"
)

// Link страница сайта. URL - путь относительно адреса сайта.
type Link struct {
	URL        string
	ChangeFreq ChangeFreq
	Priority   float64
}

// StaticLinks страницы, которые есть всегда, независимо от CMS.
var StaticLinks = []Link{
	{URL: "/", ChangeFreq: Daily, Priority: 0.9},
	{URL: "/about", ChangeFreq: Monthly, Priority: 0.6},
	{URL: "/contact", ChangeFreq: Monthly, Priority: 0.6},
	{URL: "/mass-timings", ChangeFreq: Weekly, Priority: 0.8},
	{URL: "/notice-board", ChangeFreq: Daily, Priority: 0.7},
	{URL: "/blog", ChangeFreq: Weekly, Priority: 0.7},
	{URL: "/donate", ChangeFreq: Monthly, Priority: 0.5},
	{URL: "/events", ChangeFreq: Weekly, Priority: 0.6},
}

type SlugSource interface {
	ListSlugs(ctx context.Context, collection string) ([]string, error)
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc        string     `xml:"loc"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   string     `xml:"priority,omitempty"`
}

type Sitemap struct {
	log     *slog.Logger
	src     SlugSource
	siteURL string
	cache   *cache.Cache
}

func NewSitemap(log *slog.Logger, src SlugSource, siteURL string, ttl time.Duration) (*Sitemap, error) {
	siteURL = strings.TrimRight(strings.TrimSpace(siteURL), "/")
	u, err := url.Parse(siteURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("seo.NewSitemap: invalid site url %q", siteURL)
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &Sitemap{
		log:     log,
		src:     src,
		siteURL: siteURL,
		cache:   cache.New(ttl, 2*ttl),
	}, nil
}

// Links статические страницы плюс записи блога и события из CMS.
// Если CMS недоступна, возвращаются только статические страницы и ошибка.
func (s *Sitemap) Links(ctx context.Context) ([]Link, error) {
	const op = "seo.Links"

	links := make([]Link, len(StaticLinks))
	copy(links, StaticLinks)

	if s.src == nil {
		return links, nil
	}

	blogs, errBlogs := s.src.ListSlugs(ctx, cms.CollectionBlogPosts)
	events, errEvents := s.src.ListSlugs(ctx, cms.CollectionEvents)
	if err := errors.Join(errBlogs, errEvents); err != nil {
		return links, fmt.Errorf("%s: %w", op, err)
	}

	for _, slug := range blogs {
		links = append(links, Link{URL: "/blog/" + url.PathEscape(slug), ChangeFreq: Monthly, Priority: 0.6})
	}
	for _, slug := range events {
		links = append(links, Link{URL: "/events/" + url.PathEscape(slug), ChangeFreq: Weekly, Priority: 0.6})
	}

	return links, nil
}

// Build собирает sitemap.xml. Ошибка CMS не фатальна: карта строится по статике
// и не кешируется, чтобы следующий запрос попробовал снова.
func (s *Sitemap) Build(ctx context.Context) ([]byte, error) {
	const op = "seo.Build"

	log := s.log.With(slog.String("op", op))

	links, err := s.Links(ctx)
	partial := err != nil
	if partial {
		log.Warn("failed to fetch cms slugs, falling back to static links", sl.Err(err))
	}

	set := urlSet{Xmlns: xmlns, URLs: make([]urlEntry, 0, len(links))}
	for _, l := range links {
		set.URLs = append(set.URLs, urlEntry{
			Loc:        s.siteURL + l.URL,
			ChangeFreq: l.ChangeFreq,
			Priority:   fmt.Sprintf("%.1f", l.Priority),
		})
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	body = append([]byte(xml.Header), body...)

	if !partial {
		s.cache.SetDefault(cacheKey, body)
	}

	log.Debug("sitemap built", slog.Int("urls", len(links)), slog.Bool("partial", partial))

	return body, nil
}

// Cached отдаёт последнюю полную карту, при её отсутствии строит новую.
func (s *Sitemap) Cached(ctx context.Context) ([]byte, error) {
	if v, ok := s.cache.Get(cacheKey); ok {
		return v.([]byte), nil
	}
	return s.Build(ctx)
}
