package models

import (
	"encoding/json"
	"strings"
	"time"
)

type NoticeType string

const (
	NoticeText   NoticeType = "text"
	NoticeImage  NoticeType = "image"
	NoticePoster NoticeType = "poster"

	// в CMS текстовые объявления исторически помечены как announcement
	noticeAnnouncement NoticeType = "announcement"
)

func (t NoticeType) Valid() bool {
	switch t {
	case NoticeText, NoticeImage, NoticePoster:
		return true
	}
	return false
}

// NoticeBoardItem элемент доски объявлений: текст, фото или постер.
// DeclaredType - тип, указанный автором в CMS; Type - итоговый тип после нормализации.
type NoticeBoardItem struct {
	ID           int64      `json:"id"`
	DocumentID   string     `json:"documentId,omitempty"`
	Type         NoticeType `json:"type"`
	DeclaredType NoticeType `json:"declaredType,omitempty"`
	Reclassified bool       `json:"reclassified"`
	Title        string     `json:"title"`
	Content      string     `json:"content,omitempty"`
	Image        *Image     `json:"image,omitempty"`
	ImageURL     string     `json:"imageUrl,omitempty"`
	Urgent       *bool      `json:"urgent,omitempty"`
	Slug         string     `json:"slug"`
	Category     string     `json:"category,omitempty"`
	Description  string     `json:"description,omitempty"`
	PublishedAt  time.Time  `json:"publishedAt"`
}

func (n *NoticeBoardItem) UnmarshalJSON(data []byte) error {
	type alias NoticeBoardItem
	if err := json.Unmarshal(data, (*alias)(n)); err != nil {
		return err
	}

	n.Type = NoticeType(strings.ToLower(strings.TrimSpace(string(n.Type))))
	if n.Type == noticeAnnouncement || n.Type == "" {
		n.Type = NoticeText
	}
	if n.Image.IsZero() {
		n.Image = nil
	}

	return nil
}

// HasImage истина, если есть хоть какие-то данные картинки.
func (n NoticeBoardItem) HasImage() bool {
	return !n.Image.IsZero() || strings.TrimSpace(n.ImageURL) != ""
}

func (n NoticeBoardItem) IsUrgent() bool {
	return n.Urgent != nil && *n.Urgent
}

// ImageLink url картинки нужного размера; imageUrl используется как запасной вариант.
func (n NoticeBoardItem) ImageLink(baseURL string, size ImageSize) string {
	if !n.Image.IsZero() {
		return n.Image.ResolveURL(baseURL, size)
	}
	return AbsoluteURL(baseURL, n.ImageURL)
}
