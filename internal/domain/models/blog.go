package models

import (
	"encoding/json"
	"time"

	"parish_portal/internal/lib/blocks"
)

type BlogPost struct {
	ID            int64           `json:"id"`
	DocumentID    string          `json:"documentId,omitempty"`
	Title         string          `json:"title"`
	Slug          string          `json:"slug"`
	Excerpt       string          `json:"excerpt,omitempty"`
	Author        string          `json:"author,omitempty"`
	Content       blocks.Document `json:"content"`
	FeaturedImage *Image          `json:"featuredImage,omitempty"`
	Gallery       Images          `json:"gallery,omitempty"`
	PublishedAt   time.Time       `json:"publishedAt"`
	CreatedAt     time.Time       `json:"createdAt,omitempty"`
	UpdatedAt     time.Time       `json:"updatedAt,omitempty"`
}

func (p *BlogPost) UnmarshalJSON(data []byte) error {
	type alias BlogPost
	if err := json.Unmarshal(data, (*alias)(p)); err != nil {
		return err
	}

	if p.FeaturedImage.IsZero() {
		p.FeaturedImage = nil
	}

	return nil
}

// Summary excerpt из CMS или первые символы текста, если автор его не заполнил.
func (p BlogPost) Summary(maxRunes int) string {
	if p.Excerpt != "" {
		return p.Excerpt
	}
	return p.Content.Excerpt(maxRunes)
}
