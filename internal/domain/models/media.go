package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

type ImageSize string

const (
	ImageThumbnail ImageSize = "thumbnail"
	ImageSmall     ImageSize = "small"
	ImageMedium    ImageSize = "medium"
	ImageLarge     ImageSize = "large"
	ImageOriginal  ImageSize = "original"
)

// ImageFormat один пререндеренный вариант картинки
type ImageFormat struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Mime   string `json:"mime,omitempty"`
}

// Image ассет CMS. Оригинал есть всегда, уменьшенные варианты - по возможности.
type Image struct {
	ID              int64                     `json:"id,omitempty"`
	URL             string                    `json:"url"`
	Width           int                       `json:"width,omitempty"`
	Height          int                       `json:"height,omitempty"`
	Mime            string                    `json:"mime,omitempty"`
	AlternativeText string                    `json:"alternativeText,omitempty"`
	Formats         map[ImageSize]ImageFormat `json:"formats,omitempty"`
}

func (i *Image) UnmarshalJSON(data []byte) error {
	*i = Image{}

	if isNull(data) {
		return nil
	}

	data = bytes.TrimSpace(data)
	// старые записи хранят просто url строкой
	if data[0] == '"' {
		return json.Unmarshal(data, &i.URL)
	}

	flat, err := UnwrapEntity(data)
	if err != nil {
		return err
	}
	if isNull(flat) {
		return nil
	}

	type alias Image
	return json.Unmarshal(flat, (*alias)(i))
}

// IsZero true, если у картинки нет url (например {"data": null}).
func (i *Image) IsZero() bool {
	return i == nil || strings.TrimSpace(i.URL) == ""
}

// Variant возвращает запрошенный вариант, при его отсутствии - оригинал.
func (i Image) Variant(size ImageSize) ImageFormat {
	if size != ImageOriginal {
		if f, ok := i.Formats[size]; ok && f.URL != "" {
			return f
		}
	}

	return ImageFormat{URL: i.URL, Width: i.Width, Height: i.Height, Mime: i.Mime}
}

// ResolveURL возвращает абсолютный url варианта; относительные пути дополняются baseURL.
func (i Image) ResolveURL(baseURL string, size ImageSize) string {
	return AbsoluteURL(baseURL, i.Variant(size).URL)
}

func AbsoluteURL(baseURL, u string) string {
	if u == "" {
		return ""
	}
	if strings.HasPrefix(u, "/") && !strings.HasPrefix(u, "//") {
		return strings.TrimRight(baseURL, "/") + u
	}
	return u
}

// Images список картинок, принимает и массив, и обёртку {"data": [...]}.
type Images []Image

func (im *Images) UnmarshalJSON(data []byte) error {
	items, err := UnwrapList(data)
	if err != nil {
		return err
	}

	out := make(Images, 0, len(items))
	for _, raw := range items {
		var img Image
		if err := json.Unmarshal(raw, &img); err != nil {
			return err
		}
		if !img.IsZero() {
			out = append(out, img)
		}
	}
	*im = out

	return nil
}
