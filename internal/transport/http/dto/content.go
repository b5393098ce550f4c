package dto

import (
	"time"

	"parish_portal/internal/domain/models"
)

// Page страница списка для фронтенда.
type Page[T any] struct {
	Items      []T               `json:"items"`
	Pagination models.Pagination `json:"pagination"`
}

// ImageView картинка с уже абсолютными url всех размеров.
type ImageView struct {
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
	Small     string `json:"small"`
	Medium    string `json:"medium"`
	Large     string `json:"large"`
	Alt       string `json:"alt,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
}

type NoticeView struct {
	ID           int64             `json:"id"`
	Type         models.NoticeType `json:"type"`
	Title        string            `json:"title"`
	Content      string            `json:"content,omitempty"`
	Description  string            `json:"description,omitempty"`
	Category     string            `json:"category,omitempty"`
	Slug         string            `json:"slug"`
	Urgent       bool              `json:"urgent"`
	Image        *ImageView        `json:"image,omitempty"`
	Reclassified bool              `json:"reclassified,omitempty"`
	PublishedAt  time.Time         `json:"publishedAt"`
}

type BlogPostSummary struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt"`
	Author      string     `json:"author,omitempty"`
	Image       *ImageView `json:"image,omitempty"`
	PublishedAt time.Time  `json:"publishedAt"`
}

type BlogPostView struct {
	BlogPostSummary
	ContentHTML string      `json:"contentHtml"`
	Gallery     []ImageView `json:"gallery"`
}

type EventView struct {
	ID                   int64      `json:"id"`
	Title                string     `json:"title"`
	Description          string     `json:"description,omitempty"`
	Date                 string     `json:"date"`
	Time                 string     `json:"time,omitempty"`
	Location             string     `json:"location,omitempty"`
	Slug                 string     `json:"slug"`
	RegistrationRequired bool       `json:"registrationRequired"`
	MaxAttendees         *int       `json:"maxAttendees,omitempty"`
	CurrentAttendees     int        `json:"currentAttendees"`
	RemainingSpots       *int       `json:"remainingSpots,omitempty"`
	FullyBooked          bool       `json:"fullyBooked"`
	Upcoming             bool       `json:"upcoming"`
	Image                *ImageView `json:"image,omitempty"`
}

type MinistryView struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Leader         string     `json:"leader,omitempty"`
	MeetingTime    string     `json:"meetingTime,omitempty"`
	ContactEmail   string     `json:"contactEmail,omitempty"`
	Slug           string     `json:"slug"`
	Category       string     `json:"category,omitempty"`
	Requirements   string     `json:"requirements,omitempty"`
	TimeCommitment string     `json:"timeCommitment,omitempty"`
	Benefits       string     `json:"benefits,omitempty"`
	Image          *ImageView `json:"image,omitempty"`
}

type PriestView struct {
	ID    int64      `json:"id"`
	Name  string     `json:"name"`
	Title string     `json:"title"`
	Bio   string     `json:"bio,omitempty"`
	Email string     `json:"email,omitempty"`
	Photo *ImageView `json:"photo,omitempty"`
}

type DayMasses struct {
	Day    string            `json:"day"`
	Masses []models.MassTime `json:"masses"`
}

// MassSchedule расписание: мессы выходных (суббота и воскресенье), будни по дням,
// адорация и исповедь.
type MassSchedule struct {
	Weekend    []models.MassTime       `json:"weekend"`
	Daily      []DayMasses             `json:"daily"`
	Adoration  []models.AdorationTime  `json:"adoration"`
	Confession []models.ConfessionTime `json:"confession"`
}

func (s MassSchedule) IsEmpty() bool {
	return len(s.Weekend) == 0 && len(s.Daily) == 0 && len(s.Adoration) == 0 && len(s.Confession) == 0
}
