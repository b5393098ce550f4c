package models

import (
	"encoding/json"
	"time"
)

type Ministry struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Leader         string `json:"leader,omitempty"`
	MeetingTime    string `json:"meetingTime,omitempty"`
	ContactEmail   string `json:"contactEmail,omitempty"`
	Slug           string `json:"slug"`
	Category       string `json:"category,omitempty"`
	Image          *Image `json:"image,omitempty"`
	Requirements   string `json:"requirements,omitempty"`
	TimeCommitment string `json:"timeCommitment,omitempty"`
	Benefits       string `json:"benefits,omitempty"`
}

func (m *Ministry) UnmarshalJSON(data []byte) error {
	type alias Ministry
	if err := json.Unmarshal(data, (*alias)(m)); err != nil {
		return err
	}
	if m.Image.IsZero() {
		m.Image = nil
	}
	return nil
}

// MassType Daily | Sunday | Holy Day | Special
type MassType string

type MassTime struct {
	ID        int64    `json:"id"`
	Day       string   `json:"day"`
	Time      string   `json:"time"`
	Type      MassType `json:"type"`
	Language  string   `json:"language,omitempty"`
	Location  string   `json:"location,omitempty"`
	Celebrant string   `json:"celebrant,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

type AdorationTime struct {
	ID        int64  `json:"id"`
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Type      string `json:"type"`
	Location  string `json:"location,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type ConfessionTime struct {
	ID                     int64  `json:"id"`
	Day                    string `json:"day"`
	StartTime              string `json:"startTime"`
	EndTime                string `json:"endTime"`
	Location               string `json:"location,omitempty"`
	Priest                 string `json:"priest,omitempty"`
	Notes                  string `json:"notes,omitempty"`
	AvailableByAppointment bool   `json:"availableByAppointment"`
}

type Priest struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title"`
	Bio   string `json:"bio,omitempty"`
	Photo *Image `json:"photo,omitempty"`
	Email string `json:"email,omitempty"`
}

func (p *Priest) UnmarshalJSON(data []byte) error {
	type alias Priest
	if err := json.Unmarshal(data, (*alias)(p)); err != nil {
		return err
	}
	if p.Photo.IsZero() {
		p.Photo = nil
	}
	return nil
}

// ParishInfo single-type запись с контактами прихода
type ParishInfo struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Address          string    `json:"address"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email"`
	OfficeHours      string    `json:"officeHours,omitempty"`
	SundayMassTimes  string    `json:"sundayMassTimes,omitempty"`
	WeekdayMassTimes string    `json:"weekdayMassTimes,omitempty"`
	MapURL           string    `json:"mapUrl,omitempty"`
	UpdatedAt        time.Time `json:"updatedAt,omitempty"`
}

type ContactSubmission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

type FeedbackSubmission struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Category string `json:"category,omitempty"`
	Rating   int    `json:"rating,omitempty"`
	Message  string `json:"message"`
}
