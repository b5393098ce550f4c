package cms

import (
	"log/slog"
	"strings"

	"parish_portal/internal/domain/models"
	"parish_portal/internal/metrics"
)

// NormalizeNotice приводит тип объявления в соответствие с данными.
// Наличие картинки (image или imageUrl) важнее типа, выбранного автором:
//
//  1. text с картинкой становится image;
//  2. image/poster без картинки становится text, пустой content заменяется title;
//  3. у text убираются поля картинки, у image/poster - флаг urgent.
//
// Второе значение - был ли тип исправлен. Исходный тип сохраняется в DeclaredType.
func NormalizeNotice(item models.NoticeBoardItem) (models.NoticeBoardItem, bool) {
	out := item
	out.DeclaredType = item.Type

	hasImage := item.HasImage()

	switch item.Type {
	case models.NoticeText:
		if hasImage {
			out.Type = models.NoticeImage
		}
	case models.NoticeImage, models.NoticePoster:
		if !hasImage {
			out.Type = models.NoticeText
		}
	default:
		// неизвестный тип решаем по данным
		out.Type = models.NoticeText
		if hasImage {
			out.Type = models.NoticeImage
		}
	}

	if out.Type == models.NoticeText {
		out.Image = nil
		out.ImageURL = ""
		if strings.TrimSpace(out.Content) == "" {
			out.Content = out.Title
		}
	} else {
		out.Urgent = nil
	}

	out.Reclassified = out.Type != out.DeclaredType

	return out, out.Reclassified
}

func (c *Client) normalizeNotices(op string, items []models.NoticeBoardItem) []models.NoticeBoardItem {
	for i := range items {
		items[i] = c.normalizeNotice(op, items[i])
	}
	return items
}

func (c *Client) normalizeNotice(op string, item models.NoticeBoardItem) models.NoticeBoardItem {
	out, changed := NormalizeNotice(item)
	if changed {
		c.log.Warn("notice type corrected",
			slog.String("op", op),
			slog.Int64("id", out.ID),
			slog.String("title", out.Title),
			slog.String("declared", string(out.DeclaredType)),
			slog.String("normalized", string(out.Type)),
		)
		metrics.NoticeReclassifiedTotal.WithLabelValues(string(out.DeclaredType), string(out.Type)).Inc()
	}
	return out
}
