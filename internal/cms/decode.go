package cms

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"parish_portal/internal/domain/models"
)

// maxListPages предел страниц для listEvery
const maxListPages = 50

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta struct {
		Pagination *models.Pagination `json:"pagination"`
	} `json:"meta"`
}

func decodeList[T any](raw []byte) ([]T, *models.Pagination, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, err
	}

	items, err := models.UnwrapList(env.Data)
	if err != nil {
		return nil, nil, err
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, nil, err
		}
		out = append(out, v)
	}

	return out, env.Meta.Pagination, nil
}

func decodeOne[T any](raw []byte) (*T, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}

	flat, err := models.UnwrapEntity(env.Data)
	if err != nil {
		return nil, err
	}
	if len(flat) == 0 || string(flat) == "null" {
		return nil, nil
	}

	var v T
	if err := json.Unmarshal(flat, &v); err != nil {
		return nil, err
	}

	return &v, nil
}

// listPage постраничный запрос. При любом сбое возвращается пустая страница
// вместе с ошибкой, чтобы вызывающий сам выбрал между пустым состоянием и повтором.
func listPage[T any](ctx context.Context, c *Client, op, collection string, q *Query, page, pageSize int) (models.PaginatedResponse[T], error) {
	page, pageSize = c.clampPage(page, pageSize)

	items, meta, err := fetchPage[T](ctx, c, op, collection, q, page, pageSize)
	if err != nil {
		return models.EmptyPage[T](pageSize), err
	}

	// страница за концом списка: отдаём последнюю, чтобы данные совпадали с meta
	if meta != nil && len(items) == 0 && meta.Total > 0 {
		size := pageSize
		if meta.PageSize > 0 {
			size = meta.PageSize
		}
		if last := models.NewPagination(page, size, meta.Total).PageCount; page > last {
			page = last
			items, meta, err = fetchPage[T](ctx, c, op, collection, q, page, size)
			if err != nil {
				return models.EmptyPage[T](pageSize), err
			}
		}
	}

	// meta от CMS пересчитываем, чтобы инварианты пагинации держались всегда
	pagination := models.NewPagination(page, pageSize, len(items)+(page-1)*pageSize)
	if meta != nil {
		size := meta.PageSize
		if size < 1 {
			size = pageSize
		}
		pagination = models.NewPagination(page, size, meta.Total)
	}

	return models.PaginatedResponse[T]{Data: items, Meta: models.Meta{Pagination: pagination}}, nil
}

func fetchPage[T any](ctx context.Context, c *Client, op, collection string, q *Query, page, pageSize int) ([]T, *models.Pagination, error) {
	q.Page(page, pageSize)

	raw, err := c.do(ctx, op, http.MethodGet, collection, collection, q, nil)
	if err != nil {
		return nil, nil, err
	}

	items, meta, err := decodeList[T](raw)
	if err != nil {
		return nil, nil, decodeFailure(op, err)
	}

	return items, meta, nil
}

// listAll запрос небольшой коллекции целиком. Размер ограничен maxList;
// если CMS сообщает, что записей больше, пишем предупреждение.
func listAll[T any](ctx context.Context, c *Client, op, collection string, q *Query) ([]T, error) {
	q.PageSize(c.maxList)

	raw, err := c.do(ctx, op, http.MethodGet, collection, collection, q, nil)
	if err != nil {
		return []T{}, err
	}

	items, meta, err := decodeList[T](raw)
	if err != nil {
		return []T{}, decodeFailure(op, err)
	}

	if meta != nil && meta.Total > len(items) {
		c.log.Warn("collection truncated",
			slog.String("op", op),
			slog.String("collection", collection),
			slog.Int("returned", len(items)),
			slog.Int("total", meta.Total),
		)
	}

	return items, nil
}

// listEvery обходит коллекцию постранично до конца. Strapi режет pageSize
// до maxLimit (по умолчанию 100), поэтому одним запросом всё не забрать.
func listEvery[T any](ctx context.Context, c *Client, op, collection string, q *Query) ([]T, error) {
	var out []T

	for page := 1; ; page++ {
		items, meta, err := fetchPage[T](ctx, c, op, collection, q, page, c.maxList)
		if err != nil {
			if out == nil {
				out = []T{}
			}
			return out, err
		}
		out = append(out, items...)

		if meta == nil || len(items) == 0 {
			break
		}
		size := meta.PageSize
		if size < 1 {
			size = c.maxList
		}
		if page >= models.NewPagination(page, size, meta.Total).PageCount {
			break
		}
		if page >= maxListPages {
			c.log.Warn("collection truncated",
				slog.String("op", op),
				slog.String("collection", collection),
				slog.Int("returned", len(out)),
				slog.Int("total", meta.Total),
			)
			break
		}
	}

	if out == nil {
		out = []T{}
	}

	return out, nil
}

// findOne первая запись по фильтру; отсутствие записи - nil без ошибки.
func findOne[T any](ctx context.Context, c *Client, op, collection string, q *Query) (*T, error) {
	q.PageSize(1)

	raw, err := c.do(ctx, op, http.MethodGet, collection, collection, q, nil)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	items, _, err := decodeList[T](raw)
	if err != nil {
		return nil, decodeFailure(op, err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	return &items[0], nil
}

// getSingle single type (например parish-info); 404 - nil без ошибки.
func getSingle[T any](ctx context.Context, c *Client, op, path string, q *Query) (*T, error) {
	raw, err := c.do(ctx, op, http.MethodGet, path, path, q, nil)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	v, err := decodeOne[T](raw)
	if err != nil {
		return nil, decodeFailure(op, err)
	}

	return v, nil
}

// write POST/PUT с телом {"data": body}; ответ с созданной/обновлённой записью
// разбирается в T. Для записи 404 - обычная ошибка.
func write[T any](ctx context.Context, c *Client, op, method, collection, path string, body any) (*T, error) {
	raw, err := c.do(ctx, op, method, collection, path, nil, body)
	if err != nil {
		return nil, err
	}

	v, err := decodeOne[T](raw)
	if err != nil {
		return nil, decodeFailure(op, err)
	}
	if v == nil {
		return nil, decodeFailure(op, errors.New("empty data in response"))
	}

	return v, nil
}

func (c *Client) clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > c.maxList {
		pageSize = c.maxList
	}
	return page, pageSize
}
