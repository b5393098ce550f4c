package models

// Pagination метаданные страницы.
// Инвариант: PageCount = ceil(Total / PageSize), 1 <= Page <= max(PageCount, 1).
type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

func NewPagination(page, pageSize, total int) Pagination {
	if pageSize < 1 {
		pageSize = 1
	}
	if total < 0 {
		total = 0
	}

	pageCount := (total + pageSize - 1) / pageSize

	if page < 1 {
		page = 1
	}
	if last := max(pageCount, 1); page > last {
		page = last
	}

	return Pagination{
		Page:      page,
		PageSize:  pageSize,
		PageCount: pageCount,
		Total:     total,
	}
}

func (p Pagination) HasNext() bool {
	return p.Page < p.PageCount
}

func (p Pagination) HasPrev() bool {
	return p.Page > 1
}

// Range номера первого и последнего элемента на странице (с единицы), для "Showing X to Y".
func (p Pagination) Range() (from, to int) {
	if p.Total == 0 {
		return 0, 0
	}

	from = (p.Page-1)*p.PageSize + 1
	to = min(p.Page*p.PageSize, p.Total)

	return from, to
}

type Meta struct {
	Pagination Pagination `json:"pagination"`
}

type PaginatedResponse[T any] struct {
	Data []T `json:"data"`
	Meta Meta `json:"meta"`
}

// EmptyPage пустой результат: total 0, pageCount 0, page 1.
func EmptyPage[T any](pageSize int) PaginatedResponse[T] {
	return PaginatedResponse[T]{
		Data: []T{},
		Meta: Meta{Pagination: NewPagination(1, pageSize, 0)},
	}
}
