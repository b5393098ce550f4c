package cms

import (
	"net/url"
	"strconv"
	"strings"
)

type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// Query собирает параметры REST API Strapi:
//
//	sort=publishedAt:desc
//	pagination[page]=2&pagination[pageSize]=12
//	filters[slug][$eq]=easter-vigil
//	filters[$or][0][title][$containsi]=rosary
//	populate=image | populate[0]=featuredImage&populate[1]=gallery
//	fields[0]=slug
type Query struct {
	values url.Values
	sort   []string
	or     int
}

func NewQuery() *Query {
	return &Query{values: url.Values{}}
}

func (q *Query) Sort(field string, dir SortDir) *Query {
	q.sort = append(q.sort, field+":"+string(dir))
	return q
}

func (q *Query) Page(page, pageSize int) *Query {
	q.values.Set("pagination[page]", strconv.Itoa(page))
	q.values.Set("pagination[pageSize]", strconv.Itoa(pageSize))
	return q
}

func (q *Query) PageSize(pageSize int) *Query {
	q.values.Set("pagination[pageSize]", strconv.Itoa(pageSize))
	return q
}

func (q *Query) Populate(relations ...string) *Query {
	switch len(relations) {
	case 0:
	case 1:
		q.values.Set("populate", relations[0])
	default:
		for i, rel := range relations {
			q.values.Set("populate["+strconv.Itoa(i)+"]", rel)
		}
	}
	return q
}

func (q *Query) Fields(fields ...string) *Query {
	for i, f := range fields {
		q.values.Set("fields["+strconv.Itoa(i)+"]", f)
	}
	return q
}

// Filter filters[path...][op]=value, например Filter("$eq", "4", "event", "id").
func (q *Query) Filter(op, value string, path ...string) *Query {
	q.values.Set(filterKey(append([]string{"filters"}, path...), op), value)
	return q
}

func (q *Query) Eq(value string, path ...string) *Query {
	return q.Filter("$eq", value, path...)
}

// Search регистронезависимый поиск подстроки по любому из полей.
// Пустой (после trim) запрос фильтр не добавляет.
func (q *Query) Search(term string, fields ...string) *Query {
	term = strings.TrimSpace(term)
	if term == "" || len(fields) == 0 {
		return q
	}

	for _, f := range fields {
		key := filterKey([]string{"filters", "$or", strconv.Itoa(q.or), f}, "$containsi")
		q.values.Set(key, term)
		q.or++
	}

	return q
}

func (q *Query) Values() url.Values {
	out := make(url.Values, len(q.values)+1)
	for k, v := range q.values {
		out[k] = append([]string(nil), v...)
	}

	switch len(q.sort) {
	case 0:
	case 1:
		out.Set("sort", q.sort[0])
	default:
		for i, s := range q.sort {
			out.Set("sort["+strconv.Itoa(i)+"]", s)
		}
	}

	return out
}

func (q *Query) Encode() string {
	return q.Values().Encode()
}

func filterKey(path []string, op string) string {
	var sb strings.Builder
	sb.WriteString(path[0])
	for _, p := range path[1:] {
		sb.WriteString("[" + p + "]")
	}
	sb.WriteString("[" + op + "]")
	return sb.String()
}
