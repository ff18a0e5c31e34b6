package store

import (
	"fmt"
	"net/http"
	"strconv"
)

// TitleFilterQuery narrows the title listing. Zero values mean "no filter".
type TitleFilterQuery struct {
	Category string // category slug
	Genre    string // genre slug
	Name     string // substring match on the name
	Year     int
}

// Parse extracts filter parameters from the request URL.
func (q TitleFilterQuery) Parse(r *http.Request) (TitleFilterQuery, error) {
	values := r.URL.Query()

	q.Category = values.Get("category")
	q.Genre = values.Get("genre")
	q.Name = values.Get("name")

	if yearStr := values.Get("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil || year <= 0 {
			return q, fmt.Errorf("invalid year: %q", yearStr)
		}
		q.Year = year
	}

	return q, nil
}
