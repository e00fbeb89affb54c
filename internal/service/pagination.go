package service

import (
	"strings"

	"github.com/stemsi/schoolhub-backend/internal/response"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// normalizePage clamps page and perPage to the API defaults.
func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

func newPagination(page, perPage, total int) *response.Pagination {
	return response.NewPagination(page, perPage, total)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
