package query

import (
	"strconv"
	"strings"

	"github.com/weiawesome/labor-market/internal/domain"
)

// Limits bounds page sizes.
type Limits struct {
	DefaultLimit int
	MaxLimit     int
}

// maxPage keeps the skip count far from integer overflow.
const maxPage = 1_000_000

// DefaultLimits is used when no limits are configured.
var DefaultLimits = Limits{DefaultLimit: 10, MaxLimit: 100}

// Page resolves raw page and limit values. Missing, malformed and
// non-positive values fall back to page 1 and the default limit; limits
// above the maximum are capped.
func (l Limits) Page(rawPage, rawLimit string) domain.Page {
	l = l.normalize()

	page := parsePositive(rawPage)
	if page == 0 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}

	limit := parsePositive(rawLimit)
	if limit == 0 {
		limit = l.DefaultLimit
	}
	if limit > l.MaxLimit {
		limit = l.MaxLimit
	}

	return domain.Page{Number: page, Limit: limit}
}

func (l Limits) normalize() Limits {
	if l.DefaultLimit <= 0 {
		l.DefaultLimit = DefaultLimits.DefaultLimit
	}
	if l.MaxLimit <= 0 {
		l.MaxLimit = DefaultLimits.MaxLimit
	}
	if l.DefaultLimit > l.MaxLimit {
		l.DefaultLimit = l.MaxLimit
	}
	return l
}

// parsePositive returns 0 for anything that is not a positive integer.
func parsePositive(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// Pages returns ceil(total/limit).
func Pages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// Result assembles the listing payload for one page.
func Result(jobs []domain.JobResponse, total int64, page domain.Page) domain.ListJobsResponse {
	if jobs == nil {
		jobs = []domain.JobResponse{}
	}
	pages := Pages(total, page.Limit)
	return domain.ListJobsResponse{
		Jobs:    jobs,
		Total:   total,
		Page:    page.Number,
		Pages:   pages,
		HasNext: page.Number < pages,
		HasPrev: page.Number > 1,
	}
}
