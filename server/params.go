package server

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/plwdash/engine"
)

// parseCriteria reads filter query parameters.
//
//	district=a,b&area_officer=x&status=pwd&from=2024-03-01&to=2024-03-31
//
// A missing, blank or "all" selector places no restriction. Values may be
// comma-separated or repeated. A single date bound leaves the other end open.
func parseCriteria(q url.Values) (engine.Criteria, error) {
	c := engine.Criteria{
		District:    parseSelection(q["district"]),
		AreaOfficer: parseSelection(q["area_officer"]),
		Status:      parseSelection(q["status"]),
	}

	from, err := parseDate(q.Get("from"))
	if err != nil {
		return c, fmt.Errorf("from: %w", err)
	}
	to, err := parseDate(q.Get("to"))
	if err != nil {
		return c, fmt.Errorf("to: %w", err)
	}
	if from != nil || to != nil {
		r := &engine.DateRange{From: time.Time{}, To: time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)}
		if from != nil {
			r.From = *from
		}
		if to != nil {
			r.To = *to
		}
		c.Dates = r
	}
	return c, nil
}

func parseSelection(raw []string) engine.Selection {
	var values []string
	for _, item := range raw {
		for _, v := range strings.Split(item, ",") {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if strings.EqualFold(v, "all") {
				return engine.AnyValue()
			}
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return engine.AnyValue()
	}
	return engine.OneOf(values...)
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(engine.DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("want YYYY-MM-DD, got %q", s)
	}
	return &t, nil
}

func parseSort(q url.Values) (engine.SortMode, error) {
	return engine.ParseSortMode(q.Get("sort"))
}

// parsePage reads limit/offset. limit 0 means no limit.
func parsePage(q url.Values) (limit, offset int, err error) {
	if limit, err = parseNonNegative(q.Get("limit")); err != nil {
		return 0, 0, fmt.Errorf("limit: %w", err)
	}
	if offset, err = parseNonNegative(q.Get("offset")); err != nil {
		return 0, 0, fmt.Errorf("offset: %w", err)
	}
	return limit, offset, nil
}

func parseNonNegative(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("want a non-negative integer, got %q", s)
	}
	return n, nil
}
