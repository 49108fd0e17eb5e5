package service

import (
	"fmt"
	"time"

	"github.com/sbruun/kontoflow/internal/database/repository"
)

// BuildDateSpine generates one dim_date row for every calendar day from
// Jan 1 of startYear through Dec 31 of endYear, regardless of whether any
// transaction falls on it. Week and weekday numbering are ISO 8601
// (Monday = 1).
func BuildDateSpine(startYear, endYear int) []repository.DimDate {
	if endYear < startYear {
		return nil
	}
	start := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(endYear, time.December, 31, 0, 0, 0, 0, time.UTC)

	var out []repository.DimDate
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		_, isoWeek := d.ISOWeek()
		dow := int(d.Weekday())
		if dow == 0 {
			dow = 7
		}
		quarter := (int(d.Month())-1)/3 + 1
		lastOfMonth := d.AddDate(0, 0, 1).Day() == 1

		out = append(out, repository.DimDate{
			DateKey:           d.Format("20060102"),
			DateDay:           d,
			Year:              d.Year(),
			Quarter:           quarter,
			Month:             int(d.Month()),
			WeekOfYear:        isoWeek,
			DayOfMonth:        d.Day(),
			DayOfYear:         d.YearDay(),
			DayOfWeek:         dow,
			DayName:           d.Weekday().String(),
			IsWeekend:         dow >= 6,
			MonthName:         d.Month().String(),
			YearMonth:         d.Format("2006-01"),
			YearQuarter:       fmt.Sprintf("%d-Q%d", d.Year(), quarter),
			IsFirstDayOfMonth: d.Day() == 1,
			IsLastDayOfMonth:  lastOfMonth,
		})
	}
	return out
}
