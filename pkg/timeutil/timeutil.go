package timeutil

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// durationRe разбирает строки вида "1h30m", "1.5h", "30m", "1ч30м".
// Часовая и минутная части опциональны, но хотя бы одна должна присутствовать.
var durationRe = regexp.MustCompile(`^(?:(\d+(?:[.,]\d+)?)\s*(?:h|ч))?\s*(?:(\d+)\s*(?:m|м))?$`)

// bareNumberRe - число без единицы измерения трактуется как часы ("2" = 2 часа)
var bareNumberRe = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)

// ParseDuration переводит строку длительности в целые минуты.
// Поддерживает "1h", "1.5h", "30m", "1h30m", русские единицы "ч"/"м"
// и число без единицы (часы). Нераспознанная строка - ошибка.
func ParseDuration(input string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return 0, fmt.Errorf("пустая строка длительности")
	}

	if bareNumberRe.MatchString(s) {
		hours, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil {
			return 0, fmt.Errorf("не удалось разобрать длительность %q", input)
		}
		return int(math.Round(hours * 60)), nil
	}

	matches := durationRe.FindStringSubmatch(s)
	if matches == nil || (matches[1] == "" && matches[2] == "") {
		return 0, fmt.Errorf("не удалось разобрать длительность %q", input)
	}

	total := 0.0
	if matches[1] != "" {
		hours, err := strconv.ParseFloat(strings.ReplaceAll(matches[1], ",", "."), 64)
		if err != nil {
			return 0, fmt.Errorf("не удалось разобрать часы в %q", input)
		}
		total += hours * 60
	}
	if matches[2] != "" {
		minutes, err := strconv.Atoi(matches[2])
		if err != nil {
			return 0, fmt.Errorf("не удалось разобрать минуты в %q", input)
		}
		total += float64(minutes)
	}

	return int(math.Round(total)), nil
}

// FormatMinutes форматирует минуты как "2ч 30м"
func FormatMinutes(minutes int) string {
	hours := minutes / 60
	mins := minutes % 60

	if hours > 0 && mins > 0 {
		return fmt.Sprintf("%dч %dм", hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dч", hours)
	}
	return fmt.Sprintf("%dм", mins)
}

// MinutesBetween возвращает прошедшие минуты, округленные от секунд
func MinutesBetween(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Seconds() / 60))
}

// DateOnly отбрасывает время, оставляя календарную дату
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ReturnAt вычисляет ожидаемое время возвращения
func ReturnAt(start time.Time, plannedMinutes int) time.Time {
	return start.Add(time.Duration(plannedMinutes) * time.Minute)
}

// ParseTimeOfDay разбирает "18:30" в минуты от полуночи
func ParseTimeOfDay(input string) (int, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("не удалось разобрать время %q (ожидается ЧЧ:ММ)", input)
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

// ParseDate разбирает дату в формате "02.01.2006"
func ParseDate(input string) (time.Time, error) {
	parsed, err := time.ParseInLocation("02.01.2006", strings.TrimSpace(input), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("не удалось разобрать дату %q (ожидается ДД.ММ.ГГГГ)", input)
	}
	return parsed, nil
}

// WorkingDaysBetween считает рабочие дни в периоде включительно, без суббот и воскресений
func WorkingDaysBetween(start, end time.Time) int {
	start = DateOnly(start)
	end = DateOnly(end)
	if end.Before(start) {
		return 0
	}

	count := 0
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		if date.Weekday() != time.Saturday && date.Weekday() != time.Sunday {
			count++
		}
	}
	return count
}
