package analytics

import (
	"sort"

	"github.com/google/uuid"
	"github.com/vaais251/studytimer-api/internal/models"
)

// UntaggedCategory is the bucket for sessions whose task carries no tags,
// or which have no task at all.
const UntaggedCategory = "untagged"

// CategoryTotal is one row of a tag rollup, sorted descending by minutes.
type CategoryTotal struct {
	Tag          string  `json:"tag"`
	DisplayName  string  `json:"display_name"`
	TotalMinutes float64 `json:"total_minutes"`
	Sessions     int     `json:"sessions"`
	AvgPerDay    float64 `json:"avg_per_day"`
	Percent      float64 `json:"percent"`
}

// TagRollup is the output of RollUpTags.
type TagRollup struct {
	Categories      []CategoryTotal `json:"categories"`
	UntaggedMinutes float64         `json:"untagged_minutes"`
	WindowMinutes   float64         `json:"window_minutes"`
	Days            int             `json:"days"`
}

// RollUpTags attributes each in-window session's full duration to every tag
// of its parent task. Time is deliberately not split across tags: a task
// tagged both "math" and "exam" counts its sessions fully toward each, so
// category totals can sum to more than the window's logged time. Sessions
// without a tagged task accumulate in the untagged bucket.
//
// Percent is each category's share of the window's total logged minutes
// (tagged and untagged alike); AvgPerDay divides by the window's inclusive
// day count.
func RollUpTags(tasks []*models.Task, sessions []*models.PomodoroSession, r Range) TagRollup {
	rollup := TagRollup{Categories: []CategoryTotal{}, Days: r.Days()}
	if r.IsEmpty() {
		return rollup
	}

	tagsByTask := make(map[uuid.UUID][]string, len(tasks))
	for _, task := range tasks {
		tagsByTask[task.ID] = models.NormalizeTags(task.Tags)
	}

	totals := make(map[string]*CategoryTotal)
	for _, session := range sessions {
		if !r.Contains(session.EndedAt) {
			continue
		}
		minutes := session.Minutes()
		rollup.WindowMinutes += minutes

		var tags []string
		if session.TaskID != nil {
			tags = tagsByTask[*session.TaskID]
		}
		if len(tags) == 0 {
			rollup.UntaggedMinutes += minutes
			continue
		}
		for _, tag := range tags {
			total, ok := totals[tag]
			if !ok {
				total = &CategoryTotal{Tag: tag, DisplayName: models.DisplayTag(tag)}
				totals[tag] = total
			}
			total.TotalMinutes += minutes
			total.Sessions++
		}
	}

	for _, total := range totals {
		if rollup.Days > 0 {
			total.AvgPerDay = total.TotalMinutes / float64(rollup.Days)
		}
		if rollup.WindowMinutes > 0 {
			total.Percent = total.TotalMinutes / rollup.WindowMinutes * 100
		}
		rollup.Categories = append(rollup.Categories, *total)
	}

	sort.Slice(rollup.Categories, func(i, j int) bool {
		a, b := rollup.Categories[i], rollup.Categories[j]
		if a.TotalMinutes != b.TotalMinutes {
			return a.TotalMinutes > b.TotalMinutes
		}
		return a.Tag < b.Tag
	})

	return rollup
}
