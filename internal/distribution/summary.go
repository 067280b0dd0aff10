package distribution

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/stemsi/exstem-distributor/internal/model"
)

const (
	deadlineDisplayLayout = "Jan 02, 2006 15:04"
	noDeadline            = "No deadline"
	defaultActivityType   = "Quiz"
	defaultTimeLimit      = 60
)

// Deadlines arrive from a datetime-local input; seconds are optional and a
// fractional part after them is accepted by time.Parse.
var deadlineLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05"}

// FormatDeadline renders a stored deadline for display. Text that is not a
// local date-time is returned unchanged.
func FormatDeadline(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return noDeadline
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(deadlineDisplayLayout)
		}
	}
	return raw
}

// BuildSummary groups submissions into distribution batches keyed by exam
// name, activity type, time limit and deadline. Batches are ordered by their
// most recent submission; never-submitted batches come last.
func BuildSummary(subs []model.Submission) []model.DistributionSummary {
	sorted := slices.Clone(subs)
	slices.SortStableFunc(sorted, func(a, b model.Submission) int {
		switch {
		case a.SubmittedAt == nil && b.SubmittedAt == nil:
			return 0
		case a.SubmittedAt == nil:
			return 1
		case b.SubmittedAt == nil:
			return -1
		default:
			return b.SubmittedAt.Compare(*a.SubmittedAt)
		}
	})

	out := []model.DistributionSummary{}
	index := map[string]int{}
	for _, s := range sorted {
		if strings.TrimSpace(s.ExamName) == "" {
			continue
		}
		deadline := PayloadDeadline(s.AnswerDetails)
		key := strings.Join([]string{s.ExamName, s.ActivityType, strconv.Itoa(s.TimeLimit), deadline}, "|")

		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, model.DistributionSummary{
				ExamName:     s.ExamName,
				Subject:      s.Subject,
				ActivityType: cmp.Or(s.ActivityType, defaultActivityType),
				TimeLimit:    cmp.Or(max(s.TimeLimit, 0), defaultTimeLimit),
				Deadline:     FormatDeadline(deadline),
				DeadlineRaw:  deadline,
			})
		}
		out[i].AssignedCount++
		if IsCompleted(s) {
			out[i].SubmittedCount++
		}
	}

	for i := range out {
		out[i].NotSubmittedCount = max(0, out[i].AssignedCount-out[i].SubmittedCount)
	}
	return out
}

// MatchesBatch reports whether s belongs to the batch identified by the
// exact exam name, activity type, time limit and trimmed deadline.
func MatchesBatch(s model.Submission, req model.DeleteBatchRequest) bool {
	return s.ExamName == req.ExamName &&
		s.ActivityType == req.ActivityType &&
		s.TimeLimit == req.TimeLimit &&
		strings.TrimSpace(PayloadDeadline(s.AnswerDetails)) == strings.TrimSpace(req.Deadline)
}

// Track classifies every enrolled student against the (optionally filtered)
// submissions of a subject. A student's first matching submission decides.
func Track(enrolled []model.EnrolledStudent, subs []model.Submission, f model.TrackerFilter) model.TrackerView {
	filtered := make([]model.Submission, 0, len(subs))
	for _, s := range subs {
		if filterMatches(f, s) {
			filtered = append(filtered, s)
		}
	}

	view := model.TrackerView{
		Submitted:    []model.TrackedStudent{},
		NotSubmitted: []model.TrackedStudent{},
		Queued:       []model.TrackedStudent{},
		Filtered:     f.ExamName != nil || f.ActivityType != nil || f.TimeLimit != nil || f.Deadline != nil,
	}

	for _, st := range enrolled {
		var match *model.Submission
		for i := range filtered {
			if strings.EqualFold(filtered[i].StudentEmail, st.StudentEmail) {
				match = &filtered[i]
				break
			}
		}

		item := model.TrackedStudent{
			StudentName:     st.StudentName,
			StudentEmail:    st.StudentEmail,
			ExamName:        deref(f.ExamName, ""),
			ActivityType:    deref(f.ActivityType, defaultActivityType),
			Deadline:        deref(f.Deadline, ""),
			LastSubmittedAt: "-",
		}
		if match != nil && match.SubmittedAt != nil {
			item.LastSubmittedAt = match.SubmittedAt.Format(time.RFC3339)
		}

		switch {
		case match != nil && IsCompleted(*match):
			view.Submitted = append(view.Submitted, item)
		case match != nil:
			view.NotSubmitted = append(view.NotSubmitted, item)
		default:
			view.Queued = append(view.Queued, item)
		}
	}

	view.SubmittedCount = len(view.Submitted)
	view.NotSubmittedCount = len(view.NotSubmitted)
	view.QueuedCount = len(view.Queued)
	view.TotalTracked = view.SubmittedCount + view.NotSubmittedCount + view.QueuedCount
	return view
}

func filterMatches(f model.TrackerFilter, s model.Submission) bool {
	if f.ExamName != nil && !strings.EqualFold(s.ExamName, *f.ExamName) {
		return false
	}
	if f.ActivityType != nil && !strings.EqualFold(s.ActivityType, *f.ActivityType) {
		return false
	}
	if f.TimeLimit != nil && s.TimeLimit != *f.TimeLimit {
		return false
	}
	if f.Deadline != nil && !strings.Contains(string(s.AnswerDetails), *f.Deadline) {
		return false
	}
	return true
}

func deref(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}
