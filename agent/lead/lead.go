// Package lead holds the education sales-qualification call: the nine lead
// fields collected in any order and the end-of-call summary.
package lead

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/record"
)

type Field string

const (
	FieldName               Field = "name"
	FieldCurrentStatus      Field = "current_status"
	FieldTargetExam         Field = "target_exam"
	FieldTargetYear         Field = "target_year"
	FieldContact            Field = "contact"
	FieldBackground         Field = "background"
	FieldCurrentPreparation Field = "current_preparation"
	FieldWeakAreas          Field = "weak_areas"
	FieldTimeline           Field = "timeline"
)

var Fields = []Field{
	FieldName,
	FieldCurrentStatus,
	FieldTargetExam,
	FieldTargetYear,
	FieldContact,
	FieldBackground,
	FieldCurrentPreparation,
	FieldWeakAreas,
	FieldTimeline,
}

// Lead is one caller's qualification record. Nil means not collected yet and
// is written as null.
type Lead struct {
	Name               *string `json:"name"`
	CurrentStatus      *string `json:"current_status"`
	TargetExam         *string `json:"target_exam"`
	TargetYear         *string `json:"target_year"`
	Contact            *string `json:"contact"`
	Background         *string `json:"background"`
	CurrentPreparation *string `json:"current_preparation"`
	WeakAreas          *string `json:"weak_areas"`
	Timeline           *string `json:"timeline"`
}

func (l *Lead) slot(f Field) (**string, bool) {
	switch f {
	case FieldName:
		return &l.Name, true
	case FieldCurrentStatus:
		return &l.CurrentStatus, true
	case FieldTargetExam:
		return &l.TargetExam, true
	case FieldTargetYear:
		return &l.TargetYear, true
	case FieldContact:
		return &l.Contact, true
	case FieldBackground:
		return &l.Background, true
	case FieldCurrentPreparation:
		return &l.CurrentPreparation, true
	case FieldWeakAreas:
		return &l.WeakAreas, true
	case FieldTimeline:
		return &l.Timeline, true
	default:
		return nil, false
	}
}

// Set stores a trimmed value; the last write wins.
func (l *Lead) Set(f Field, value string) (string, error) {
	slot, ok := l.slot(f)
	if !ok {
		return "", fmt.Errorf("%w: unknown lead field %q", contractx.ErrInvalidArgument, f)
	}
	v := strings.TrimSpace(value)
	if v == "" {
		return "", fmt.Errorf("%w: %s is empty", contractx.ErrInvalidArgument, f)
	}
	*slot = &v
	return v, nil
}

func (l *Lead) Get(f Field) (string, bool) {
	slot, ok := l.slot(f)
	if !ok || *slot == nil {
		return "", false
	}
	return **slot, true
}

func (l *Lead) Filled() int {
	n := 0
	for _, f := range Fields {
		if _, ok := l.Get(f); ok {
			n++
		}
	}
	return n
}

// Recap builds the spoken recap from the filled fields in narrative order.
// Contact, background and preparation are saved but not read back.
func (l *Lead) Recap() string {
	narrative := []struct {
		field  Field
		format string
	}{
		{FieldName, "We spoke with %s"},
		{FieldCurrentStatus, "who is currently %s"},
		{FieldTargetExam, "and targeting %s"},
		{FieldTargetYear, "for the %s attempt"},
		{FieldWeakAreas, "with weaker areas in %s"},
		{FieldTimeline, "and plans to join %s"},
	}

	parts := make([]string, 0, len(narrative))
	for _, n := range narrative {
		if v, ok := l.Get(n.field); ok {
			parts = append(parts, fmt.Sprintf(n.format, v))
		}
	}
	if len(parts) == 0 {
		return "We had a detailed discussion about your preparation for competitive exams"
	}
	return strings.Join(parts, ". ")
}

type Summary struct {
	Timestamp string `json:"timestamp"`
	Company   string `json:"company"`
	LeadInfo  Lead   `json:"lead_info"`
}

type Finalized struct {
	Summary Summary
	Path    string
	Recap   string
}

// Finalize writes the full field set, filled or not, to a new timestamped file
// under dir. The recap is always produced; a write failure is returned next
// to it wrapped in ErrPersist.
func (l *Lead) Finalize(dir, company string, now time.Time) (Finalized, error) {
	out := Finalized{
		Summary: Summary{
			Timestamp: now.Format("2006-01-02T15:04:05"),
			Company:   company,
			LeadInfo:  l.clone(),
		},
		Recap: l.Recap(),
	}

	path, err := record.WriteTimestamped(dir, "lead", now, out.Summary)
	if err != nil {
		return out, fmt.Errorf("%w: %v", contractx.ErrPersist, err)
	}
	out.Path = path
	return out, nil
}

func (l *Lead) clone() Lead {
	var c Lead
	for _, f := range Fields {
		if v, ok := l.Get(f); ok {
			_, _ = c.Set(f, v)
		}
	}
	return c
}
