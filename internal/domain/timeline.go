package domain

import "time"

// Виды событий таймлайна.
const (
	TimelineCommit  = "COMMIT"
	TimelineReview  = "REVIEW"
	TimelineComment = "COMMENT"
	TimelineMerged  = "MERGED"
)

// TimelineEvent представляет одно событие в каузально упорядоченном
// таймлайне рабочего элемента. Offset отсчитывается от момента открытия PR.
type TimelineEvent struct {
	Offset  time.Duration
	At      time.Time
	Kind    string
	Payload any
}
