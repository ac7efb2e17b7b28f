package events

import "time"

type InterviewBookedV1 struct {
	InterviewID      string    `json:"interview_id"`
	CandidateID      string    `json:"candidate_id"`
	Kind             string    `json:"kind"`
	ScheduledAt      time.Time `json:"scheduled_at"`
	DurationMinutes  int       `json:"duration_minutes"`
	ConfirmationCode string    `json:"confirmation_code"`
}

func (InterviewBookedV1) EventType() string { return "interview.booked.v1" }

type InterviewCompletedV1 struct {
	InterviewID string    `json:"interview_id"`
	CandidateID string    `json:"candidate_id"`
	Kind        string    `json:"kind"`
	ScheduledAt time.Time `json:"scheduled_at"`
	CompletedAt time.Time `json:"completed_at"`
}

func (InterviewCompletedV1) EventType() string { return "interview.completed.v1" }

type InterviewLapsedV1 struct {
	InterviewID string    `json:"interview_id"`
	CandidateID string    `json:"candidate_id"`
	Kind        string    `json:"kind"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

func (InterviewLapsedV1) EventType() string { return "interview.lapsed.v1" }

type InterviewResolvedV1 struct {
	InterviewID string `json:"interview_id"`
	CandidateID string `json:"candidate_id"`
	NewStatus   string `json:"new_status"`
	Reason      string `json:"reason,omitempty"`
}

func (InterviewResolvedV1) EventType() string { return "interview.resolved.v1" }

type InterviewCancelledV1 struct {
	InterviewID string `json:"interview_id"`
	CandidateID string `json:"candidate_id"`
	Reason      string `json:"reason,omitempty"`
}

func (InterviewCancelledV1) EventType() string { return "interview.cancelled.v1" }

type LinkExpiredV1 struct {
	LinkID      string    `json:"link_id"`
	CandidateID string    `json:"candidate_id"`
	Kind        string    `json:"kind"`
	ExpiredAt   time.Time `json:"expired_at"`
}

func (LinkExpiredV1) EventType() string { return "link.expired.v1" }

type CandidateWithdrawnV1 struct {
	CandidateID string `json:"candidate_id"`
	Reason      string `json:"reason"`
}

func (CandidateWithdrawnV1) EventType() string { return "candidate.withdrawn.v1" }
