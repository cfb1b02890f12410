package model

import (
	"time"

	"PracticeLog/core/errs"
)

// GoalType names what a practice goal measures.
type GoalType string

// Goal types.
const (
	GoalDailyMinutes   GoalType = "daily_minutes"
	GoalWeeklyMinutes  GoalType = "weekly_minutes"
	GoalWeeklySessions GoalType = "weekly_sessions"
)

// maxTarget 各类目标的上限：一天的分钟数、一周的分钟数、一周的天数
var maxTarget = map[GoalType]int{
	GoalDailyMinutes:   MaxDuration,
	GoalWeeklyMinutes:  7 * MaxDuration,
	GoalWeeklySessions: 7,
}

// Valid reports whether t is a known goal type.
func (t GoalType) Valid() bool {
	_, ok := maxTarget[t]
	return ok
}

// Goal is a practice target of a user. At most one goal per type is active;
// deleted or replaced goals stay in the table with Active=false.
type Goal struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        GoalType  `json:"type"`
	TargetValue int       `json:"target_value"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// GoalCreate is the body of POST /goals.
type GoalCreate struct {
	Type        *GoalType `json:"type"`
	TargetValue *int      `json:"target_value"`
}

// Validate checks the declared field constraints.
func (c GoalCreate) Validate() error {
	v := &errs.ValidationError{}
	if c.Type == nil {
		v.Add("type", "field required")
	} else if !c.Type.Valid() {
		v.Add("type", "must be one of daily_minutes, weekly_minutes, weekly_sessions")
	}
	if c.TargetValue == nil {
		v.Add("target_value", "field required")
	} else if c.Type != nil && c.Type.Valid() {
		checkRange(v, "target_value", *c.TargetValue, 1, maxTarget[*c.Type])
	}
	return v.OrNil()
}

// ToGoal maps the request onto an active goal row owned by userID.
func (c GoalCreate) ToGoal(userID string) Goal {
	g := Goal{UserID: userID, Active: true}
	if c.Type != nil {
		g.Type = *c.Type
	}
	if c.TargetValue != nil {
		g.TargetValue = *c.TargetValue
	}
	return g
}

// GoalUpdate is the body of PUT /goals/{id}. The type of a goal is fixed once created.
type GoalUpdate struct {
	TargetValue Optional[int] `json:"target_value"`
}

// Validate checks target_value against the bounds of goalType.
func (u GoalUpdate) Validate(goalType GoalType) error {
	v := &errs.ValidationError{}
	if u.TargetValue.Set {
		if u.TargetValue.Null {
			v.Add("target_value", "may not be null")
		} else {
			checkRange(v, "target_value", u.TargetValue.Value, 1, maxTarget[goalType])
		}
	}
	return v.OrNil()
}

// Fields returns the column/value map of the present fields.
func (u GoalUpdate) Fields() map[string]any {
	fields := make(map[string]any)
	put(fields, "target_value", u.TargetValue)
	return fields
}

// GoalProgress is how far the current day or week is towards one goal.
type GoalProgress struct {
	Goal       Goal `json:"goal"`
	Current    int  `json:"current"`
	Percentage int  `json:"percentage"`
}

// GoalProgressReport is the response of GET /goals/progress.
type GoalProgressReport struct {
	Progress []GoalProgress `json:"progress"`
}
