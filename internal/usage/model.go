package usage

import "time"

// Usage represents a user's AI consumption snapshot.
type Usage struct {
	Plan     string    `json:"plan"`
	Limit    int       `json:"limit"`
	Used     int       `json:"used"`
	ResetsAt time.Time `json:"resetsAt"`
}

// Remaining is the number of units left in the current period, or -1 when
// the plan is unlimited.
func (u Usage) Remaining() int {
	if u.Limit <= 0 {
		return -1
	}
	if u.Used >= u.Limit {
		return 0
	}
	return u.Limit - u.Used
}

// Policy is the quota every user gets. A zero Limit disables enforcement.
type Policy struct {
	Plan   string
	Limit  int
	Period time.Duration
}

// DefaultPolicy allows 200 model calls per 30 days.
var DefaultPolicy = Policy{Plan: "free", Limit: 200, Period: 30 * 24 * time.Hour}

func (p Policy) normalized() Policy {
	if p.Plan == "" {
		p.Plan = DefaultPolicy.Plan
	}
	if p.Period <= 0 {
		p.Period = DefaultPolicy.Period
	}
	if p.Limit < 0 {
		p.Limit = 0
	}
	return p
}

// fresh returns an empty counter for a period starting at now.
func (p Policy) fresh(now time.Time) Usage {
	return Usage{Plan: p.Plan, Limit: p.Limit, ResetsAt: now.Add(p.Period)}
}

// roll zeroes u when its period has ended and stamps the current limit.
func (p Policy) roll(u Usage, now time.Time) (Usage, bool) {
	u.Limit = p.Limit
	if u.Plan == "" {
		u.Plan = p.Plan
	}
	if !now.Before(u.ResetsAt) {
		u.Used = 0
		u.ResetsAt = now.Add(p.Period)
		return u, true
	}
	return u, false
}

func (p Policy) allows(u Usage, n int) bool {
	return p.Limit <= 0 || u.Used+n <= p.Limit
}
