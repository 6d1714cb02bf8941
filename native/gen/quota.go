package gen

const secondsPerDay = 86400

// quotaState is the slice of the state manager the rate limiter needs.
type quotaState interface {
	RateCounterGet(addr [20]byte) (*RateCounter, bool, error)
	RateCounterPut(addr [20]byte, counter *RateCounter) error
	DailyLimit() (uint64, error)
}

// RateLimiter enforces the per-account daily generation quota. The counter
// resets lazily: the first attempt on a new quota day zeroes it before the
// limit check runs, so an idle account never needs a sweep job.
type RateLimiter struct {
	state quotaState
}

// NewRateLimiter constructs a limiter bound to the provided state backend.
func NewRateLimiter(state quotaState) *RateLimiter {
	return &RateLimiter{state: state}
}

// TryConsume attempts to record one generation request for addr at the given
// timestamp. It returns false, with no state change, when the account already
// used its full quota for the current day.
func (r *RateLimiter) TryConsume(addr [20]byte, now uint64) (bool, error) {
	currentDay := now / secondsPerDay
	counter, ok, err := r.state.RateCounterGet(addr)
	if err != nil {
		return false, err
	}
	if !ok || counter == nil {
		counter = &RateCounter{}
	}
	if currentDay > counter.LastResetDay {
		counter.CountToday = 0
		counter.LastResetDay = currentDay
	}
	limit, err := r.state.DailyLimit()
	if err != nil {
		return false, err
	}
	if counter.CountToday >= limit {
		return false, nil
	}
	counter.CountToday++
	if err := r.state.RateCounterPut(addr, counter); err != nil {
		return false, err
	}
	return true, nil
}

// Remaining reports the requests addr can still make today without mutating
// the counter. A day rollover is applied virtually.
func (r *RateLimiter) Remaining(addr [20]byte, now uint64) (uint64, error) {
	limit, err := r.state.DailyLimit()
	if err != nil {
		return 0, err
	}
	used, err := r.UsedToday(addr, now)
	if err != nil {
		return 0, err
	}
	if used >= limit {
		return 0, nil
	}
	return limit - used, nil
}

// UsedToday reports how many requests addr made within the current quota day.
func (r *RateLimiter) UsedToday(addr [20]byte, now uint64) (uint64, error) {
	counter, ok, err := r.state.RateCounterGet(addr)
	if err != nil {
		return 0, err
	}
	if !ok || counter == nil {
		return 0, nil
	}
	if now/secondsPerDay > counter.LastResetDay {
		return 0, nil
	}
	return counter.CountToday, nil
}
