package bot

import (
	"context"
	"strconv"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Throttle ограничивает число событий от одного пользователя.
// По умолчанию: 30 событий в минуту.
type Throttle struct {
	instance *limiter.Limiter
}

func NewThrottle(limit int64, period time.Duration) *Throttle {
	if limit <= 0 {
		limit = 30
	}
	if period <= 0 {
		period = 1 * time.Minute
	}

	rate := limiter.Rate{
		Period: period,
		Limit:  limit,
	}
	return &Throttle{instance: limiter.New(memory.NewStore(), rate)}
}

// Allow учитывает событие и сообщает, укладывается ли пользователь в лимит.
func (t *Throttle) Allow(ctx context.Context, userID int64) (bool, error) {
	if t == nil {
		return true, nil
	}
	lctx, err := t.instance.Get(ctx, strconv.FormatInt(userID, 10))
	if err != nil {
		return false, err
	}
	return !lctx.Reached, nil
}
