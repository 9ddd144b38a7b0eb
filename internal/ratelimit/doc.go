// Package ratelimit содержит семейство rate-limit governor'ов.
//
// # Обзор
//
// Governor отвечает на вопрос "можно выполнить вызов сейчас или нужно подождать?"
// и ведёт учёт использования. Используется в двух местах:
//   - provider-wide governor — проверяется перед каждой task
//   - governor конкретного action — проверяется после lookup
//
// # Интерфейс
//
//	type Governor interface {
//	    Check(ctx context.Context, req *Request) (Decision, error)
//	    Throttle(ctx context.Context, wait time.Duration) error
//	}
//
// Check — атомарная проверка с допуском: если Decision.Limited == false,
// вызов уже учтён в счётчиках. Throttle — единственная блокирующая точка,
// прерывается отменой ctx.
//
// Guard объединяет Check, Throttle, вызов и учёт времени:
//
//	out, err := ratelimit.Guard(ctx, g, nil, func(ctx context.Context) (*Report, error) {
//	    return api.Fetch(ctx)
//	})
//
// # Стратегии
//
//   - Noop — никогда не ограничивает
//   - TimeBased — минимальная пауза между вызовами
//   - Threshold — жёсткий лимит вызовов в секунду + предупреждения в логах
//     при достижении warning/critical доли лимита
//   - SlidingWindow — не более N вызовов за окно
//   - TokenBucket — token bucket на golang.org/x/time/rate
//   - RedisWindow — скользящее окно в Redis, общее для нескольких воркеров
//   - Dynamic — обёртка, позволяющая сменить стратегию во время работы
//
// Стратегии с состоянием держат мьютекс только на время
// "прочитать счётчики → решить → обновить". Throttle никогда не спит под блокировкой.
//
// # Конфигурация
//
// New(Config) создаёт governor по имени стратегии:
//
//	RATE_LIMIT_STRATEGY=window RATE_LIMIT_MAX_REQUESTS=3 RATE_LIMIT_WINDOW=60
package ratelimit
