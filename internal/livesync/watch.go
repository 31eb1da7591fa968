package livesync

import "context"

// Update canlı sorgunun bir teslimatı. Yeniden yükleme başarısızsa Err dolu,
// sorgu çalışmaya devam eder.
type Update[T any] struct {
	Value T
	Err   error
}

type Loader[T any] func(ctx context.Context) (T, error)

// Watch load sonucunu hemen ve konulardaki her sinyal patlamasından sonra
// tekrar teslim eder. Yükleme sürerken gelen sinyaller tek bir yüklemede
// birleşir. ctx bitince kanal kapanır.
func Watch[T any](ctx context.Context, bus *Bus, load Loader[T], topics ...Topic) <-chan Update[T] {
	out := make(chan Update[T])
	// önce abone ol, sonra oku: ilk okuma ile abonelik arasında sinyal kaçmasın
	signals, cancel := bus.Subscribe(topics...)

	go func() {
		defer close(out)
		defer cancel()

		for {
			v, err := load(ctx)
			if ctx.Err() != nil {
				return
			}
			select {
			case out <- Update[T]{Value: v, Err: err}:
			case <-ctx.Done():
				return
			}

			select {
			case <-ctx.Done():
				return
			case _, ok := <-signals:
				if !ok {
					return
				}
			}
			if !drain(signals) {
				return
			}
		}
	}()

	return out
}

// drain tampondaki sinyalleri boşaltır, kanal kapandıysa false.
func drain(ch <-chan Signal) bool {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return false
			}
		default:
			return true
		}
	}
}
