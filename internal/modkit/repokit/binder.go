package repokit

// Binder builds a repo over a Queryer. The ingest worker binds the inbox repo once over the pool
// and again over each transaction that persists a message's documents.
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc adapts a constructor such as a test fake to Binder
type BindFunc[T any] func(Queryer) T

func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// RequireQueryer panics on a nil Queryer, which means a transaction or pool was never opened
func RequireQueryer(q Queryer) Queryer {
	if q == nil {
		panic("repokit: bind on nil Queryer (store opened without postgres?)")
	}
	return q
}

// MustBind binds b over q after RequireQueryer
func MustBind[T any](b Binder[T], q Queryer) T {
	return b.Bind(RequireQueryer(q))
}
