package hypervisor

import "context"

type result[T any] struct {
	val T
	err error
}

// Await runs an operation that reports completion through a callback and
// blocks until the callback fires or ctx is done.
//
// Every call gets its own one-shot channel; the callback is its only
// producer. A second invocation of the callback is dropped.
func Await[T any](ctx context.Context, op func(done func(T, error))) (T, error) {
	ch := make(chan result[T], 1)
	op(func(v T, err error) {
		select {
		case ch <- result[T]{val: v, err: err}:
		default:
		}
	})

	select {
	case r := <-ch:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// AwaitErr is Await for operations whose completion only carries an error.
func AwaitErr(ctx context.Context, op func(done func(error))) error {
	_, err := Await(ctx, func(done func(struct{}, error)) {
		op(func(err error) { done(struct{}{}, err) })
	})
	return err
}
