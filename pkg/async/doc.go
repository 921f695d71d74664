// Package async runs a computation in its own goroutine and lets the caller wait for it
// with a deadline, abandoning the computation when the deadline passes.
//
// Async derives a cancellable context for the callback and returns a *Future.
// Await blocks until completion, AwaitContext and AwaitWithTimeout stop waiting early and
// cancel the callback's context so a cooperative callback can return. The goroutine is never
// killed: cancellation is best effort and a callback ignoring its context keeps running until
// it returns on its own.
//
// Panics raised by the callback are recovered and reported through the Future as an error
// wrapping ErrPanic.
//
// # Usage
//
//	future := async.Async(ctx, job, func(ctx context.Context, j *Job) (struct{}, error) {
//	    return struct{}{}, handle(ctx, j)
//	})
//
//	if _, err := future.AwaitWithTimeout(30 * time.Second); errors.Is(err, async.ErrTimeout) {
//	    // the slot is free again, the callback was asked to stop
//	}
package async
