// Package flock provides cross-platform file locking for state files.
//
// The platform files hold a non-blocking lock primitive that tells
// contention apart from real failures. Acquire retries on contention until
// a deadline and gives up at once on anything else.
//
// Usage:
//
//	lock, err := flock.Acquire(ctx, path+".lock", 5*time.Second)
//	if err != nil {
//	    return err // structerrors.ErrLockTimeout when the deadline passed
//	}
//	defer func() { _ = lock.Release() }()
package flock
