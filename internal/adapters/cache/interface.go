package cache

type hitResult[T any] struct {
	data    T
	valid   bool
	claimed bool
}

// Cache de-duplicates concurrent creation of the same key.
// A claimed entry is invalid until the claimer sets or deletes it.
type Cache[T any] interface {
	getOrClaim(key string) hitResult[T]
	set(key string, data T)
	delete(key string)
	wait()
}
