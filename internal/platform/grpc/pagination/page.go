// Package pagination normalizes offset/limit windows for list endpoints.
package pagination

// Config bounds page sizes.
type Config struct {
	Default int
	Max     int
}

// Window is a normalized [Offset, Offset+Limit) slice of a result set.
type Window struct {
	Offset int
	Limit  int
}

// ClampPageSize applies defaults and limits to a requested page size.
func ClampPageSize(value int32, cfg Config) int {
	size := int(value)
	if size <= 0 {
		size = cfg.Default
	}
	if cfg.Max > 0 && size > cfg.Max {
		size = cfg.Max
	}
	if size <= 0 {
		size = 1
	}
	return size
}

// Normalize returns a window with a non-negative offset and a clamped limit.
func Normalize(offset, limit int32, cfg Config) Window {
	return Window{Offset: max(int(offset), 0), Limit: ClampPageSize(limit, cfg)}
}

// Apply returns the part of items covered by w.
func Apply[T any](items []T, w Window) []T {
	if w.Offset >= len(items) {
		return nil
	}
	end := min(w.Offset+w.Limit, len(items))
	return items[w.Offset:end]
}
