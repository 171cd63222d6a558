package view

// DefaultVisibilityThreshold is the share of a card that must be on screen
// before it is marked visible.
const DefaultVisibilityThreshold = 0.1

// Animator marks cards visible the first time enough of them scrolls into
// the viewport. Marks are one-way. It only drives styling; nothing reads it
// to decide what data to show.
type Animator struct {
	threshold float64
	observed  map[string]bool
	visible   map[string]bool
	onVisible func(key string)
	closed    bool
}

// NewAnimator creates an animator. A threshold outside (0, 1] falls back to
// DefaultVisibilityThreshold.
func NewAnimator(threshold float64) *Animator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultVisibilityThreshold
	}
	return &Animator{
		threshold: threshold,
		observed:  make(map[string]bool),
		visible:   make(map[string]bool),
	}
}

// OnVisible registers a callback fired once per key when it becomes visible.
func (a *Animator) OnVisible(fn func(key string)) {
	a.onVisible = fn
}

func (a *Animator) Threshold() float64 {
	return a.threshold
}

// Observe registers key. Observing after Close is a no-op.
func (a *Animator) Observe(key string) {
	if a.closed {
		return
	}
	a.observed[key] = true
}

// Unobserve stops watching key without hiding it.
func (a *Animator) Unobserve(key string) {
	delete(a.observed, key)
}

// Intersect reports the current intersection ratio of key with the viewport.
// It returns true only on the call that makes key visible.
func (a *Animator) Intersect(key string, ratio float64) bool {
	if a.closed || !a.observed[key] || a.visible[key] {
		return false
	}
	if ratio <= 0 || ratio < a.threshold {
		return false
	}

	a.visible[key] = true
	// Once shown there is nothing left to watch.
	delete(a.observed, key)
	if a.onVisible != nil {
		a.onVisible(key)
	}
	return true
}

// Visible reports whether key has been marked.
func (a *Animator) Visible(key string) bool {
	return a.visible[key]
}

// Close deregisters everything. Further Observe and Intersect calls are
// ignored.
func (a *Animator) Close() {
	a.closed = true
	a.observed = make(map[string]bool)
}

// Ratio computes how much of a block of rows [top, top+height) lies inside
// the viewport [viewTop, viewTop+viewHeight).
func Ratio(top, height, viewTop, viewHeight int) float64 {
	if height <= 0 || viewHeight <= 0 {
		return 0
	}
	lo := max(top, viewTop)
	hi := min(top+height, viewTop+viewHeight)
	if hi <= lo {
		return 0
	}
	return float64(hi-lo) / float64(height)
}
