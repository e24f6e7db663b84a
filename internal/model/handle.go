package model

import "fmt"

// Handle is a generation-checked reference to an actor slot in the world
// table. When a slot is reused the generation advances, so handles held
// across ticks (AI targets, inspect clients) go stale and resolve to nil
// instead of pointing at whoever took the slot over.
//
// The zero Handle never resolves and means "no actor".
type Handle struct {
	Index uint32
	Gen   uint32
}

// IsZero reports whether the handle is the "no actor" value.
func (h Handle) IsZero() bool {
	return h == Handle{}
}

// String returns "index:generation" for logs and the inspect endpoints.
func (h Handle) String() string {
	if h.IsZero() {
		return "none"
	}
	return fmt.Sprintf("%d:%d", h.Index, h.Gen)
}

// ParseHandle parses the "index:generation" form produced by String.
func ParseHandle(s string) (Handle, error) {
	if s == "none" || s == "" {
		return Handle{}, nil
	}
	var h Handle
	if _, err := fmt.Sscanf(s, "%d:%d", &h.Index, &h.Gen); err != nil {
		return Handle{}, fmt.Errorf("malformed actor handle %q", s)
	}
	return h, nil
}
