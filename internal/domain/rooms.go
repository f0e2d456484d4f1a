package domain

import (
	"fmt"
	"strings"
)

// RoomSelection is a non-empty, duplicate-free list of room ids in booking order.
type RoomSelection struct {
	ids []string
}

func NewRoomSelection(ids []string) (RoomSelection, error) {
	if len(ids) == 0 {
		return RoomSelection{}, ErrEmptySelection
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return RoomSelection{}, fmt.Errorf("%w: room ids must not be blank", ErrInvalidRoomID)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return RoomSelection{ids: out}, nil
}

func (s RoomSelection) IDs() []string {
	return append([]string(nil), s.ids...)
}

func (s RoomSelection) Len() int { return len(s.ids) }

func (s RoomSelection) Has(id string) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Add returns a selection including id; adding a present room is a no-op.
func (s RoomSelection) Add(id string) (RoomSelection, error) {
	if strings.TrimSpace(id) == "" {
		return RoomSelection{}, fmt.Errorf("%w: room id must not be blank", ErrInvalidRoomID)
	}
	if s.Has(id) {
		return s, nil
	}
	out := make([]string, 0, len(s.ids)+1)
	out = append(out, s.ids...)
	return RoomSelection{ids: append(out, id)}, nil
}

// Remove returns a selection without id; the last room cannot be removed.
func (s RoomSelection) Remove(id string) (RoomSelection, error) {
	out := make([]string, 0, len(s.ids))
	for _, v := range s.ids {
		if v != id {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return RoomSelection{}, ErrEmptySelection
	}
	return RoomSelection{ids: out}, nil
}

// Equal compares as sets.
func (s RoomSelection) Equal(o RoomSelection) bool {
	if len(s.ids) != len(o.ids) {
		return false
	}
	for _, id := range s.ids {
		if !o.Has(id) {
			return false
		}
	}
	return true
}
