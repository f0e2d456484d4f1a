package domain

// Entity is implemented by aggregates that compare by identity.
type Entity interface {
	ID() string
}

func SameIdentity(a, b Entity) bool {
	if a == nil || b == nil {
		return false
	}
	return a.ID() != "" && a.ID() == b.ID()
}
