package service

// workflow lists, per status, the statuses an item may move to next.
type workflow map[string][]string

func (w workflow) known(status string) bool {
	_, ok := w[status]
	return ok
}

func (w workflow) allows(from, to string) bool {
	for _, next := range w[from] {
		if next == to {
			return true
		}
	}
	return false
}
