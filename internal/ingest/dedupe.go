package ingest

// DedupeCapacity is how many recent payload ids are remembered
const DedupeCapacity = 1000

// Deduper admits each id at most once among the most recent ids it has seen
type Deduper struct {
	ring []string
	next int
	full bool
	seen map[string]struct{}
}

func NewDeduper(capacity int) *Deduper {
	capacity = max(capacity, 1)
	return &Deduper{
		ring: make([]string, capacity),
		seen: make(map[string]struct{}, capacity),
	}
}

// Admit reports whether uid is new and remembers it
func (d *Deduper) Admit(uid string) bool {
	if _, ok := d.seen[uid]; ok {
		return false
	}

	if d.full {
		delete(d.seen, d.ring[d.next])
	}
	d.ring[d.next] = uid
	d.seen[uid] = struct{}{}

	d.next++
	if d.next == len(d.ring) {
		d.next = 0
		d.full = true
	}
	return true
}

func (d *Deduper) Len() int {
	return len(d.seen)
}
