package classification

import "sort"

// Partition splits labels into the five buckets and an unknown list. Every
// distinct input label lands in exactly one place.
type Partition struct {
	Known   map[Bucket][]string `json:"known"`
	Unknown []string            `json:"unknown"`
}

// Partition classifies labels against the snapshot.
func (s *Snapshot) Partition(labels []string) Partition {
	p := Partition{Known: make(map[Bucket][]string, len(Buckets()))}
	for _, b := range Buckets() {
		p.Known[b] = []string{}
	}

	seen := make(map[string]bool, len(labels))
	for _, label := range labels {
		if seen[label] {
			continue
		}
		seen[label] = true

		g := s.Resolve(label)
		if g == Unclassified {
			p.Unknown = append(p.Unknown, label)
			continue
		}
		p.Known[g.Bucket()] = append(p.Known[g.Bucket()], label)
	}

	for _, b := range Buckets() {
		sort.Strings(p.Known[b])
	}
	sort.Strings(p.Unknown)
	return p
}
