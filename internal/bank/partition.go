package bank

// Group is the ordered set of records sharing one chapter label.
type Group struct {
	Label     string
	Questions []Question
}

// Partition groups records by chapter label. Records without a label are
// filed under fallback. Groups appear in first-seen order and keep the input
// order of their records.
func Partition(qs []Question, fallback string) []Group {
	var groups []Group
	pos := make(map[string]int)

	for _, q := range qs {
		label := q.Chapter()
		if label == "" {
			label = fallback
		}
		i, ok := pos[label]
		if !ok {
			i = len(groups)
			pos[label] = i
			groups = append(groups, Group{Label: label})
		}
		groups[i].Questions = append(groups[i].Questions, q)
	}
	return groups
}
