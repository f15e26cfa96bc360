package mapreduce

import (
	"fmt"
	"sort"
)

// TopKeywords returns the n most common keywords formatted as
// "keyword:count", ties broken alphabetically.
func TopKeywords(counts map[string]int, n int) []string {
	type kv struct {
		Key   string
		Value int
	}

	ss := make([]kv, 0, len(counts))
	for k, v := range counts {
		ss = append(ss, kv{k, v})
	}
	sort.Slice(ss, func(i, j int) bool {
		if ss[i].Value != ss[j].Value {
			return ss[i].Value > ss[j].Value
		}
		return ss[i].Key < ss[j].Key
	})

	limit := min(max(n, 0), len(ss))
	keywords := make([]string, limit)
	for i := 0; i < limit; i++ {
		keywords[i] = fmt.Sprintf("%s:%d", ss[i].Key, ss[i].Value)
	}
	return keywords
}
