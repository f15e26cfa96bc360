// Package mapreduce tallies keywords across a batch of extractions.
package mapreduce

import "strings"

// Map counts the keywords of one extraction. Each keyword counts once,
// case-insensitively.
func Map(keywords []string) map[string]int {
	counts := make(map[string]int, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		counts[kw] = 1
	}
	return counts
}

// Reduce aggregates a slice of keyword count maps into a single map.
func Reduce(intermediate []map[string]int) map[string]int {
	final := make(map[string]int)
	for _, counts := range intermediate {
		for word, count := range counts {
			final[word] += count
		}
	}
	return final
}
