package domain

import "time"

// Entry is the persisted form of a scope-less (session) feedback message.
// Entries carry no origin node, so they survive across turns and trees.
type Entry struct {
	Seq      uint64    `json:"seq" yaml:"seq"`
	Level    Level     `json:"level" yaml:"level"`
	Text     string    `json:"text" yaml:"text"`
	Time     time.Time `json:"time" yaml:"time"`
	Rendered bool      `json:"rendered,omitempty" yaml:"rendered,omitempty"`
}

// LastSeq returns the highest sequence number among entries, or 0.
func LastSeq(entries []Entry) uint64 {
	var last uint64
	for _, e := range entries {
		if e.Seq > last {
			last = e.Seq
		}
	}
	return last
}
