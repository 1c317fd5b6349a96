package feedback

import (
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/tree"
)

type storeKey struct{}

// Attach makes s the store of every node under page. Node kinds reach it
// with StoreOf, or report directly through Report.
func Attach(page tree.Component, s *Store) {
	page.AsNode().SetMeta(storeKey{}, s)
}

// StoreOf returns the store attached to c or its nearest ancestor.
func StoreOf(c tree.Component) (*Store, bool) {
	v, ok := c.AsNode().InheritedMeta(storeKey{})
	if !ok {
		return nil, false
	}
	s, ok := v.(*Store)
	return s, ok
}

// Report reports against c in the store of its tree. It returns nil when no
// store is attached.
func Report(c tree.Component, level domain.Level, text string) *Message {
	s, ok := StoreOf(c)
	if !ok {
		return nil
	}
	return s.Report(c, level, text)
}

// Info reports an INFO message against c. See Report.
func Info(c tree.Component, text string) *Message {
	return Report(c, domain.LevelInfo, text)
}

// Warn reports a WARNING message against c. See Report.
func Warn(c tree.Component, text string) *Message {
	return Report(c, domain.LevelWarning, text)
}

// Error reports an ERROR message against c. See Report.
func Error(c tree.Component, text string) *Message {
	return Report(c, domain.LevelError, text)
}
