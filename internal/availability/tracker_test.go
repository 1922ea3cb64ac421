package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerRejectsStaleCommit(t *testing.T) {
	tr := NewTracker()
	slow := tr.Begin("car:1")
	fast := tr.Begin("car:1")

	assert.True(t, tr.Commit("car:1", fast))
	assert.False(t, tr.Commit("car:1", slow))
	assert.Equal(t, fast, tr.Latest("car:1"))
}

func TestTrackerKeysAreIndependent(t *testing.T) {
	tr := NewTracker()
	a := tr.Begin("car:1")
	b := tr.Begin("car:2")
	assert.True(t, tr.Commit("car:1", a))
	assert.True(t, tr.Commit("car:2", b))
}

func TestTrackerSupersedeDropsInFlight(t *testing.T) {
	tr := NewTracker()
	inflight := tr.Begin("transport:9")
	tr.Supersede("transport:9")
	assert.False(t, tr.Commit("transport:9", inflight))

	next := tr.Begin("transport:9")
	assert.True(t, tr.Commit("transport:9", next))
}
