package selector_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/nps/pkg/format"
	"github.com/ja7ad/nps/pkg/selector"
)

func TestEmptySelectorMatchesEverything(t *testing.T) {
	s := selector.New()
	assert.True(t, s.Match(format.Fields{Pid: 42}))
}

func TestByPIDMatchesListedPidsOnly(t *testing.T) {
	s := selector.New()
	require.NoError(t, s.ByPID("1,2,3"))
	assert.True(t, s.Match(format.Fields{Pid: 2}))
	assert.False(t, s.Match(format.Fields{Pid: 4}))
}

func TestSelectionsCombineAsOR(t *testing.T) {
	s := selector.New()
	require.NoError(t, s.ByPID("1"))
	require.NoError(t, s.ByUID("500"))
	assert.True(t, s.Match(format.Fields{Pid: 1, EUid: 999}))
	assert.True(t, s.Match(format.Fields{Pid: 999, EUid: 500}))
	assert.False(t, s.Match(format.Fields{Pid: 999, EUid: 999}))
}

func TestByPIDRejectsGarbage(t *testing.T) {
	s := selector.New()
	assert.Error(t, s.ByPID("not-a-pid"))
}

func TestIsAncestorTreatsPidAsItsOwnAncestor(t *testing.T) {
	s := selector.New()
	alwaysFalse := func(candidate, ancestor int) bool { return false }
	s.IsAncestor(7, alwaysFalse)
	assert.True(t, s.Match(format.Fields{Pid: 7}), "a task is its own ancestor per the preserved original behavior")
}

func TestByRUIDIsDistinctFromByUID(t *testing.T) {
	s := selector.New()
	require.NoError(t, s.ByRUID("500"))
	assert.True(t, s.Match(format.Fields{RUid: 500, EUid: 999}))
	assert.False(t, s.Match(format.Fields{RUid: 999, EUid: 500}), "ByRUID must not match on effective uid")
}

func TestByRGIDIsDistinctFromByGID(t *testing.T) {
	s := selector.New()
	require.NoError(t, s.ByRGID("10"))
	assert.True(t, s.Match(format.Fields{RGid: 10, EGid: 20}))
	assert.False(t, s.Match(format.Fields{RGid: 20, EGid: 10}))
}

func TestHasControllingTerminalPredicate(t *testing.T) {
	p := selector.HasControllingTerminal()
	assert.True(t, p(format.Fields{TTYNr: 4}))
	assert.False(t, p(format.Fields{TTYNr: 0}))
}

func TestNotSessionLeaderPredicate(t *testing.T) {
	p := selector.NotSessionLeader()
	assert.False(t, p(format.Fields{Pid: 5, Session: 5}), "a session leader has pid == session")
	assert.True(t, p(format.Fields{Pid: 6, Session: 5}))
}

func TestAllPredicateMatchesEverything(t *testing.T) {
	p := selector.All()
	assert.True(t, p(format.Fields{Pid: 1}))
	assert.True(t, p(format.Fields{}))
}

func TestNonIdlePredicate(t *testing.T) {
	p := selector.NonIdle()
	assert.True(t, p(format.Fields{State: 'R', PCPU: 0.1}))
	assert.False(t, p(format.Fields{State: 'Z', PCPU: 0.1}), "a zombie is never non-idle")
	assert.False(t, p(format.Fields{State: 'S', PCPU: 0}), "zero cpu usage is idle")
}

func TestDefaultInvokerMatchesEuidAndTTYTogetherNotEither(t *testing.T) {
	s := selector.New()
	s.DefaultInvoker(1000, 4)
	assert.True(t, s.Match(format.Fields{EUid: 1000, TTYNr: 4}))
	assert.False(t, s.Match(format.Fields{EUid: 1000, TTYNr: 5}), "euid alone must not be enough")
	assert.False(t, s.Match(format.Fields{EUid: 1001, TTYNr: 4}), "terminal alone must not be enough")
}

func TestPropertyEqualsStringPredicate(t *testing.T) {
	comm, err := format.Lookup("comm")
	require.NoError(t, err)
	p := selector.PropertyEqualsString(comm, "sshd")
	assert.True(t, p(format.Fields{Comm: "sshd"}))
	assert.False(t, p(format.Fields{Comm: "bash"}))
}

func TestPropertyMatchesRegexPredicate(t *testing.T) {
	comm, err := format.Lookup("comm")
	require.NoError(t, err)
	re := regexp.MustCompile(`^ssh`)
	p := selector.PropertyMatchesRegex(comm, re)
	assert.True(t, p(format.Fields{Comm: "sshd"}))
	assert.False(t, p(format.Fields{Comm: "bash"}))
}

func TestCompareQLUsesNaturalOrderOnAPropertysStringKind(t *testing.T) {
	comm, err := format.Lookup("comm")
	require.NoError(t, err)
	lt := selector.CompareQL(comm, "proc10", selector.Less)
	assert.True(t, lt(format.Fields{Comm: "proc2"}), "natural order: proc2 < proc10")
	assert.False(t, lt(format.Fields{Comm: "proc20"}))
}

func TestCompareNumericOperators(t *testing.T) {
	pid, err := format.Lookup("pid")
	require.NoError(t, err)

	gt := selector.CompareNumeric(pid, 100, selector.Greater)
	assert.True(t, gt(format.Fields{Pid: 101}))
	assert.False(t, gt(format.Fields{Pid: 100}))

	le := selector.CompareNumeric(pid, 100, selector.LessOrEqual)
	assert.True(t, le(format.Fields{Pid: 100}))
	assert.False(t, le(format.Fields{Pid: 101}))
}
