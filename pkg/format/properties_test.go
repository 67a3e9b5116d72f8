package format_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/nps/pkg/format"
)

func TestLookupResolvesAliases(t *testing.T) {
	d, err := format.Lookup("cmd")
	require.NoError(t, err)
	assert.Equal(t, "argsbrief", d.Name)
}

func TestLookupNiDoesNotSelfReference(t *testing.T) {
	d, err := format.Lookup("ni")
	require.NoError(t, err)
	assert.Equal(t, "nice", d.Name, "ni must alias to nice, not to itself")
}

func TestLookupUnknownProperty(t *testing.T) {
	_, err := format.Lookup("not-a-real-property")
	require.Error(t, err)
}

func TestPgidReturnsTpgidAndPgrpIsDistinct(t *testing.T) {
	pgid, err := format.Lookup("pgid")
	require.NoError(t, err)
	pgrp, err := format.Lookup("pgrp")
	require.NoError(t, err)

	row := format.Fields{PGrp: 10, TPGid: 20}
	assert.Equal(t, int64(20), pgid.Fetch(row).I, "pgid preserves the observable tpgid quirk")
	assert.Equal(t, int64(10), pgrp.Fetch(row).I, "pgrp reports the real process group")
}

func TestPmemIsPssPlusSwap(t *testing.T) {
	d, err := format.Lookup("pmem")
	require.NoError(t, err)
	row := format.Fields{PSS: 2048, Swap: 512}
	assert.Equal(t, uint64(2560), d.Fetch(row).U)
}

func TestCommandFamilyAppendsDefunctSuffixForZombies(t *testing.T) {
	comm, err := format.Lookup("comm")
	require.NoError(t, err)
	args, err := format.Lookup("args")
	require.NoError(t, err)
	argsbrief, err := format.Lookup("argsbrief")
	require.NoError(t, err)

	zombie := format.Fields{Comm: "sh", Cmdline: "/bin/sh", State: 'Z'}
	assert.Equal(t, "sh <defunct>", comm.Fetch(zombie).S)
	assert.Equal(t, "/bin/sh <defunct>", args.Fetch(zombie).S)
	assert.Equal(t, "sh <defunct>", argsbrief.Fetch(zombie).S)

	alive := format.Fields{Comm: "sh", Cmdline: "/bin/sh", State: 'S'}
	assert.Equal(t, "sh", comm.Fetch(alive).S)
	assert.Equal(t, "/bin/sh", args.Fetch(alive).S)
}

func TestComparePidNumeric(t *testing.T) {
	d, err := format.Lookup("pid")
	require.NoError(t, err)
	a := format.Fields{Pid: 1}
	b := format.Fields{Pid: 2}
	assert.Equal(t, -1, format.Compare(d, a, b))
	assert.Equal(t, 1, format.Compare(d, b, a))
	assert.Equal(t, 0, format.Compare(d, a, a))
}
