package format_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/nps/pkg/format"
)

func TestParseFormatArgumentDialectSpaceSeparated(t *testing.T) {
	cols, err := format.ParseFormat("pid tty time", format.Argument)
	require.NoError(t, err)
	require.Len(t, cols, 3)
	assert.Equal(t, "pid", cols[0].Property.Name)
	assert.Equal(t, "tty", cols[1].Property.Name)
	assert.Equal(t, "time", cols[2].Property.Name)
}

func TestParseFormatQuotedDialectCommaSeparated(t *testing.T) {
	cols, err := format.ParseFormat("pid,tty,time", format.Quoted)
	require.NoError(t, err)
	require.Len(t, cols, 3)
	assert.Equal(t, "pid", cols[0].Property.Name)
	assert.Equal(t, "tty", cols[1].Property.Name)
	assert.Equal(t, "time", cols[2].Property.Name)
}

func TestParseFormatRejectsUnknownProperty(t *testing.T) {
	_, err := format.ParseFormat("bogus", format.Quoted)
	assert.Error(t, err)
}

func TestRenderHeadingUsesDescriptorHeadingByDefault(t *testing.T) {
	cols, err := format.ParseFormat("comm", format.Quoted)
	require.NoError(t, err)
	assert.Equal(t, "COMMAND", format.RenderHeading(cols))
}

func TestRenderHeadingHonorsExplicitOverride(t *testing.T) {
	cols, err := format.ParseFormat(`comm=CMD`, format.Quoted)
	require.NoError(t, err)
	assert.Equal(t, "CMD", format.RenderHeading(cols))
}

func TestRenderRowLeavesLastColumnUnpadded(t *testing.T) {
	cols, err := format.ParseFormat("pid:5,comm:30", format.Quoted)
	require.NoError(t, err)
	row := format.Fields{Pid: 7, Comm: "sh"}
	assert.Equal(t, "    7 sh", format.RenderRow(cols, 0, row))
}

func TestRenderHeadingSuppressedWhenEveryHeadingIsEmpty(t *testing.T) {
	cols, err := format.ParseFormat(`pid= tty=`, format.Quoted)
	require.NoError(t, err)
	assert.Equal(t, "", format.RenderHeading(cols))
}

func TestSortByPidAscending(t *testing.T) {
	rows := []format.Fields{{Pid: 3}, {Pid: 1}, {Pid: 2}}
	pid, err := format.Lookup("pid")
	require.NoError(t, err)
	format.Sort(rows, []format.SortKey{{Property: pid, Sign: 1}})
	assert.Equal(t, []int{1, 2, 3}, []int{rows[0].Pid, rows[1].Pid, rows[2].Pid})
}

func TestSortByPidDescending(t *testing.T) {
	rows := []format.Fields{{Pid: 3}, {Pid: 1}, {Pid: 2}}
	pid, err := format.Lookup("pid")
	require.NoError(t, err)
	format.Sort(rows, []format.SortKey{{Property: pid, Sign: -1}})
	assert.Equal(t, []int{3, 2, 1}, []int{rows[0].Pid, rows[1].Pid, rows[2].Pid})
}

func TestSortIsStableOnTies(t *testing.T) {
	pri, err := format.Lookup("pri")
	require.NoError(t, err)
	rows := []format.Fields{
		{Pid: 1, Priority: 5},
		{Pid: 2, Priority: 5},
		{Pid: 3, Priority: 5},
	}
	format.Sort(rows, []format.SortKey{{Property: pri, Sign: 1}})
	assert.Equal(t, []int{1, 2, 3}, []int{rows[0].Pid, rows[1].Pid, rows[2].Pid})
}
