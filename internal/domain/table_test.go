package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTable_WellFormed(t *testing.T) {
	text := "time,latitude,longitude,u,v\n" +
		"2026-03-14 17:00:00,37.75,-122.30,12.5,-3.0\n"

	rows := ParseTable(text)
	require.Len(t, rows, 1)
	assert.Equal(t, SampleRow{
		Time: "2026-03-14 17:00:00",
		Lat:  37.75,
		Lon:  -122.30,
		U:    12.5,
		V:    -3.0,
	}, rows[0])
}

func TestParseTable_SkipsCommentsAndBlanks(t *testing.T) {
	text := "# station metadata\n" +
		"\n" +
		"time,latitude,longitude,u,v\n" +
		"# mid-table comment\n" +
		"t1,1.0,2.0,3.0,4.0\n" +
		"   \n" +
		"t2,5.0,6.0,7.0,8.0\n"

	rows := ParseTable(text)
	require.Len(t, rows, 2)
	assert.Equal(t, "t1", rows[0].Time)
	assert.Equal(t, "t2", rows[1].Time)
}

func TestParseTable_DropsShortAndNonNumericRecords(t *testing.T) {
	text := "time,latitude,longitude,u,v\n" +
		"t,1,2,a,b\n" + // non-numeric u/v
		"t,1,2,3\n" + // too few fields
		"t,x,2,3,4\n" // non-numeric lat

	assert.Empty(t, ParseTable(text))
}

func TestParseTable_IgnoresExtraFields(t *testing.T) {
	text := "time,latitude,longitude,u,v,flag,site\n" +
		"t,1.5,2.5,3.5,4.5,Q,SFOO\n"

	rows := ParseTable(text)
	require.Len(t, rows, 1)
	assert.Equal(t, 4.5, rows[0].V)
}

func TestParseTable_HeaderOnlyOrEmpty(t *testing.T) {
	assert.Empty(t, ParseTable(""))
	assert.Empty(t, ParseTable("time,latitude,longitude,u,v\n"))
	assert.Empty(t, ParseTable("# nothing but comments\n# again\n"))
	assert.Empty(t, ParseTable("complete garbage"))
}

func TestParseTable_PreservesInputOrder(t *testing.T) {
	text := "h\n" +
		"t3,0,0,1,1\n" +
		"t1,0,0,2,2\n" +
		"t2,0,0,3,3\n"

	rows := ParseTable(text)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"t3", "t1", "t2"}, []string{rows[0].Time, rows[1].Time, rows[2].Time})
}
