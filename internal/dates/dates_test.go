package dates

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatting(t *testing.T) {
	d := New(2025, time.March, 7)
	assert.Equal(t, "Mar 07, 2025", d.String())
}

func TestParseAcceptsBothLayouts(t *testing.T) {
	want := New(2025, time.March, 7)

	d, err := Parse("Mar 07, 2025")
	require.NoError(t, err)
	assert.True(t, d.Equal(want))

	d, err = Parse("2025-03-07")
	require.NoError(t, err)
	assert.True(t, d.Equal(want))

	_, err = Parse("07/03/2025")
	assert.Error(t, err)
}

func TestAddDays(t *testing.T) {
	d := New(2025, time.December, 30).AddDays(5)
	assert.True(t, d.Equal(New(2026, time.January, 4)))
}

func TestJSONRoundTrip(t *testing.T) {
	d := New(2025, time.March, 7)
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"Mar 07, 2025"`, string(b))

	var got Date
	require.NoError(t, json.Unmarshal(b, &got))
	assert.True(t, got.Equal(d))

	b, err = json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2025, time.March, 7, 16, 30, 0, 0, time.UTC)))
	assert.True(t, d.Equal(New(2025, time.March, 7)))

	require.NoError(t, d.Scan("2025-03-08"))
	assert.True(t, d.Equal(New(2025, time.March, 8)))

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))
}
