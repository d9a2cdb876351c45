package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation_HierarchyLevels(t *testing.T) {
	cases := []struct {
		name string
		job  [3]string
		wrk  [3]string
		want float64
	}{
		{"different provinces", [3]string{"Bangkok", "Bang Rak", "Si Lom"}, [3]string{"Chiang Mai", "Mueang", "Si Phum"}, 0.0},
		{"province only", [3]string{"Bangkok", "Bang Rak", "Si Lom"}, [3]string{"Bangkok", "Chatuchak", "Lat Yao"}, 0.5},
		{"province and district", [3]string{"Bangkok", "Bang Rak", "Si Lom"}, [3]string{"Bangkok", "Bang Rak", "Maha Phruettharam"}, 0.8},
		{"full match", [3]string{"Bangkok", "Bang Rak", "Si Lom"}, [3]string{"Bangkok", "Bang Rak", "Si Lom"}, 1.0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Location(c.job[0], c.job[1], c.job[2], c.wrk[0], c.wrk[1], c.wrk[2])
			assert.Equal(t, c.want, got)
		})
	}
}

func TestLocation_Symmetric(t *testing.T) {
	job := [3]string{"Bangkok", "Bang Rak", "Si Lom"}
	wrk := [3]string{"Bangkok", "Bang Rak", "Maha Phruettharam"}

	forward := Location(job[0], job[1], job[2], wrk[0], wrk[1], wrk[2])
	backward := Location(wrk[0], wrk[1], wrk[2], job[0], job[1], job[2])
	assert.Equal(t, forward, backward)
}

func TestLocation_MissingProvince(t *testing.T) {
	assert.Equal(t, 0.0, Location("", "Bang Rak", "Si Lom", "", "Bang Rak", "Si Lom"))
	assert.Equal(t, 0.0, Location("Bangkok", "", "", "", "", ""))
}

func TestLocation_CaseInsensitive(t *testing.T) {
	assert.Equal(t, 1.0, Location("bangkok", "bang rak", "si lom", "Bangkok", "Bang Rak", "Si Lom"))
}

func TestTimeOverlap_IdenticalWindows(t *testing.T) {
	assert.Equal(t, 1.0, TimeOverlap("08:00", "16:00", "08:00", "16:00"))
	assert.Equal(t, 1.0, TimeOverlap("00:00", "23:59", "00:00", "23:59"))
}

func TestTimeOverlap_Disjoint(t *testing.T) {
	assert.Equal(t, 0.0, TimeOverlap("08:00", "12:00", "13:00", "17:00"))
	// Touching endpoints do not overlap
	assert.Equal(t, 0.0, TimeOverlap("08:00", "12:00", "12:00", "16:00"))
}

func TestTimeOverlap_Partial(t *testing.T) {
	// 4h window vs 8h window sharing 4h: 240 / 480
	assert.InDelta(t, 0.5, TimeOverlap("08:00", "12:00", "08:00", "16:00"), 1e-9)
	// 2h shared out of max 8h
	assert.InDelta(t, 0.25, TimeOverlap("08:00", "16:00", "14:00", "18:00"), 1e-9)
}

func TestTimeOverlap_InRange(t *testing.T) {
	windows := [][4]string{
		{"08:00", "16:00", "10:00", "14:00"},
		{"00:00", "01:00", "00:30", "23:00"},
		{"09:15", "17:45", "06:00", "12:00"},
	}
	for _, w := range windows {
		got := TimeOverlap(w[0], w[1], w[2], w[3])
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}

func TestTimeOverlap_DegenerateAndInvalid(t *testing.T) {
	// Overnight shift is unsupported and scores 0
	assert.Equal(t, 0.0, TimeOverlap("22:00", "06:00", "22:00", "06:00"))
	assert.Equal(t, 0.0, TimeOverlap("08:00", "08:00", "08:00", "16:00"))
	assert.Equal(t, 0.0, TimeOverlap("not-a-time", "16:00", "08:00", "16:00"))
	assert.Equal(t, 0.0, TimeOverlap("", "", "", ""))
}

func TestParseMinutes(t *testing.T) {
	got, err := ParseMinutes("08:30")
	require.NoError(t, err)
	assert.Equal(t, 510, got)

	_, err = ParseMinutes("24:00")
	assert.Error(t, err)
	_, err = ParseMinutes("08:60")
	assert.Error(t, err)
	_, err = ParseMinutes("0830")
	assert.Error(t, err)
}

func TestDateMatch(t *testing.T) {
	assert.Equal(t, 1.0, DateMatch("2025-05-01", "2025-05-01"))
	assert.Equal(t, 0.0, DateMatch("2025-05-01", "2025-05-02"))
	assert.Equal(t, 0.0, DateMatch("", ""))
	assert.Equal(t, 0.0, DateMatch("2025-05-01", ""))
}

func TestSalaryMatch_InRange(t *testing.T) {
	assert.Equal(t, 1.0, SalaryMatch(500, 400, 600))
	assert.Equal(t, 1.0, SalaryMatch(400, 400, 600))
	assert.Equal(t, 1.0, SalaryMatch(600, 400, 600))
}

func TestSalaryMatch_BelowRange(t *testing.T) {
	// 10% below a min of 500 with half-bound decay: 1 - 50/250 = 0.8
	assert.InDelta(t, 0.8, SalaryMatch(450, 500, 700), 1e-9)
	// 50% below the minimum bottoms out at 0
	assert.Equal(t, 0.0, SalaryMatch(250, 500, 700))
	assert.Equal(t, 0.0, SalaryMatch(100, 500, 700))
}

func TestSalaryMatch_AboveRange(t *testing.T) {
	// 10% above a max of 600: 1 - 60/300 = 0.8
	assert.InDelta(t, 0.8, SalaryMatch(660, 400, 600), 1e-9)
	assert.Equal(t, 0.0, SalaryMatch(900, 400, 600))
	assert.Equal(t, 0.0, SalaryMatch(5000, 400, 600))
}

func TestSalaryMatch_StrictlyDecreasing(t *testing.T) {
	prev := SalaryMatch(600, 400, 600)
	for _, salary := range []float64{650, 700, 750, 800, 850} {
		got := SalaryMatch(salary, 400, 600)
		assert.LessOrEqual(t, got, prev, "score should not increase at salary %v", salary)
		assert.GreaterOrEqual(t, got, 0.0)
		prev = got
	}
}

func TestSalaryMatch_InvalidInputs(t *testing.T) {
	assert.Equal(t, 0.0, SalaryMatch(0, 400, 600))
	assert.Equal(t, 0.0, SalaryMatch(-100, 400, 600))
	assert.Equal(t, 0.0, SalaryMatch(500, 600, 400))
}
