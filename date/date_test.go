package date

import (
	"encoding/json"
	"testing"
	"time"
)

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.time() != d2.time() {
		// Note that usually time.Time are not comparable (there is a pointer for the timezone) this
		// tests also checks that the property remain true
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestParse(t *testing.T) {
	testCases := []struct {
		in      string
		want    Date
		wantErr bool
	}{
		{in: "2025-07-01", want: New(2025, time.July, 1)},
		{in: "2025-7-1", want: New(2025, time.July, 1)},
		{in: "2025/07/01", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	from := New(2025, time.February, 20)
	if got := from.DaysBetween(New(2025, time.March, 22)); got != 30 {
		t.Errorf("DaysBetween() = %d, want 30", got)
	}
	if got := from.DaysBetween(from.Add(-5)); got != -5 {
		t.Errorf("DaysBetween() = %d, want -5", got)
	}
}

func TestAround(t *testing.T) {
	r := Around(New(2025, time.March, 1), 30)
	if !r.Contains(New(2025, time.January, 30)) {
		t.Errorf("%v should contain 2025-01-30", r)
	}
	if !r.Contains(New(2025, time.March, 31)) {
		t.Errorf("%v should contain 2025-03-31", r)
	}
	if r.Contains(New(2025, time.April, 1)) {
		t.Errorf("%v should not contain 2025-04-01", r)
	}
}

func TestJSON(t *testing.T) {
	var v struct {
		On  Date `json:"on"`
		Off Date `json:"off"`
	}
	if err := json.Unmarshal([]byte(`{"on":"2025-08-01","off":""}`), &v); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if v.On != New(2025, time.August, 1) || !v.Off.IsZero() {
		t.Errorf("Unmarshal() = %+v", v)
	}
	b, err := json.Marshal(v.On)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(b) != `"2025-08-01"` {
		t.Errorf("Marshal() = %s", b)
	}
}
