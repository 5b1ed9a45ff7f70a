package date

// Range represents a range of dates.
type Range struct{ From, To Date }

// Around returns the range of days within n calendar days of d, both ends included.
func Around(d Date, n int) Range { return Range{From: d.Add(-n), To: d.Add(n)} }

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return (!date.Before(r.From) && !date.After(r.To)) }

// String returns the range as "from..to".
func (r Range) String() string { return r.From.String() + ".." + r.To.String() }
