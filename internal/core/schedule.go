package core

const (
	Daily   Frequency = "DAILY"
	Weekly  Frequency = "WEEKLY"
	Monthly Frequency = "MONTHLY"
	Yearly  Frequency = "YEARLY"
	Custom  Frequency = "CUSTOM"
)

// Frequency is the advance rule of a recurring definition or installment
// plan schedule.
type Frequency string

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly, Custom:
		return true
	}
	return false
}

// Schedule pairs a frequency with the parameters its advance rule needs.
// AnchorDay is the day-of-month the MONTHLY/YEARLY rules aim for; carrying
// it separately keeps a schedule anchored to the 31st from drifting to the
// 28th forever after passing one short month.
type Schedule struct {
	Frequency    Frequency
	IntervalDays int // CUSTOM only, >= 1
	AnchorDay    int // MONTHLY/YEARLY only, 1..31
}

// NewSchedule builds a schedule anchored at start.
func NewSchedule(freq Frequency, intervalDays int, start Date) (Schedule, error) {
	if !freq.Valid() {
		return Schedule{}, Validationf("invalid frequency %q", freq)
	}
	s := Schedule{Frequency: freq, AnchorDay: start.Day()}
	if freq == Custom {
		if intervalDays < 1 {
			return Schedule{}, Validationf("custom frequency requires interval_days >= 1, got %d", intervalDays)
		}
		s.IntervalDays = intervalDays
	}
	return s, nil
}

// Next advances a date by one period. MONTHLY moves to the anchor day of the
// next month, clamped to that month's length (31 Jan -> 29 Feb -> 31 Mar);
// YEARLY does the same one year ahead (29 Feb -> 28 Feb off leap years).
// The result is always a valid calendar date.
func (s Schedule) Next(current Date) (Date, error) {
	switch s.Frequency {
	case Daily:
		return current.AddDays(1), nil
	case Weekly:
		return current.AddDays(7), nil
	case Monthly:
		year, month := current.Year(), current.Month()+1
		if month > 12 {
			year, month = year+1, 1
		}
		return ClampedDate(year, month, s.anchor(current)), nil
	case Yearly:
		return ClampedDate(current.Year()+1, current.Month(), s.anchor(current)), nil
	case Custom:
		if s.IntervalDays < 1 {
			return Date{}, Invariantf("custom schedule with interval_days %d", s.IntervalDays)
		}
		return current.AddDays(s.IntervalDays), nil
	default:
		return Date{}, Invariantf("unknown frequency %q", s.Frequency)
	}
}

// NthFrom returns the n-th occurrence counting start itself as occurrence 1.
func (s Schedule) NthFrom(start Date, n int) (Date, error) {
	if n < 1 {
		return Date{}, Invariantf("occurrence index must be >= 1, got %d", n)
	}
	d := start
	for i := 1; i < n; i++ {
		next, err := s.Next(d)
		if err != nil {
			return Date{}, err
		}
		d = next
	}
	return d, nil
}

func (s Schedule) anchor(current Date) int {
	if s.AnchorDay >= 1 && s.AnchorDay <= 31 {
		return s.AnchorDay
	}
	return current.Day()
}
