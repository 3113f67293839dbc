package schedule

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"securelife/internal/policy/models"
	dErrors "securelife/pkg/domain-errors"
)

type ScheduleSuite struct {
	suite.Suite
}

func TestScheduleSuite(t *testing.T) {
	suite.Run(t, new(ScheduleSuite))
}

func (s *ScheduleSuite) TestCompute() {
	s.Run("five year quarterly policy splits evenly", func() {
		sched, err := Compute(5, models.IntervalQuarterly, decimal.NewFromInt(100000))
		s.Require().NoError(err)
		s.Equal(20, sched.TotalInstallments)
		s.True(sched.DueAmount.Equal(decimal.NewFromInt(5000)), "due = %s", sched.DueAmount)
		s.True(sched.FinalDueAmount.Equal(decimal.NewFromInt(5000)))
	})

	s.Run("interval multipliers", func() {
		cases := []struct {
			interval models.PaymentInterval
			want     int
		}{
			{models.IntervalYearly, 10},
			{models.IntervalHalfYearly, 20},
			{models.IntervalQuarterly, 40},
		}
		for _, tc := range cases {
			sched, err := Compute(10, tc.interval, decimal.NewFromInt(120000))
			s.Require().NoError(err)
			s.Equal(tc.want, sched.TotalInstallments)
		}
	})

	s.Run("rounding residual lands on the final installment", func() {
		// 1000 / 3 = 333.33 rounded; final carries 333.34.
		sched, err := Compute(3, models.IntervalYearly, decimal.NewFromInt(1000))
		s.Require().NoError(err)
		s.True(sched.DueAmount.Equal(decimal.RequireFromString("333.33")), "due = %s", sched.DueAmount)
		s.True(sched.FinalDueAmount.Equal(decimal.RequireFromString("333.34")), "final = %s", sched.FinalDueAmount)
		s.True(sched.Sum().Equal(decimal.NewFromInt(1000)))
	})

	s.Run("residual can adjust downward", func() {
		// 100 / 6 = 16.67 rounded half-up; 5x16.67 = 83.35, final = 16.65.
		sched, err := Compute(3, models.IntervalHalfYearly, decimal.NewFromInt(100))
		s.Require().NoError(err)
		s.True(sched.DueAmount.Equal(decimal.RequireFromString("16.67")))
		s.True(sched.FinalDueAmount.Equal(decimal.RequireFromString("16.65")))
		s.True(sched.Sum().Equal(decimal.NewFromInt(100)))
	})

	s.Run("invalid inputs", func() {
		_, err := Compute(0, models.IntervalYearly, decimal.NewFromInt(1000))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSchedule))

		_, err = Compute(-3, models.IntervalYearly, decimal.NewFromInt(1000))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSchedule))

		_, err = Compute(5, models.PaymentInterval("MONTHLY"), decimal.NewFromInt(1000))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSchedule))

		_, err = Compute(5, models.IntervalYearly, decimal.Zero)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSchedule))

		_, err = Compute(5, models.IntervalYearly, decimal.NewFromInt(-10))
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidSchedule))
	})
}

// TestSumEqualsTotal is the exactness property: for every term/interval
// combination the schedule sums to the investment amount exactly, residual
// included.
func (s *ScheduleSuite) TestSumEqualsTotal() {
	amounts := []string{"100000", "99999.99", "1000", "777.77", "123456.78", "0.50"}
	intervals := []models.PaymentInterval{
		models.IntervalYearly,
		models.IntervalHalfYearly,
		models.IntervalQuarterly,
	}

	for _, raw := range amounts {
		amount := decimal.RequireFromString(raw)
		for _, interval := range intervals {
			for term := 1; term <= 30; term++ {
				sched, err := Compute(term, interval, amount)
				if err != nil {
					// Sub-cent splits are legitimately rejected.
					s.True(dErrors.HasCode(err, dErrors.CodeInvalidSchedule))
					continue
				}
				s.Truef(sched.Sum().Equal(amount),
					"term=%d interval=%s amount=%s: sum %s != total",
					term, interval, raw, sched.Sum())
				s.Equal(term*interval.Multiplier(), sched.TotalInstallments)
			}
		}
	}
}

func (s *ScheduleSuite) TestAmountDue() {
	sched, err := Compute(3, models.IntervalYearly, decimal.NewFromInt(1000))
	s.Require().NoError(err)

	s.Run("ordinals within range", func() {
		first, err := sched.AmountDue(1)
		s.Require().NoError(err)
		s.True(first.Equal(decimal.RequireFromString("333.33")))

		last, err := sched.AmountDue(3)
		s.Require().NoError(err)
		s.True(last.Equal(decimal.RequireFromString("333.34")))
	})

	s.Run("out of range is not found", func() {
		_, err := sched.AmountDue(0)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		_, err = sched.AmountDue(4)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
