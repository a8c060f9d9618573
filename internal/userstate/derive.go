package userstate

import (
	"benefit-estimator/internal/earnings"
	"benefit-estimator/internal/metrics"
	"benefit-estimator/internal/model"
)

// Derive builds the consumer snapshot from raw inputs.
func (m *Manager) Derive(in model.UserInputs) model.UserState {
	in = in.Clone()
	state := model.UserState{
		BirthDate:                      in.BirthDate,
		RetireDate:                     in.RetireDate,
		IsManual:                       isManual(in.EarningsFormat),
		Year62:                         in.Year62,
		HaveEarnings:                   in.HaveEarnings,
		EarningsFormat:                 in.EarningsFormat,
		HaveSSAAccount:                 in.HaveSSAAccount,
		IsEmploymentCovered:            in.IsEmploymentCovered,
		PensionOrRetirementAccount:     in.PensionOrRetirementAccount,
		PensionAmount:                  in.PensionAmount,
		PensionDateAwarded:             in.PensionDateAwarded,
		UserProfile:                    in.UserProfile,
		PreferPiaUserCalc:              in.PreferPiaUserCalc,
		ExpectedLastEarningYear:        in.ExpectedLastEarningYear,
		AwiTrendOrManualPrediction:     in.AwiTrendOrManualPrediction,
		AwiTrendSelection:              in.AwiTrendSelection,
		ExpectedPercentageWageIncrease: in.ExpectedPercentageWageIncrease,
	}

	if age, ok := earnings.FullRetirementAge(in.BirthDate, in.RetireDate); ok {
		state.FullRetirementAge = model.Ptr(age.Years)
		state.FullRetirementAgeYearsOnly = model.Ptr(age.YearsOnly)
		state.FullRetirementAgeMonthsOnly = model.Ptr(age.MonthsOnly)
	}

	// Earnings stay null until the user enters some.
	if in.Earnings != nil {
		bounds := earnings.Inputs{
			BirthDate:               in.BirthDate,
			RetireDate:              in.RetireDate,
			ExpectedLastEarningYear: in.ExpectedLastEarningYear,
		}
		if rng, ok := earnings.ResolveRange(in.Earnings, bounds, m.now()); ok {
			state.Earnings = earnings.Fill(in.Earnings, rng)
			state.EarningsRange = rng.Model()
			metrics.Reconciliations.WithLabelValues(metrics.ResultReconciled).Inc()
		} else {
			state.Earnings = in.Earnings
			metrics.Reconciliations.WithLabelValues(metrics.ResultPassthrough).Inc()
		}
	}

	state.WageGrowthRate = m.wageGrowthRate(in)
	return state
}

func isManual(format *string) bool {
	if format == nil {
		return true
	}
	return *format != model.EarningsFormatXML && *format != model.EarningsFormatPDF
}

// wageGrowthRate picks the manual percentage or the selected trend's rate.
func (m *Manager) wageGrowthRate(in model.UserInputs) *float64 {
	if in.AwiTrendOrManualPrediction == nil {
		return nil
	}
	fallback := model.DefaultExpectedPercentageWageIncrease
	if in.ExpectedPercentageWageIncrease != nil {
		fallback = *in.ExpectedPercentageWageIncrease
	}
	switch *in.AwiTrendOrManualPrediction {
	case model.PredictionManual:
		return model.Ptr(fallback)
	case model.PredictionAWITrend:
		if in.AwiTrendSelection == nil {
			return nil
		}
		if m.trends == nil {
			return model.Ptr(fallback)
		}
		return model.Ptr(m.trends.GrowthRate(*in.AwiTrendSelection, fallback))
	}
	return nil
}

func recordOutcome(resp *model.CalculationResponse) {
	metrics.Calculations.WithLabelValues(resp.CalculationMetadata.CalculationOutcome).Inc()
	for _, msg := range resp.CalculationResult.Messages {
		metrics.CalculationMessages.WithLabelValues(msg.Level, msg.Code).Inc()
	}
}
