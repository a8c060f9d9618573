package main

import (
	"fmt"
	"io"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"benefit-estimator/internal/earnings"
	"benefit-estimator/internal/model"
)

type reconcileFlags struct {
	birthDate    string
	retireDate   string
	expectedYear *int
}

func newReconcileCmd() *cobra.Command {
	var (
		f            reconcileFlags
		expectedYear int
	)
	cmd := &cobra.Command{
		Use:   "reconcile [earnings.json]",
		Short: "Reconcile an earnings record read from a file or stdin",
		Long: `Reads a JSON object of year to amount, fills every year from first
employment to retirement with the reported amount or zero, and prints the
result as JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open earnings: %w", err)
				}
				defer file.Close()
				in = file
			}
			if cmd.Flags().Changed("expected-last-year") {
				f.expectedYear = &expectedYear
			}
			return runReconcile(in, cmd.OutOrStdout(), f, time.Now())
		},
	}
	cmd.Flags().StringVar(&f.birthDate, "birth-date", "", "birth date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.retireDate, "retire-date", "", "planned retirement date, YYYY-MM-DD")
	cmd.Flags().IntVar(&expectedYear, "expected-last-year", 0, "expected last year with earnings")
	return cmd
}

func runReconcile(r io.Reader, w io.Writer, f reconcileFlags, now time.Time) error {
	var rec model.EarningsRecord
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return fmt.Errorf("decode earnings: %w", err)
	}
	if year, ok := rec.OutOfRangeYear(); ok {
		return fmt.Errorf("earnings year %d is outside %d-%d", year, model.MinYear, model.MaxYear)
	}

	var in earnings.Inputs
	if f.birthDate != "" {
		d, err := model.ParseDate(f.birthDate)
		if err != nil {
			return fmt.Errorf("birth date: %w", err)
		}
		in.BirthDate = &d
	}
	if f.retireDate != "" {
		d, err := model.ParseDate(f.retireDate)
		if err != nil {
			return fmt.Errorf("retire date: %w", err)
		}
		in.RetireDate = &d
	}
	if f.expectedYear != nil {
		y := *f.expectedYear
		if y < model.MinYear || y > model.MaxYear {
			return fmt.Errorf("expected last year %d is outside %d-%d", y, model.MinYear, model.MaxYear)
		}
		in.ExpectedLastEarningYear = &y
	}

	resp := model.ReconcileResponse{Earnings: rec}
	if rng, ok := earnings.ResolveRange(rec, in, now); ok {
		resp = model.ReconcileResponse{
			Earnings:   earnings.Fill(rec, rng),
			Range:      rng.Model(),
			Reconciled: true,
		}
	}
	if resp.Earnings == nil {
		resp.Earnings = model.EarningsRecord{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
