package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benefit-estimator/internal/model"
)

func TestRunReconcile(t *testing.T) {
	var out bytes.Buffer
	err := runReconcile(strings.NewReader(`{}`), &out, reconcileFlags{birthDate: "1960-01-01"},
		time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	var resp model.ReconcileResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.True(t, resp.Reconciled)
	assert.Equal(t, 1978, resp.Range.StartEmploymentYear)
	assert.Equal(t, 2031, resp.Range.EndYear)
	assert.Equal(t, "2031-01-01", resp.Range.CleanRetireDate.String())
	assert.Len(t, resp.Earnings, 54)
}

func TestRunReconcilePassthrough(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runReconcile(strings.NewReader(`{"2000": 500}`), &out, reconcileFlags{}, time.Now()))

	var resp model.ReconcileResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.False(t, resp.Reconciled)
	assert.Equal(t, model.EarningsRecord{2000: 500}, resp.Earnings)
}

func TestRunReconcileErrors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, runReconcile(strings.NewReader(`[`), &out, reconcileFlags{}, time.Now()))
	assert.Error(t, runReconcile(strings.NewReader(`{}`), &out, reconcileFlags{birthDate: "01/01/1960"}, time.Now()))
	assert.Error(t, runReconcile(strings.NewReader(`{}`), &out, reconcileFlags{birthDate: "1960-01-01", retireDate: "soon"}, time.Now()))
	assert.Error(t, runReconcile(strings.NewReader(`{"-9223372036854775808": 1}`), &out, reconcileFlags{birthDate: "1960-01-01"}, time.Now()))
	assert.Error(t, runReconcile(strings.NewReader(`{"1899": 1}`), &out, reconcileFlags{}, time.Now()))
	assert.Error(t, runReconcile(strings.NewReader(`{}`), &out, reconcileFlags{birthDate: "1960-01-01", expectedYear: model.Ptr(0)}, time.Now()))
	assert.Empty(t, out.String())
}

func TestReconcileCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetIn(strings.NewReader(`{"1985": 20000, "1986": 21000}`))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"reconcile", "--birth-date", "1960-01-01", "--retire-date", "2025-01-01"})
	require.NoError(t, cmd.Execute())

	var resp model.ReconcileResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, 2025, resp.Range.EndYear)
	assert.Equal(t, 20000.0, resp.Earnings[1985])
	assert.Len(t, resp.Earnings, 41)
}

func TestReconcileCommandExpectedLastYear(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetIn(strings.NewReader(`{}`))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"reconcile", "--birth-date", "1955-01-01", "--expected-last-year", "2020"})
	require.NoError(t, cmd.Execute())

	var resp model.ReconcileResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, 1973, resp.Range.StartEmploymentYear)
	assert.Equal(t, 2020, resp.Range.EndYear)
}
