package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportJobParamsRoundTripThroughDriver(t *testing.T) {
	date := "2026-03-02"
	params := ReportJobParams{
		Date:   &date,
		Format: ReportFormatCSV,
		Scope:  Scope{Kind: ScopeSupervised, Role: RoleSupervisor, SupervisorID: "sup-1"},
	}
	raw, err := params.Value()
	require.NoError(t, err)

	var scanned ReportJobParams
	require.NoError(t, scanned.Scan(raw))
	assert.Equal(t, params, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.Equal(t, ReportJobParams{}, scanned)
	assert.Error(t, scanned.Scan(42))
}

func TestReportStatusAndFormatHelpers(t *testing.T) {
	assert.True(t, ReportStatusFinished.Done())
	assert.True(t, ReportStatusFailed.Done())
	assert.False(t, ReportStatusProcessing.Done())

	assert.Equal(t, "text/csv", ReportFormatCSV.ContentType())
	assert.Equal(t, "application/pdf", ReportFormatPDF.ContentType())
	assert.False(t, ReportFormat("xlsx").Valid())
}

func TestNewAuditLogSkipsEmptyIDs(t *testing.T) {
	log := NewAuditLog("", AuditActionDownload, AuditResourceReportExport, "").
		Change(nil, map[string]int{"status": 200}).
		From("10.0.0.1", "curl")
	assert.Nil(t, log.UserID)
	assert.Nil(t, log.ResourceID)
	assert.Nil(t, log.OldValues)
	assert.JSONEq(t, `{"status":200}`, string(log.NewValues))
	assert.Equal(t, "10.0.0.1", log.IPAddress)
}
