package validation

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/scam-report-bot/internal/pkg/apperror"
)

func TestValidateScammerHandle(t *testing.T) {
	valid := []string{"alice99", "scammeruser", "Bob_the_builder", "abcde", "a" + strings.Repeat("b", 31)}
	for _, h := range valid {
		assert.NoError(t, ValidateScammerHandle(h), h)
	}

	invalidHandles := []string{
		"",
		"@al_ice99",
		"_alice",
		"9alice",
		"alice_",
		"al__ice",
		"abcd",
		"a" + strings.Repeat("b", 32),
		"alice bob",
		"alice-99",
	}
	for _, h := range invalidHandles {
		err := ValidateScammerHandle(h)
		assert.Error(t, err, h)
		assert.True(t, apperror.IsValidation(err), h)
	}
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, ValidateAmount("$50"))
	assert.NoError(t, ValidateAmount("1"))
	assert.Error(t, ValidateAmount("   "))
	assert.Error(t, ValidateAmount(strings.Repeat("9", 33)))
}

func TestValidateDescription_CountsRunes(t *testing.T) {
	assert.NoError(t, ValidateDescription("Took my money and blocked me"))
	assert.Error(t, ValidateDescription("shrt"))
	// пять кириллических символов — это пять рун, хотя байтов десять
	assert.NoError(t, ValidateDescription("обман"))
	assert.Error(t, ValidateDescription(strings.Repeat("x", 2049)))
}

func TestValidateProofLink(t *testing.T) {
	assert.NoError(t, ValidateProofLink("https://t.me/c/123/45"))
	assert.NoError(t, ValidateProofLink("see pinned message"))
	assert.Error(t, ValidateProofLink("t.me"))
	assert.Error(t, ValidateProofLink(strings.Repeat("x", 513)))
}

func TestValidateReport(t *testing.T) {
	in := ReportInput{
		ReporterID:  111,
		Scammer:     "scammeruser",
		Amount:      "$50",
		Description: "Took my money and blocked me",
		ProofLink:   "https://t.me/c/123/45",
	}
	assert.NoError(t, ValidateReport(in))

	withID := in
	withID.ScammerID = sql.NullInt64{Int64: 5550001, Valid: true}
	assert.NoError(t, ValidateReport(withID))

	noReporter := in
	noReporter.ReporterID = 0
	assert.Error(t, ValidateReport(noReporter))

	badScammerID := in
	badScammerID.ScammerID = sql.NullInt64{Int64: -100, Valid: true}
	assert.Error(t, ValidateReport(badScammerID))

	corrupted := in
	corrupted.Scammer = "_broken"
	assert.Error(t, ValidateReport(corrupted))
}
