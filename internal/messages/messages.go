// Package messages содержит тексты, которые бот показывает пользователям и модераторам.
// Всё пользовательское содержимое экранируется: сообщения уходят в HTML-разметке.
package messages

import (
	"fmt"
	"strings"

	"github.com/ignatzorin/scam-report-bot/internal/gateway"
	"github.com/ignatzorin/scam-report-bot/internal/models"
)

const (
	Welcome = "Hello, click the button below to create a report. If you want to lookup a user, use the command /lookup"

	CreateReportButton = "Create Report"
	CreateReportToken  = "create_report"

	PromptScammer     = "Enter the Telegram username of the scammer:"
	PromptAmount      = "Enter the amount lost (e.g. $100):"
	PromptDescription = "Describe the scam in detail:"
	PromptProof       = "Paste a link to a Telegram message or channel containing proof (e.g. screenshot, message log):"

	InvalidScammer     = "Invalid Telegram username."
	InvalidAmount      = "Invalid amount. Please try again."
	InvalidDescription = "Description too short or too long. Please try again."
	InvalidProof       = "Invalid proof link. Please try again."

	ReportInvalid   = "Your report contains invalid data. Please restart with /start."
	ReportSubmitted = "Your report has been submitted for review. You will be notified once it is processed."

	MustJoinChannel = "You must join the required channel to submit a report."

	ReporterAccepted = "✅ Your report has been accepted and published. Thank you for helping the community!"
	ReporterDenied   = "❌ Your report was denied by the moderators."

	LookupUsage    = "Please provide a username to lookup."
	LookupNotFound = "No reports found for this user."

	BlacklistUsage = "Usage: /blacklist <user_id> [reason]"

	TooManyRequests = "Too many requests, please slow down."

	AcceptButton    = "✅ Accept"
	DenyButton      = "❌ Deny"
	BlacklistButton = "🚫 Blacklist"
)

// Blacklisted — уведомление пользователю о блокировке.
func Blacklisted(reason string) string {
	text := "🚫 You have been blacklisted from reporting."
	if reason != "" {
		text += "\nReason: " + gateway.Escape(reason)
	}
	return text
}

// ChatID — ответ на /id.
func ChatID(id int64) string {
	return fmt.Sprintf("Channel ID: <code>%d</code>", id)
}

// ReviewPost — карточка жалобы для группы модерации.
func ReviewPost(r *models.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚨 <b>New Scam Report #%d</b>\n\n", r.ID)
	fmt.Fprintf(&b, "<b>Scammer:</b> %s\n", gateway.Escape(r.Scammer))
	if r.ScammerID.Valid {
		fmt.Fprintf(&b, "<b>Scammer ID:</b> <code>%d</code>\n", r.ScammerID.Int64)
	}
	fmt.Fprintf(&b, "<b>Amount Lost:</b> %s\n", gateway.Escape(r.Amount))
	fmt.Fprintf(&b, "<b>Description:</b>\n%s\n", gateway.Escape(r.Description))
	fmt.Fprintf(&b, "<b>Proof:</b> %s\n\n", gateway.Escape(r.ProofLink))
	fmt.Fprintf(&b, "Reporter: %s", gateway.UserLink(r.ReporterID, fmt.Sprint(r.ReporterID)))
	return b.String()
}

// PublicPost — публикация принятой жалобы в публичном канале.
func PublicPost(r *models.Report) string {
	return fmt.Sprintf("⚠️ <b>Scammer Alert!</b>\n\n<b>Scammer:</b> %s\n<b>Amount Lost:</b> %s\n<b>Description:</b>\n%s\n<b>Proof:</b> %s",
		scammerLink(r), gateway.Escape(r.Amount), gateway.Escape(r.Description), gateway.Escape(r.ProofLink))
}

// LookupResult — одна найденная жалоба в ответ на /lookup.
func LookupResult(r *models.Report) string {
	return fmt.Sprintf("<b>Scammer:</b> %s\n<b>Amount Lost:</b> %s\n<b>Description:</b>\n%s\n<b>Proof:</b> %s",
		gateway.Escape(r.Scammer), gateway.Escape(r.Amount), gateway.Escape(r.Description), gateway.Escape(r.ProofLink))
}

// Ссылка по id надёжнее: ник можно сменить.
func scammerLink(r *models.Report) string {
	handle := strings.TrimPrefix(r.Scammer, "@")
	label := "@" + handle
	if r.ScammerID.Valid {
		return gateway.UserLink(r.ScammerID.Int64, label)
	}
	return fmt.Sprintf(`<a href="https://t.me/%s">%s</a>`, gateway.Escape(handle), gateway.Escape(label))
}

func ReviewAccepted(reportID, adminID int64) string {
	return fmt.Sprintf("✅ Report #%d accepted by %s", reportID, gateway.UserLink(adminID, fmt.Sprint(adminID)))
}

func ReviewDenied(reportID, adminID int64) string {
	return fmt.Sprintf("❌ Report #%d denied by %s", reportID, gateway.UserLink(adminID, fmt.Sprint(adminID)))
}

func ReviewBlacklisted(reporterID, adminID int64) string {
	return fmt.Sprintf("🚫 User %s has been blacklisted by %s",
		gateway.UserLink(reporterID, fmt.Sprint(reporterID)), gateway.UserLink(adminID, fmt.Sprint(adminID)))
}

// ReviewAlreadySettled — пометка для модераторов о запоздавшем решении.
func ReviewAlreadySettled(reportID int64, status string, adminID int64) string {
	return fmt.Sprintf("ℹ️ Report #%d is already %s; decision by %s ignored",
		reportID, status, gateway.UserLink(adminID, fmt.Sprint(adminID)))
}

func AlreadySettled(status string) string {
	return "Report is already " + status
}

func UserBlacklistedAck(userID int64, reason string) string {
	text := fmt.Sprintf("User %d has been blacklisted.", userID)
	if reason != "" {
		text += " Reason: " + gateway.Escape(reason)
	}
	return text
}

func ExportFailed(reason string) string {
	return "Failed to export CSV: " + reason
}

func ExportCaption(reporters int, tookMillis float64) string {
	return fmt.Sprintf("Total Users: %d\nTime taken to export: %.2f ms", reporters, tookMillis)
}

// ReviewControls — кнопки решения под карточкой жалобы.
func ReviewControls(accept, deny, blacklist string) gateway.Controls {
	return gateway.Controls{{
		{Text: AcceptButton, Data: accept},
		{Text: DenyButton, Data: deny},
		{Text: BlacklistButton, Data: blacklist},
	}}
}

func StartControls() gateway.Controls {
	return gateway.Controls{{{Text: CreateReportButton, Data: CreateReportToken}}}
}
