package notify

import (
	"fmt"
	"html"

	"github.com/zetsuserv/support-portal/internal/domain"
)

func wrapBody(title, content string) string {
	return fmt.Sprintf(`
    <html>
    <body style="font-family: Arial, sans-serif; color: #333;">
        <h3 style="color: #0078D4;">%s</h3>
        %s
        <hr>
        <p style="font-size: 12px; color: #666;">Powered by ZetsuServ Support</p>
    </body>
    </html>
    `, html.EscapeString(title), content)
}

// AdminTicketAlert notifies the support inbox about a new ticket.
func AdminTicketAlert(ticket *domain.Ticket) (subject, body string) {
	subject = fmt.Sprintf("New Ticket: %s from %s", ticket.IssueType, ticket.Name)
	content := fmt.Sprintf(`
        <p><strong>Ticket ID:</strong> %s</p>
        <p><strong>Name:</strong> %s</p>
        <p><strong>Email:</strong> %s</p>
        <p><strong>Type:</strong> %s</p>
        <p><strong>Priority:</strong> %s</p>
        <p><strong>Message:</strong><br>%s</p>`,
		html.EscapeString(ticket.TicketID),
		html.EscapeString(ticket.Name),
		html.EscapeString(ticket.Email),
		html.EscapeString(string(ticket.IssueType)),
		html.EscapeString(string(ticket.Priority)),
		html.EscapeString(ticket.Message),
	)
	return subject, wrapBody("New Support Request", content)
}

// UserTicketConfirmation acknowledges receipt to the requester.
func UserTicketConfirmation(ticket *domain.Ticket) (subject, body string) {
	subject = "Your Support Ticket Has Been Received"
	content := fmt.Sprintf(`
        <p>Dear %s,</p>
        <p>We have received your support ticket and our team will get back to you shortly.</p>
        <h4>Your Request Details:</h4>
        <p><strong>Ticket ID:</strong> %s</p>
        <p><strong>Issue Type:</strong> %s</p>
        <p><strong>Message:</strong><br>%s</p>`,
		html.EscapeString(ticket.Name),
		html.EscapeString(ticket.TicketID),
		html.EscapeString(string(ticket.IssueType)),
		html.EscapeString(ticket.Message),
	)
	return subject, wrapBody("Thank You for Contacting ZetsuServ Support", content)
}

// OTPCode carries the registration verification code.
func OTPCode(code string, ttlMinutes int) (subject, body string) {
	subject = "Your Verification Code"
	content := fmt.Sprintf(`
        <p>Your one-time verification code is:</p>
        <p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">%s</p>
        <p>The code expires in %d minutes. Do not share it with anyone.</p>`,
		html.EscapeString(code), ttlMinutes)
	return subject, wrapBody("Email Verification", content)
}

// AdminReply delivers the support answer to the requester.
func AdminReply(ticket *domain.Ticket, reply string) (subject, body string) {
	subject = fmt.Sprintf("Re: Your Support Ticket %s", ticket.TicketID)
	content := fmt.Sprintf(`
        <p>Dear %s,</p>
        <p>Our team has replied to your ticket <strong>%s</strong>:</p>
        <blockquote style="border-left: 3px solid #0078D4; padding-left: 12px;">%s</blockquote>
        <p><strong>Your original message:</strong><br>%s</p>`,
		html.EscapeString(ticket.Name),
		html.EscapeString(ticket.TicketID),
		html.EscapeString(reply),
		html.EscapeString(ticket.Message),
	)
	return subject, wrapBody("Support Reply", content)
}

// NewsBroadcast formats an announcement for newsletter subscribers.
func NewsBroadcast(news *domain.News) (subject, body string) {
	subject = news.Title
	content := fmt.Sprintf(`
        <p>%s</p>
        <p style="font-size: 12px; color: #666;">You are receiving this because you subscribed to the ZetsuServ newsletter.</p>`,
		html.EscapeString(news.Content))
	return subject, wrapBody(news.Title, content)
}
