package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/anjiri1684/tutor_connect/models"
	"go.uber.org/zap"
)

const brevoEndpoint = "https://api.brevo.com/v3/smtp/email"

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoPayload struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

// EmailNotifier mails tutors through the Brevo transactional API when their sessions are
// booked or reviewed.
type EmailNotifier struct {
	apiKey     string
	sender     brevoContact
	endpoint   string
	httpClient *http.Client
	log        *zap.Logger
}

func NewEmailNotifier(apiKey, senderEmail, senderName string, log *zap.Logger) *EmailNotifier {
	return &EmailNotifier{
		apiKey:     apiKey,
		sender:     brevoContact{Email: senderEmail, Name: senderName},
		endpoint:   brevoEndpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

func (n *EmailNotifier) SessionBooked(session models.Session) {
	if session.Tutor == nil {
		return
	}
	student := "A student"
	if session.Student != nil {
		student = session.Student.Name
	}
	body := fmt.Sprintf("<h1>Session booked</h1><p>%s booked <b>%s</b> on %s (%d minutes).</p>",
		html.EscapeString(student),
		html.EscapeString(session.Title),
		session.Date.UTC().Format("Mon, 02 Jan 2006 15:04 MST"),
		session.Duration,
	)
	go n.deliver(session.Tutor.Email, session.Tutor.Name, "Your session was booked", body)
}

func (n *EmailNotifier) ReviewSubmitted(review models.Review, tutor models.User) {
	title := ""
	if review.Session != nil {
		title = review.Session.Title
	}
	body := fmt.Sprintf("<h1>New review</h1><p>You received %d/5 for <b>%s</b>.</p><p>%s</p><p>Your rating is now %.2f over %d reviews.</p>",
		review.Rating,
		html.EscapeString(title),
		html.EscapeString(review.Comment),
		tutor.Rating,
		tutor.TotalReviews,
	)
	go n.deliver(tutor.Email, tutor.Name, "You have a new review", body)
}

func (n *EmailNotifier) deliver(toEmail, toName, subject, htmlContent string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := n.send(ctx, toEmail, toName, subject, htmlContent); err != nil {
		n.log.Warn("email delivery failed", zap.String("to", toEmail), zap.String("subject", subject), zap.Error(err))
		return
	}
	n.log.Debug("email sent", zap.String("to", toEmail), zap.String("subject", subject))
}

func (n *EmailNotifier) send(ctx context.Context, toEmail, toName, subject, htmlContent string) error {
	at := strings.Index(toEmail, "@")
	if at <= 0 {
		return fmt.Errorf("invalid recipient email: %q", toEmail)
	}
	if toName == "" {
		toName = toEmail[:at]
	}

	payload, err := json.Marshal(brevoPayload{
		Sender:      n.sender,
		To:          []brevoContact{{Email: toEmail, Name: toName}},
		Subject:     subject,
		HTMLContent: htmlContent,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("api-key", n.apiKey)
	req.Header.Set("content-type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("brevo returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
