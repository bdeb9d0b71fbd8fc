package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
)

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendInvitationEmail sends the invitation link through the configured
// HTTP email API. Delivery is best-effort; callers log and carry on when
// it fails, the token itself stays valid.
func SendInvitationEmail(toEmail, inviterName, groupName, invitationToken string) error {
	apiURL := os.Getenv("EMAIL_API_URL")
	apiKey := os.Getenv("EMAIL_API_KEY")
	if apiURL == "" || apiKey == "" {
		slog.Warn("email API not configured, skipping invitation email", "to", toEmail)
		return nil
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}
	invitationLink := fmt.Sprintf("%s/invitation/accept?token=%s", frontendURL, invitationToken)

	htmlBody := fmt.Sprintf(`
		<h2>You're invited!</h2>
		<p>%s invited you to join the gift group <strong>%s</strong>.</p>
		<p><a href="%s">Accept the invitation</a></p>
		<p>This link expires in 7 days.</p>
	`, inviterName, groupName, invitationLink)

	payload, err := json.Marshal(emailRequest{
		From:    os.Getenv("EMAIL_FROM"),
		To:      []string{toEmail},
		Subject: fmt.Sprintf("%s invited you to %s", inviterName, groupName),
		HTML:    htmlBody,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("email API returned status %d", resp.StatusCode)
	}
	return nil
}
