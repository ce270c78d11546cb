package notify

import (
	"fmt"
	"time"
)

// OTPSubject is the fixed subject line for verification emails.
const OTPSubject = "Your TrustReach verification code"

// OTPEmail renders the HTML and plaintext bodies for a verification email
// containing the passcode and its expiry notice.
func OTPEmail(code string, ttl time.Duration) (htmlBody, textBody string) {
	minutes := int(ttl.Minutes())

	htmlBody = fmt.Sprintf(`<div style="font-family:Arial,sans-serif;max-width:480px;margin:0 auto">
  <h2>Verify your contact details</h2>
  <p>Use the code below to complete your verification on TrustReach:</p>
  <p style="font-size:28px;font-weight:bold;letter-spacing:6px">%s</p>
  <p>This code expires in %d minutes.</p>
  <p>If you did not request this code, you can ignore this email.</p>
</div>`, code, minutes)

	textBody = fmt.Sprintf(`Verify your contact details

Use the code below to complete your verification on TrustReach:

    %s

This code expires in %d minutes.

If you did not request this code, you can ignore this email.
`, code, minutes)

	return htmlBody, textBody
}
