package notify

import "fmt"

const bodyStyle = `font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 40px 20px;`

func waitlistWelcome(name string) (subject, html string) {
	subject = "Welcome to Motion Curator!"

	greeting := "Hi there,"
	if name != "" {
		greeting = fmt.Sprintf("Hi %s,", name)
	}

	html = fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="%s">
  <p>%s</p>
  <p>Thank you for joining the waitlist! We're excited to have you on board.</p>
  <p>We're building a platform to help research labs and robot operators collect,
     manage, and improve robot motion data. You'll be among the first to know when
     we launch.</p>
  <p>In the meantime, if you have any questions or ideas, feel free to reach out.</p>
  <p>The Motion Curator Team</p>
</body>
</html>`, bodyStyle, greeting)
	return subject, html
}

func labRequestConfirmation(name, org string) (subject, html string) {
	subject = "We received your lab integration request"

	html = fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="%s">
  <p>Hi %s,</p>
  <p>Thanks for requesting an integration for %s. Our team reviews every
     request and will get back to you shortly.</p>
  <p>The Motion Curator Team</p>
</body>
</html>`, bodyStyle, name, org)
	return subject, html
}

func labRequestAdminNotification(payload map[string]string) (subject, html string) {
	subject = fmt.Sprintf("New lab request: %s (%s)", payload["org"], payload["name"])

	html = fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="%s">
  <p>New lab integration request:</p>
  <ul>
    <li>Name: %s</li>
    <li>Email: %s</li>
    <li>Org: %s</li>
    <li>Use case: %s</li>
  </ul>
</body>
</html>`, bodyStyle, payload["name"], payload["email"], payload["org"], payload["use_case"])
	return subject, html
}
