package email

import (
	"fmt"
)

// StaffOnboardingData contains the data for the staff onboarding email.
type StaffOnboardingData struct {
	To           string
	FullName     string
	Username     string
	TempPassword string
	LoginURL     string
	AppName      string
}

// BuildStaffOnboardingEmail creates the welcome message sent to newly
// registered staff, carrying their generated temporary password.
func BuildStaffOnboardingEmail(data StaffOnboardingData) Message {
	appName := data.AppName
	if appName == "" {
		appName = "Clinic Admin"
	}

	name := data.FullName
	if name == "" {
		name = "there"
	}

	subject := fmt.Sprintf("Your %s account is ready", appName)

	loginLine := ""
	loginButton := ""
	if data.LoginURL != "" {
		loginLine = fmt.Sprintf("\nSign in here: %s\n", data.LoginURL)
		loginButton = fmt.Sprintf(`
    <p style="text-align: center; margin: 30px 0;">
        <a href="%s" style="background-color: #2563eb; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Sign In</a>
    </p>`, data.LoginURL)
	}

	textBody := fmt.Sprintf(`Hi %s,

An account has been created for you on %s.

Username: %s
Temporary password: %s
%s
Please change this password after your first sign-in.

Thanks,
The %s Team`,
		name, appName, data.Username, data.TempPassword, loginLine, appName)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #2563eb;">Hi %s,</h2>
    <p>An account has been created for you on %s.</p>
    <p style="background-color: #f3f4f6; padding: 15px; border-radius: 6px;">
        Username: <strong style="font-family: monospace;">%s</strong><br>
        Temporary password: <strong style="font-family: monospace;">%s</strong>
    </p>%s
    <p style="color: #ef4444; font-size: 14px;">Please change this password after your first sign-in.</p>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">Thanks,<br>The %s Team</p>
</body>
</html>`,
		name, appName, data.Username, data.TempPassword, loginButton, appName)

	return Message{
		To:       []string{data.To},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
}

// PasswordResetData contains the data for the password reset email.
type PasswordResetData struct {
	To           string
	FullName     string
	TempPassword string
	AppName      string
}

// BuildPasswordResetEmail creates the message sent when an admin resets
// a staff member's password.
func BuildPasswordResetEmail(data PasswordResetData) Message {
	appName := data.AppName
	if appName == "" {
		appName = "Clinic Admin"
	}

	name := data.FullName
	if name == "" {
		name = "there"
	}

	subject := fmt.Sprintf("Your %s password was reset", appName)

	textBody := fmt.Sprintf(`Hi %s,

Your password on %s has been reset by an administrator.

Temporary password: %s

Please change this password after your next sign-in. If you did not
expect this, contact your administrator.

Thanks,
The %s Team`,
		name, appName, data.TempPassword, appName)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #2563eb;">Hi %s,</h2>
    <p>Your password on %s has been reset by an administrator.</p>
    <p style="background-color: #f3f4f6; padding: 15px; border-radius: 6px;">
        Temporary password: <strong style="font-family: monospace;">%s</strong>
    </p>
    <p style="color: #ef4444; font-size: 14px;">Please change this password after your next sign-in. If you did not expect this, contact your administrator.</p>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">Thanks,<br>The %s Team</p>
</body>
</html>`,
		name, appName, data.TempPassword, appName)

	return Message{
		To:       []string{data.To},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
}
