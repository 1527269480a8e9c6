package email

import "html/template"

const (
	subjectVerify  = "Verify your email address"
	subjectReset   = "Reset your password"
	subjectWelcome = "Welcome to Auth Boilerplate!"
)

type templateData struct {
	Name string
	Link string
}

func greetingName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}

const layout = `{{define "button"}}<div style="text-align: center; margin: 30px 0;">
  <a href="{{.Link}}" style="background-color: {{.Color}}; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">{{.Label}}</a>
</div>{{end}}`

type buttonData struct {
	Link  string
	Color string
	Label string
}

var funcs = template.FuncMap{
	"button": func(link, color, label string) buttonData {
		return buttonData{Link: link, Color: color, Label: label}
	},
}

var templates = template.Must(template.New("email").Funcs(funcs).Parse(layout + `
{{define "verify"}}<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #2563eb;">Verify Your Email Address</h1>
  <p>Hi {{.Name}},</p>
  <p>Thank you for signing up! Please verify your email address by clicking the button below:</p>
  {{template "button" (button .Link "#2563eb" "Verify Email")}}
  <p>Or copy and paste this link into your browser:</p>
  <p style="word-break: break-all; color: #666;">{{.Link}}</p>
  <p>This link will expire in 24 hours.</p>
  <p>If you didn't create an account, you can safely ignore this email.</p>
</body>
</html>{{end}}

{{define "reset"}}<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #dc2626;">Reset Your Password</h1>
  <p>Hi {{.Name}},</p>
  <p>You requested to reset your password. Click the button below to create a new password:</p>
  {{template "button" (button .Link "#dc2626" "Reset Password")}}
  <p>Or copy and paste this link into your browser:</p>
  <p style="word-break: break-all; color: #666;">{{.Link}}</p>
  <p>This link will expire in 1 hour.</p>
  <p>If you didn't request a password reset, you can safely ignore this email.</p>
</body>
</html>{{end}}

{{define "welcome"}}<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #059669;">Welcome to Auth Boilerplate!</h1>
  <p>Hi {{.Name}},</p>
  <p>Welcome to our platform! Your account has been successfully verified and you're ready to get started.</p>
  {{template "button" (button .Link "#059669" "Go to Dashboard")}}
  <p>If you have any questions, feel free to reach out to our support team.</p>
  <p>Thanks for joining us!</p>
</body>
</html>{{end}}
`))
