package templates

import (
	"fmt"
	"html"
)

// RenderCode generates the branded HTML body for a verification code email.
// Name may be empty; code is displayed in a large spaced block.
func RenderCode(name, code string) string {
	greeting := "Hello"
	if name != "" {
		greeting = "Hello " + html.EscapeString(name)
	}
	safeCode := html.EscapeString(code)

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>Email Verification</title>
  <style type="text/css">
    body { font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f4f4f4; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; padding: 30px; border-radius: 10px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
    .header { text-align: center; color: #000; }
    .code { background-color: #f0f0f0; padding: 20px; border-radius: 5px; text-align: center; margin: 20px 0; }
    .code h1 { color: #000; letter-spacing: 8px; margin: 0; }
    .content { color: #666; line-height: 1.6; font-size: 15px; }
    .footer { color: #999; font-size: 12px; text-align: center; border-top: 1px solid #eee; margin-top: 30px; padding-top: 20px; }
  </style>
</head>
<body>
  <div class="container">
    <h2 class="header">Aero GenV</h2>
    <h3>Email Verification</h3>
    <div class="content">
      <p>%s,</p>
      <p>Thank you for signing up! Please use the following verification code to complete your registration:</p>
    </div>
    <div class="code">
      <h1>%s</h1>
    </div>
    <div class="content">
      <p>This code will expire in 10 minutes.</p>
      <p>If you didn't request this code, please ignore this email.</p>
    </div>
    <div class="footer">
      <p>Aero GenV - RC Aircraft Club</p>
    </div>
  </div>
</body>
</html>`, greeting, safeCode)
}
