package templates

import (
	"fmt"
	"html"
)

// RenderVerificationCode generates the branded HTML for a verification code
// email. The code is shown in a large monospace block so it is easy to copy
// on mobile.
func RenderVerificationCode(code string) string {
	safeCode := html.EscapeString(code)

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>Your BloomCart verification code</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f6f4ef; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background: linear-gradient(135deg, #2f9e6e 0%%, #1f7a52 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #333a40; line-height: 1.6; font-size: 15px; text-align: center; }
    .code { display: inline-block; margin: 24px 0; padding: 16px 32px; background-color: #f0ede6; border-radius: 8px; font-family: 'Courier New', monospace; font-size: 32px; font-weight: 700; letter-spacing: 8px; color: #1f7a52; }
    .hint { color: #8a9099; font-size: 13px; }
    .footer { padding: 30px; text-align: center; color: #8a9099; font-size: 12px; border-top: 1px solid #e8e5de; }
    .footer a { color: #2f9e6e; text-decoration: none; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Verify your email</h1>
    </div>
    <div class="content">
      <p>Enter this code to continue:</p>
      <div class="code">%s</div>
      <p class="hint">The code expires in 15 minutes. If you didn't request it, you can ignore this email.</p>
    </div>
    <div class="footer">
      <p>&copy; BloomCart | <a href="https://www.bloomcart.shop">bloomcart.shop</a></p>
      <p><a href="https://www.bloomcart.shop/contact-us">Contact Support</a></p>
    </div>
  </div>
</body>
</html>`, safeCode)
}
