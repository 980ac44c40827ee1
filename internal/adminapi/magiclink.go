package adminapi

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/coursekit/commerce/pkg/common"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

const magicLinkTTL = 15 * time.Minute

type magicLinkPayload struct {
	Email string `json:"email" validate:"required,email"`
	Send  bool   `json:"send"`
}

// createMagicLink issues a short-lived signed login URL for an email
// address. Secret gating happens in middleware before this runs.
func createMagicLink(c echo.Context) error {
	var payload magicLinkPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse magic link input", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid email", err.Error())
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        common.UUID(),
		Subject:   payload.Email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(magicLinkTTL)),
		Issuer:    deps.Config.System.Appid,
	})
	signed, err := token.SignedString([]byte(deps.Config.Web.Secret))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to sign login token", err.Error())
	}

	loginURL := fmt.Sprintf("%s?token=%s&email=%s",
		deps.Config.Web.LoginURL, signed, url.QueryEscape(payload.Email))

	if payload.Send {
		if err := sendMagicLinkMail(payload.Email, loginURL); err != nil {
			zap.L().Warn("magic link mail delivery failed",
				zap.String("email", payload.Email), zap.Error(err))
			return ok(c, echo.Map{"url": loginURL, "sent": false})
		}
		return ok(c, echo.Map{"url": loginURL, "sent": true})
	}

	return ok(c, echo.Map{"url": loginURL})
}

func sendMagicLinkMail(email, loginURL string) error {
	mailer := deps.Config.Mailer
	if mailer.SMTPHost == "" {
		return fmt.Errorf("mailer not configured")
	}
	m := gomail.NewMessage()
	m.SetHeader("From", mailer.From)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Your login link")
	m.SetBody("text/html", fmt.Sprintf(`<p>Click to sign in: <a href="%s">%s</a></p>`, loginURL, loginURL))

	d := gomail.NewDialer(mailer.SMTPHost, mailer.SMTPPort, mailer.Username, mailer.Password)
	return d.DialAndSend(m)
}
