package echoapi

import (
	"fmt"
	htmltmpl "html/template"
	"net/mail"
	"strings"
	texttmpl "text/template"
	"time"

	"github.com/pkg/errors"

	"github.com/aliqadomi777/front-end-lms/core"
	"github.com/aliqadomi777/front-end-lms/core/user"
)

var (
	resetPasswordText = texttmpl.Must(texttmpl.New("reset_password.txt").Parse(`Hi {{.Name}},

You asked to reset the password of your {{.AppName}} account. Follow this link to choose a new one:

{{.Link}}

The link expires in {{.Expiry}}. If you did not ask for a reset, you can ignore this email.
`))

	resetPasswordHTML = htmltmpl.Must(htmltmpl.New("reset_password.html").Parse(`<p>Hi {{.Name}},</p>
<p>You asked to reset the password of your {{.AppName}} account.</p>
<p><a href="{{.Link}}">Choose a new password</a></p>
<p>The link expires in {{.Expiry}}. If you did not ask for a reset, you can ignore this email.</p>
`))
)

type resetPasswordData struct {
	Name    string
	AppName string
	Link    string
	Expiry  string
}

func resetPasswordEmail(usr user.User, appName, link string, expiry time.Duration) (*core.EmailMessage, error) {
	data := resetPasswordData{Name: usr.Name, AppName: appName, Link: link, Expiry: humanDuration(expiry)}

	var text, html strings.Builder
	if err := resetPasswordText.Execute(&text, data); err != nil {
		return nil, errors.Wrap(err, "rendering text email")
	}
	if err := resetPasswordHTML.Execute(&html, data); err != nil {
		return nil, errors.Wrap(err, "rendering html email")
	}
	return &core.EmailMessage{
		To:          []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:     "Reset your password",
		TextContent: text.String(),
		HTMLContent: html.String(),
	}, nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if h := int(d / time.Hour); h != 1 {
			return fmt.Sprintf("%d hours", h)
		}
		return "1 hour"
	case d >= time.Minute:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
	return d.String()
}
