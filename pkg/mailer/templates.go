package mailer

import (
	"bytes"
	"fmt"
	htmpl "html/template"
	"time"
)

const verificationSubject = "Verification code - Conexión Carga"

var verificationHTML = htmpl.Must(htmpl.New("verification").Parse(`<p>Hola,</p>
<p>Tu código de verificación es:
   <strong style="font-size:20px;letter-spacing:2px">{{.Code}}</strong></p>
<p>Vence en <strong>{{.Minutes}}</strong> minutos.</p>
<p style="color:#666;font-size:12px">Si no solicitaste este código, ignora este correo.</p>
`))

// VerificationEmail renders the subject, plain text and HTML bodies of a verification code email.
func VerificationEmail(code string, ttl time.Duration) (subject, text, html string, err error) {
	minutes := int(ttl / time.Minute)
	text = fmt.Sprintf("Hola,\nTu código de verificación es: %s\nVence en %d minutos.\n\n"+
		"Si no solicitaste este código, ignora este correo.", code, minutes)

	var buf bytes.Buffer
	data := struct {
		Code    string
		Minutes int
	}{code, minutes}
	if err := verificationHTML.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("render verification email: %w", err)
	}
	return verificationSubject, text, buf.String(), nil
}
