package service

import (
	"fmt"

	"formacion_residuos_backend/internal/config"
	"formacion_residuos_backend/pkg/logger"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// EmailService envía los correos transaccionales del portal. Si no hay
// servidor SMTP configurado (entorno de desarrollo), los enlaces se
// escriben en el log en lugar de enviarse.
type EmailService struct {
	Config *config.Config
	dialer *gomail.Dialer
}

func NewEmailService(cfg *config.Config) *EmailService {
	s := &EmailService{Config: cfg}
	if cfg.SMTP.Host != "" {
		s.dialer = gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password)
	}
	return s
}

func (s *EmailService) send(to, subject, htmlBody string) error {
	if s.dialer == nil {
		logger.Log.Info("SMTP no configurado, email no enviado",
			zap.String("to", to),
			zap.String("subject", subject))
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.Config.SMTP.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	return s.dialer.DialAndSend(m)
}

// SendVerification envía el enlace de verificación de cuenta.
func (s *EmailService) SendVerification(to, name, token string) error {
	link := fmt.Sprintf("%s/verificar-email?token=%s", s.Config.App.FrontendURL, token)
	if s.dialer == nil {
		logger.Log.Info("enlace de verificación (modo desarrollo)",
			zap.String("to", to), zap.String("link", link))
		return nil
	}
	body := fmt.Sprintf(`
		<h2>Bienvenido/a al portal de formación, %s</h2>
		<p>Para activar tu cuenta pulsa el siguiente enlace:</p>
		<p><a href="%s">Verificar mi cuenta</a></p>
		<p>Si no te has registrado en el portal, ignora este mensaje.</p>`, name, link)
	return s.send(to, "Verifica tu cuenta - Portal de Formación", body)
}

// SendPasswordReset envía el enlace de recuperación de contraseña.
func (s *EmailService) SendPasswordReset(to, name, token string) error {
	link := fmt.Sprintf("%s/restablecer?token=%s", s.Config.App.FrontendURL, token)
	if s.dialer == nil {
		logger.Log.Info("enlace de recuperación (modo desarrollo)",
			zap.String("to", to), zap.String("link", link))
		return nil
	}
	body := fmt.Sprintf(`
		<h2>Hola, %s</h2>
		<p>Has solicitado restablecer tu contraseña. Pulsa el siguiente enlace:</p>
		<p><a href="%s">Restablecer contraseña</a></p>
		<p>El enlace caduca en breve. Si no fuiste tú, ignora este mensaje.</p>`, name, link)
	return s.send(to, "Recuperación de contraseña - Portal de Formación", body)
}

// SendCertificateReady avisa de que el certificado firmado está disponible.
func (s *EmailService) SendCertificateReady(to, name, verificationCode string) error {
	link := fmt.Sprintf("%s/verificar/%s", s.Config.App.FrontendURL, verificationCode)
	body := fmt.Sprintf(`
		<h2>Enhorabuena, %s</h2>
		<p>Tu certificado de formación ya está firmado y disponible para descarga
		desde tu área personal.</p>
		<p>Cualquier tercero puede comprobar su autenticidad en:</p>
		<p><a href="%s">%s</a></p>`, name, link, link)
	return s.send(to, "Tu certificado está disponible - Portal de Formación", body)
}
