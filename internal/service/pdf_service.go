package service

import (
	"bytes"
	"fmt"

	"formacion_residuos_backend/internal/config"
	"formacion_residuos_backend/internal/model"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// PDFService genera el certificado en PDF con el código QR de verificación
// pública. Solo se renderiza para certificados ya firmados.
type PDFService struct {
	Config *config.Config
}

func NewPDFService(cfg *config.Config) *PDFService {
	return &PDFService{Config: cfg}
}

// RenderCertificate produce el PDF del certificado en memoria.
func (s *PDFService) RenderCertificate(cert *model.Certificate) ([]byte, error) {
	verifyURL := fmt.Sprintf("%s/verificar/%s", s.Config.App.FrontendURL, cert.VerificationCode)
	qrPNG, err := qrcode.Encode(verifyURL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("generando QR: %w", err)
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	// gofpdf trabaja en cp1252; los textos llevan acentos
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()

	// Marco doble
	pdf.SetDrawColor(34, 85, 51)
	pdf.SetLineWidth(1.2)
	pdf.Rect(8, 8, pageW-16, pageH-16, "D")
	pdf.SetLineWidth(0.3)
	pdf.Rect(11, 11, pageW-22, pageH-22, "D")

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(90, 90, 90)
	pdf.SetXY(0, 22)
	pdf.CellFormat(pageW, 8, tr(fmt.Sprintf("Ayuntamiento de %s", s.Config.App.Locality)), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetTextColor(34, 85, 51)
	pdf.SetXY(0, 38)
	pdf.CellFormat(pageW, 12, tr("Certificado de Formación"), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.SetTextColor(60, 60, 60)
	pdf.SetXY(0, 52)
	pdf.CellFormat(pageW, 8, tr("Gestión de Residuos Domésticos y Recogida Puerta a Puerta"), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 13)
	pdf.SetXY(0, 72)
	pdf.CellFormat(pageW, 8, tr("Se certifica que"), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetXY(0, 82)
	pdf.CellFormat(pageW, 10, tr(cert.User.FullName()), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(60, 60, 60)
	pdf.SetXY(0, 94)
	pdf.CellFormat(pageW, 7, tr(fmt.Sprintf("con documento %s", cert.User.DNI)), "", 1, "C", false, 0, "")

	pdf.SetXY(0, 106)
	pdf.CellFormat(pageW, 7, tr(fmt.Sprintf(
		"ha completado la formación y superado la evaluación con una puntuación del %.1f%%",
		cert.ExamScore)), "", 1, "C", false, 0, "")

	pdf.SetXY(0, 114)
	pdf.CellFormat(pageW, 7, tr(fmt.Sprintf("Fecha de emisión: %s", cert.IssuedAt.Format("02/01/2006"))), "", 1, "C", false, 0, "")

	// Bloque de firma a la izquierda
	pdf.SetFont("Helvetica", "I", 10)
	pdf.SetTextColor(90, 90, 90)
	pdf.SetXY(30, pageH-55)
	pdf.CellFormat(90, 6, tr("Firmado electrónicamente"), "", 1, "L", false, 0, "")
	pdf.SetX(30)
	pdf.CellFormat(90, 6, tr(fmt.Sprintf("Referencia de firma: %s", cert.SignatureID)), "", 1, "L", false, 0, "")
	if cert.SignedAt != nil {
		pdf.SetX(30)
		pdf.CellFormat(90, 6, tr(fmt.Sprintf("Fecha de firma: %s", cert.SignedAt.Format("02/01/2006 15:04"))), "", 1, "L", false, 0, "")
	}

	// QR de verificación a la derecha
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", pageW-70, pageH-72, 40, 40, false, opts, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(pageW-80, pageH-31)
	pdf.CellFormat(60, 5, tr("Verificación de autenticidad:"), "", 1, "C", false, 0, "")
	pdf.SetX(pageW - 80)
	pdf.CellFormat(60, 5, cert.VerificationCode, "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("generando PDF: %w", err)
	}
	return buf.Bytes(), nil
}
