package util

import "errors"

var (
	// Identidad y registro
	ErrInvalidDocument    = errors.New("DNI/NIE no válido")
	ErrInvalidPostalCode  = errors.New("código postal no válido")
	ErrInvalidPhone       = errors.New("teléfono no válido")
	ErrDNIRegistered      = errors.New("ya existe un usuario registrado con este DNI/NIE")
	ErrEmailRegistered    = errors.New("ya existe un usuario registrado con este email")
	ErrAddressRegistered  = errors.New("ya existe un usuario registrado en esta vivienda")
	ErrInvalidCredentials = errors.New("email o contraseña incorrectos")
	ErrInvalidToken       = errors.New("token inválido o expirado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailNotVerified   = errors.New("debes verificar tu email antes de continuar")
	ErrAlreadyVerified    = errors.New("el email ya está verificado")

	// Módulos
	ErrModuleNotFound      = errors.New("módulo no encontrado")
	ErrPreviousIncomplete  = errors.New("debes completar el módulo anterior antes de acceder a este")
	ErrNoProgress          = errors.New("debes visualizar el contenido antes de completar el módulo")
	ErrInsufficientViewing = errors.New("tiempo de visualización insuficiente")

	// Examen
	ErrTrainingIncomplete = errors.New("debes completar todos los módulos antes de realizar el examen")
	ErrNoAttemptsLeft     = errors.New("has agotado todos los intentos de examen")
	ErrAlreadyPassed      = errors.New("ya has aprobado el examen")
	ErrExamInProgress     = errors.New("ya tienes un examen en curso")
	ErrExamNotFound       = errors.New("examen no encontrado")
	ErrExamFinished       = errors.New("este examen ya ha sido finalizado")
	ErrExamNotFinished    = errors.New("este examen aún no ha sido finalizado")
	ErrQuestionNotInExam  = errors.New("esta pregunta no pertenece al examen")
	ErrInvalidOption      = errors.New("índice de opción fuera de rango")
	ErrNotEnoughQuestions = errors.New("no hay suficientes preguntas disponibles")

	// Certificado
	ErrNoPassingExam       = errors.New("debes aprobar el examen antes de solicitar el certificado")
	ErrCertNotFound        = errors.New("certificado no encontrado")
	ErrCertAlreadySigned   = errors.New("el certificado ya ha sido firmado")
	ErrCertNotSigned       = errors.New("el certificado aún no ha sido firmado")
)
