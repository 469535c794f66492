// Package i18n translates user-facing messages. Spanish is the default language.
package i18n

import (
	"context"
	"fmt"
	"strings"
)

const DefaultLang = "es"

type ctxKey struct{}

var catalog = map[string]map[string]string{
	"es": {
		"required":                    "Requerido",
		"must_be_positive":            "Debe ser mayor que cero",
		"out_of_range":                "Fuera de rango",
		"too_long":                    "Demasiado largo",
		"invalid_email":               "Correo electrónico inválido",
		"invalid_phone":               "Teléfono inválido",
		"invalid_product_code":        "El código debe tener el formato ABC-123",
		"password_too_short":          "La contraseña debe tener al menos 8 caracteres",
		"password_needs_digit":        "La contraseña debe contener al menos un número",
		"password_mismatch":           "Las contraseñas no coinciden",
		"sale_empty":                  "Seleccione productos para realizar la venta",
		"purchase_empty":              "Seleccione productos para realizar la compra",
		"sale_created":                "Venta y factura creadas exitosamente. Factura N° %s",
		"purchase_created":            "Compra y factura creadas exitosamente. Factura N° %s",
		"sale_failed":                 "Error al registrar la venta: %s",
		"purchase_failed":             "Error al registrar la compra: %s",
		"invalid_credentials":         "Correo o contraseña incorrectos",
		"registration_done":           "Cuenta activada, ya puede iniciar sesión",
		"registration_unknown":        "No existe un empleado con ese correo",
		"registration_already_active": "La cuenta ya se encuentra activa",
		"saved":                       "Guardado correctamente",
		"deleted":                     "Eliminado correctamente",
		"not_found":                   "Registro no encontrado",
		"duplicate":                   "Ya existe un registro con esos datos",
		"in_use":                      "El registro está en uso y no puede eliminarse",
		"wrong_current_password":      "La contraseña actual es incorrecta",
		"invalid_profile":             "Revise los datos del perfil",
		"profile_updated":             "El empleado se ha modificado correctamente",
		"invalid_kind":                "Tipo de transacción desconocido",
		"invalid_input":               "Datos inválidos",
		"forbidden":                   "No tiene permisos para esta acción",
		"logged_out":                  "Sesión cerrada",
		"invalid_number":              "Número inválido",
		"internal_error":              "Error interno",
	},
	"en": {
		"required":                    "Required",
		"must_be_positive":            "Must be greater than zero",
		"out_of_range":                "Out of range",
		"too_long":                    "Too long",
		"invalid_email":               "Invalid email",
		"invalid_phone":               "Invalid phone number",
		"invalid_product_code":        "Code must look like ABC-123",
		"password_too_short":          "Password must be at least 8 characters long",
		"password_needs_digit":        "Password must contain a digit",
		"password_mismatch":           "Passwords do not match",
		"sale_empty":                  "Select products to record the sale",
		"purchase_empty":              "Select products to record the purchase",
		"sale_created":                "Sale and invoice created. Invoice No. %s",
		"purchase_created":            "Purchase and invoice created. Invoice No. %s",
		"sale_failed":                 "Could not record the sale: %s",
		"purchase_failed":             "Could not record the purchase: %s",
		"invalid_credentials":         "Invalid email or password",
		"registration_done":           "Account activated, you can now sign in",
		"registration_unknown":        "No employee with that email",
		"registration_already_active": "The account is already active",
		"saved":                       "Saved",
		"deleted":                     "Deleted",
		"not_found":                   "Record not found",
		"duplicate":                   "A record with that data already exists",
		"in_use":                      "The record is in use and cannot be deleted",
		"wrong_current_password":      "Current password is incorrect",
		"invalid_profile":             "Check the profile data",
		"profile_updated":             "Profile updated",
		"invalid_kind":                "Unknown transaction kind",
		"invalid_input":               "Invalid input",
		"forbidden":                   "You are not allowed to do that",
		"logged_out":                  "Signed out",
		"invalid_number":              "Invalid number",
		"internal_error":              "Internal error",
	},
}

// DetectLanguage picks a supported language from an Accept-Language header.
func DetectLanguage(acceptLanguage string) string {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		tag, _, _ = strings.Cut(tag, ";")
		base, _, _ := strings.Cut(tag, "-")
		if _, ok := catalog[base]; ok {
			return base
		}
	}
	return DefaultLang
}

// Supported reports whether lang has a catalog.
func Supported(lang string) bool {
	_, ok := catalog[lang]
	return ok
}

// T translates code, falling back to Spanish and then to the code itself.
func T(lang, code string) string {
	if msgs, ok := catalog[lang]; ok {
		if msg, ok := msgs[code]; ok {
			return msg
		}
	}
	if msg, ok := catalog[DefaultLang][code]; ok {
		return msg
	}
	return code
}

// Tf translates code and formats it with args.
func Tf(lang, code string, args ...any) string {
	return fmt.Sprintf(T(lang, code), args...)
}

// WithLang stores the request language in context.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// LangFrom returns the request language or the default.
func LangFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	return DefaultLang
}

// Violations translates every violation code of a field map.
func Violations(lang string, v map[string]string) map[string]string {
	out := make(map[string]string, len(v))
	for field, code := range v {
		out[field] = T(lang, code)
	}
	return out
}
