package importer

// error_messages.go maps technical errors to messages an end user can act
// on, each with a code support staff can look up.
//
// # Codes
//
//	IMP001 - Schema not found          ("import schema not found")
//	IMP002 - Unknown duplicate policy  ("unknown duplicate strategy")
//	IMP003 - Duplicate record          ("duplicate record")
//	IMP004 - Invalid column mapping    ("invalid mapping")
//	IMP005 - Mapping preset not found  ("mapping preset not found")
//
//	FILE001 - File too large           ("file too large")
//	FILE002 - Unsupported file type    ("unsupported file type")
//	FILE003 - Unreadable spreadsheet   ("invalid csv", "invalid spreadsheet")
//	FILE004 - No file                  ("no file provided")
//	FILE005 - Empty file               ("empty file")
//	FILE006 - Too many rows            ("too many rows")
//
//	DB001 - Duplicate key              ("duplicate key")
//	DB002 - Unique constraint          ("unique constraint", "violates unique")
//	DB003 - Connection refused         ("connection refused")
//	DB004 - Connection reset           ("connection reset")
//	DB005 - Database busy              ("deadlock", "database is locked")
//
//	UPL001 - System busy               ("too many concurrent imports")
//	UPL002 - Request cancelled         ("context canceled")
//	UPL003 - Request timeout           ("context deadline exceeded", "timeout")
//
//	RATE001 - Rate limited             ("rate limit")
//
//	ERR000 - Anything else. Check the logs for the technical error.
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage is the user-facing form of an error.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Import configuration
	{"import schema not found", UserMessage{"Tipo de importación desconocido", "Selecciona uno de los tipos de importación disponibles", "IMP001"}},
	{"unknown duplicate strategy", UserMessage{"Estrategia de duplicados no válida", "Usa skip, update, error, append o ask", "IMP002"}},
	{"duplicate record", UserMessage{"El registro ya existe", "Revisa la estrategia de duplicados o elimina la fila", "IMP003"}},
	{"invalid mapping", UserMessage{"El mapeo de columnas no es válido", "Revisa la asignación de columnas y vuelve a intentarlo", "IMP004"}},
	{"mapping preset not found", UserMessage{"El mapeo guardado no existe", "Actualiza la lista de mapeos guardados", "IMP005"}},

	// Files
	{"file too large", UserMessage{"El archivo supera el tamaño máximo permitido", "Divide el archivo en partes más pequeñas", "FILE001"}},
	{"unsupported file type", UserMessage{"Formato de archivo no soportado", "Sube un archivo .csv, .xlsx o .xls", "FILE002"}},
	{"invalid csv", UserMessage{"No se pudo leer el archivo", "Comprueba que el archivo no está dañado y que usa comas o punto y coma", "FILE003"}},
	{"invalid spreadsheet", UserMessage{"No se pudo leer el archivo", "Abre el archivo en Excel y guárdalo de nuevo como .xlsx", "FILE003"}},
	{"no file provided", UserMessage{"No se ha seleccionado ningún archivo", "Selecciona un archivo para importar", "FILE004"}},
	{"empty file", UserMessage{"El archivo está vacío", "Sube un archivo con una fila de cabecera y datos", "FILE005"}},
	{"too many rows", UserMessage{"El archivo tiene demasiadas filas", "Divide el archivo en partes más pequeñas", "FILE006"}},

	// Database
	{"duplicate key", UserMessage{"Ya existe un registro con este identificador", "Revisa las filas duplicadas", "DB001"}},
	{"unique constraint", UserMessage{"Este valor debe ser único y ya existe", "Comprueba si hay filas repetidas en el archivo", "DB002"}},
	{"violates unique", UserMessage{"Se encontró un valor duplicado", "Comprueba si hay filas repetidas en el archivo", "DB002"}},
	{"connection refused", UserMessage{"No se pudo conectar con la base de datos", "Inténtalo de nuevo en unos momentos", "DB003"}},
	{"connection reset", UserMessage{"Se interrumpió la conexión con la base de datos", "Inténtalo de nuevo", "DB004"}},
	{"deadlock", UserMessage{"La base de datos está ocupada", "Inténtalo de nuevo", "DB005"}},
	{"database is locked", UserMessage{"La base de datos está ocupada", "Inténtalo de nuevo", "DB005"}},

	// Upload handling
	{"too many concurrent imports", UserMessage{"Hay demasiadas importaciones en curso", "Espera un momento y vuelve a intentarlo", "UPL001"}},
	{"context canceled", UserMessage{"La solicitud fue cancelada", "Inténtalo de nuevo", "UPL002"}},
	{"context deadline exceeded", UserMessage{"La solicitud tardó demasiado", "Prueba con un archivo más pequeño", "UPL003"}},
	{"timeout", UserMessage{"La operación tardó demasiado", "Prueba con un archivo más pequeño", "UPL003"}},

	// Rate limiting
	{"rate limit", UserMessage{"Has alcanzado el límite de importaciones", "Espera antes de volver a importar", "RATE001"}},
}

var defaultMessage = UserMessage{
	Message: "Se produjo un error inesperado",
	Action:  "Inténtalo de nuevo o contacta con soporte",
	Code:    "ERR000",
}

// MapError converts a technical error to a UserMessage. A nil error maps
// to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Código: X). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Código: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matched a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
