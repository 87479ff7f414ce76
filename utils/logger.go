package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	InfoLog  = slog.Default()
	ErrorLog = slog.Default()
)

// NivelDesdeTexto traduce el LOG_LEVEL de la configuración a un nivel de slog
func NivelDesdeTexto(logLevel string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(logLevel)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InicializarLogger configura los loggers globales sobre stdout
func InicializarLogger(logLevel string, moduleName string) {
	InicializarLoggerEn(os.Stdout, logLevel, moduleName)
}

// InicializarLoggerEn configura los loggers globales sobre un writer arbitrario
func InicializarLoggerEn(w io.Writer, logLevel string, moduleName string) {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: NivelDesdeTexto(logLevel),
	})

	logger := slog.New(handler).With("modulo", moduleName)

	InfoLog = logger
	ErrorLog = logger
}

// InicializarLoggerConArchivo duplica la salida del log en stdout y en un archivo.
// Devuelve el archivo para que quien llama lo cierre al terminar.
func InicializarLoggerConArchivo(ruta string, logLevel string, moduleName string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(ruta), 0755); err != nil {
		return nil, fmt.Errorf("error al crear directorio de logs: %w", err)
	}

	archivo, err := os.OpenFile(ruta, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("error al abrir archivo de log: %w", err)
	}

	InicializarLoggerEn(io.MultiWriter(os.Stdout, archivo), logLevel, moduleName)
	return archivo, nil
}
