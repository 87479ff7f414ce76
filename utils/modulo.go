package utils

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

// Modulo representa un módulo genérico del sistema
type Modulo struct {
	Nombre      string
	Server      *HTTPServer
	ConfigPath  string
	HandlerFunc map[string]map[string]HTTPHandlerFunc
}

// NuevoModulo crea una nueva instancia de un módulo
func NuevoModulo(nombre string, configPath string) *Modulo {
	return &Modulo{
		Nombre:      nombre,
		ConfigPath:  configPath,
		HandlerFunc: make(map[string]map[string]HTTPHandlerFunc),
	}
}

// RegistrarHandler registra un handler para un tipo de mensaje y operación específicos
func (m *Modulo) RegistrarHandler(tipo string, operacion string, handler HTTPHandlerFunc) {
	if _, existe := m.HandlerFunc[tipo]; !existe {
		m.HandlerFunc[tipo] = make(map[string]HTTPHandlerFunc)
	}
	m.HandlerFunc[tipo][operacion] = handler
}

// PrepararServidor crea el servidor HTTP del módulo y le registra los handlers, sin arrancarlo
func (m *Modulo) PrepararServidor(ip string, puerto int) *HTTPServer {
	m.Server = NewHTTPServer(ip, puerto, m.Nombre)

	for tipoStr, handlersPorOperacion := range m.HandlerFunc {
		tipo, err := strconv.Atoi(tipoStr)
		if err != nil {
			slog.Error("Error al convertir tipo de mensaje a entero", "tipo", tipoStr, "error", err)
			continue
		}

		m.Server.RegisterHTTPHandler(tipo, despachoPorOperacion(tipo, handlersPorOperacion))
	}

	return m.Server
}

func despachoPorOperacion(tipo int, handlersPorOperacion map[string]HTTPHandlerFunc) HTTPHandlerFunc {
	return func(msg *Mensaje) (interface{}, error) {
		operacion := msg.Operacion
		if operacion == "" {
			operacion = "default"
		}

		handler, existe := handlersPorOperacion[operacion]
		if !existe {
			handler, existe = handlersPorOperacion["default"]
			if !existe {
				slog.Error("No hay handler para operación", "tipo", tipo, "operacion", operacion)
				return nil, fmt.Errorf("no hay handler para operación %s", operacion)
			}
		}

		return handler(msg)
	}
}

// IniciarServidor crea e inicializa el servidor HTTP del módulo en segundo plano
func (m *Modulo) IniciarServidor(ip string, puerto int) {
	server := m.PrepararServidor(ip, puerto)

	go func() {
		err := server.Start()
		if err != nil {
			slog.Error("Error al iniciar servidor HTTP", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Servidor HTTP iniciado", "módulo", m.Nombre, "dirección", fmt.Sprintf("%s:%d", ip, puerto))
}

// ConDefaults lo implementan las configuraciones con valores por defecto; se
// aplican antes de decodificar, así una clave ausente conserva el default.
type ConDefaults interface {
	AplicarDefaults()
}

// CargarConfiguracion decodifica un archivo JSON en el tipo de configuración pedido
func CargarConfiguracion[T any](ruta string) (*T, error) {
	InfoLog.Info("Cargando configuración", "ruta", ruta)

	absPath, err := filepath.Abs(ruta)
	if err != nil {
		return nil, fmt.Errorf("error obteniendo ruta absoluta de %s: %w", ruta, err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("error abriendo archivo de configuración: %w", err)
	}
	defer file.Close()

	var config T
	if d, ok := any(&config).(ConDefaults); ok {
		d.AplicarDefaults()
	}

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("error decodificando configuración %s: %w", absPath, err)
	}

	InfoLog.Info("Configuración cargada correctamente", "archivo", absPath)
	return &config, nil
}

// ============================================================================
// Constantes para tipos de mensajes entre módulos
// ============================================================================
const (
	// === COMUNICACIÓN BÁSICA (1-9) ===
	MensajeHandshake = 1 // Conexión inicial

	// === CONSULTAS AL KERNEL (40-49) ===
	MensajeEstado  = 40 // Instantánea del planificador y la tabla de marcos
	MensajeReporte = 41 // Estadísticas por proceso y globales
	MensajeControl = 42 // PAUSAR / REANUDAR la simulación
	MensajeDump    = 43 // Volcado de la memoria física en el momento del pedido
)
