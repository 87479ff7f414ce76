package kernel

import (
	"fmt"

	"github.com/sisoputnfrba/tp-simulador-vm/memoria"
	"github.com/sisoputnfrba/tp-simulador-vm/utils"
)

type KernelConfig struct {
	LogLevel string `json:"LOG_LEVEL"`
	LogPath  string `json:"LOG_PATH"`

	Quantum              int `json:"QUANTUM"`
	TiempoCambioContexto int `json:"TIEMPO_CAMBIO_CONTEXTO"`
	LatenciaIO           int `json:"LATENCIA_IO"`

	TamPagina          int    `json:"TAM_PAGINA"`
	CantidadMarcos     int    `json:"CANTIDAD_MARCOS"`
	AlgoritmoReemplazo string `json:"ALGORITMO_REEMPLAZO"`
	TamPila            int    `json:"TAM_PILA"`

	ProgramasPath string `json:"PROGRAMAS_PATH"`
	SalidaPath    string `json:"SALIDA_PATH"`
	DumpPath      string `json:"DUMP_PATH"`

	IPKernel     string `json:"IP_KERNEL"`
	PuertoKernel int    `json:"PUERTO_KERNEL"`
	RetardoCiclo int    `json:"RETARDO_CICLO"`
}

// AplicarDefaults carga los valores por defecto; CargarConfig lo llama antes
// de decodificar el JSON.
func (c *KernelConfig) AplicarDefaults() {
	c.LogLevel = "INFO"
	c.Quantum = 15
	c.TiempoCambioContexto = 5
	c.LatenciaIO = 27
	c.TamPagina = 8
	c.CantidadMarcos = 32
	c.AlgoritmoReemplazo = "FIFO"
	c.TamPila = 32
	c.ProgramasPath = "programas"
	c.SalidaPath = "salida"
	c.IPKernel = "127.0.0.1"
}

func (c *KernelConfig) Validar() error {
	switch {
	case c.Quantum <= 0:
		return fmt.Errorf("QUANTUM debe ser positivo: %d", c.Quantum)
	case c.TiempoCambioContexto < 0:
		return fmt.Errorf("TIEMPO_CAMBIO_CONTEXTO no puede ser negativo: %d", c.TiempoCambioContexto)
	case c.LatenciaIO < 0:
		return fmt.Errorf("LATENCIA_IO no puede ser negativa: %d", c.LatenciaIO)
	case c.TamPagina <= 0:
		return fmt.Errorf("TAM_PAGINA debe ser positivo: %d", c.TamPagina)
	case c.CantidadMarcos <= 0:
		return fmt.Errorf("CANTIDAD_MARCOS debe ser positivo: %d", c.CantidadMarcos)
	case c.TamPila <= 0:
		return fmt.Errorf("TAM_PILA debe ser positivo: %d", c.TamPila)
	case c.PuertoKernel < 0 || c.PuertoKernel > 65535:
		return fmt.Errorf("PUERTO_KERNEL inválido: %d", c.PuertoKernel)
	case c.RetardoCiclo < 0:
		return fmt.Errorf("RETARDO_CICLO no puede ser negativo: %d", c.RetardoCiclo)
	}
	if _, err := memoria.NuevaPolitica(c.AlgoritmoReemplazo); err != nil {
		return err
	}
	return nil
}

// Parametros devuelve lo que necesita el planificador
func (c *KernelConfig) Parametros() Parametros {
	return Parametros{
		Quantum:        c.Quantum,
		CambioContexto: c.TiempoCambioContexto,
		LatenciaIO:     c.LatenciaIO,
		TamPila:        c.TamPila,
		TamPagina:      c.TamPagina,
		CantidadMarcos: c.CantidadMarcos,
	}
}

// CargarConfig lee y valida la configuración del kernel
func CargarConfig(ruta string) (*KernelConfig, error) {
	cfg, err := utils.CargarConfiguracion[KernelConfig](ruta)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validar(); err != nil {
		return nil, fmt.Errorf("configuración inválida en %s: %w", ruta, err)
	}
	return cfg, nil
}
