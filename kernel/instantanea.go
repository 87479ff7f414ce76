package kernel

import (
	"golang.org/x/exp/slices"

	"github.com/sisoputnfrba/tp-simulador-vm/memoria"
)

type ResumenProceso struct {
	PID    int    `json:"pid"`
	Nombre string `json:"nombre"`
	Estado string `json:"estado"`
	PC     int    `json:"pc"`
	SP     int    `json:"sp"`
	FinIO  int    `json:"fin_io,omitempty"`
}

// Instantanea es una copia inmutable del estado del planificador, para
// publicarla fuera del hilo de simulación.
type Instantanea struct {
	Reloj         int              `json:"reloj"`
	Ciclos        int              `json:"ciclos"`
	TiempoOcioso  int              `json:"tiempo_ocioso"`
	TiempoSistema int              `json:"tiempo_sistema"`
	Ejecutando    int              `json:"ejecutando"`
	ColaReady     []int            `json:"cola_ready"`
	ColaEspera    []int            `json:"cola_espera"`
	Procesos      []ResumenProceso `json:"procesos"`
	Marcos        []memoria.Marco  `json:"marcos"`
	Terminada     bool             `json:"terminada"`
}

func (p *Planificador) Instantanea() Instantanea {
	inst := Instantanea{
		Reloj:         p.reloj,
		Ciclos:        p.ciclos,
		TiempoOcioso:  p.tiempoOcioso,
		TiempoSistema: p.tiempoSistema,
		Ejecutando:    p.ejecutando,
		ColaReady:     slices.Clone(p.colaReady),
		ColaEspera:    slices.Clone(p.colaEspera),
		Marcos:        p.memoria.Marcos(),
		Procesos:      make([]ResumenProceso, 0, len(p.procesos)),
	}

	terminada := true
	for _, pcb := range p.procesos {
		resumen := ResumenProceso{
			PID:    pcb.PID,
			Nombre: pcb.Nombre,
			Estado: pcb.Estado,
			PC:     pcb.PC,
			SP:     pcb.SP,
		}
		if pcb.Estado == EstadoBlocked {
			resumen.FinIO = pcb.FinIO
		}
		if pcb.Estado != EstadoExit {
			terminada = false
		}
		inst.Procesos = append(inst.Procesos, resumen)
	}
	inst.Terminada = terminada
	return inst
}
