package kernel

import (
	"bufio"
	"fmt"
	"io"

	"github.com/sisoputnfrba/tp-simulador-vm/memoria"
)

type EstadisticaProceso struct {
	PID          int              `json:"pid"`
	Nombre       string           `json:"nombre"`
	Estado       string           `json:"estado"`
	Turnaround   int              `json:"turnaround"`
	TiempoCPU    int              `json:"tiempo_cpu"`
	TiempoEspera int              `json:"tiempo_espera"`
	TiempoIO     int              `json:"tiempo_io"`
	MotivoFin    string           `json:"motivo_fin,omitempty"`
	Memoria      memoria.Metricas `json:"memoria"`
}

// Reporte son las estadísticas de la corrida
type Reporte struct {
	Procesos []EstadisticaProceso `json:"procesos"`

	TiempoCPU     int `json:"tiempo_cpu"`
	TiempoSistema int `json:"tiempo_sistema"`
	TiempoOcioso  int `json:"tiempo_ocioso"`
	RelojFinal    int `json:"reloj_final"`
	Finalizados   int `json:"finalizados"`

	UtilizacionCPU     float64 `json:"utilizacion_cpu"`
	UtilizacionSistema float64 `json:"utilizacion_sistema"`
	Throughput         float64 `json:"throughput"`
	Algoritmo          string  `json:"algoritmo"`
}

// Reporte arma las estadísticas con el estado actual del planificador
func (p *Planificador) Reporte() Reporte {
	r := Reporte{
		TiempoSistema: p.tiempoSistema,
		TiempoOcioso:  p.tiempoOcioso,
		RelojFinal:    p.reloj,
		Algoritmo:     p.memoria.Politica().Nombre(),
	}

	for _, pcb := range p.procesos {
		r.Procesos = append(r.Procesos, EstadisticaProceso{
			PID:          pcb.PID,
			Nombre:       pcb.Nombre,
			Estado:       pcb.Estado,
			Turnaround:   pcb.Turnaround,
			TiempoCPU:    pcb.TiempoCPU,
			TiempoEspera: pcb.TiempoEspera,
			TiempoIO:     pcb.TiempoIO,
			MotivoFin:    pcb.MotivoFin,
			Memoria:      p.memoria.Metricas(pcb.PID),
		})
		r.TiempoCPU += pcb.TiempoCPU
		if pcb.Estado == EstadoExit {
			r.Finalizados++
		}
	}

	if p.reloj > 0 {
		reloj := float64(p.reloj)
		r.UtilizacionCPU = float64(r.TiempoCPU) / reloj * 100
		r.UtilizacionSistema = float64(p.reloj-p.tiempoOcioso) / reloj * 100
		r.Throughput = float64(r.Finalizados) / (reloj / 1000)
	}
	return r
}

// Escribir imprime el reporte en texto
func (r Reporte) Escribir(w io.Writer) error {
	bw := bufio.NewWriter(w)

	for _, e := range r.Procesos {
		fmt.Fprintf(bw, "%s (PID %d): Turnaround = %d, Tiempo CPU = %d, Tiempo espera = %d, Tiempo IO = %d\n",
			e.Nombre, e.PID, e.Turnaround, e.TiempoCPU, e.TiempoEspera, e.TiempoIO)
		fmt.Fprintf(bw, "    Fallos de página = %d, Reemplazos = %d, Subidas = %d, Bajadas = %d, Lecturas = %d, Escrituras = %d\n",
			e.Memoria.FallosPagina, e.Memoria.Reemplazos, e.Memoria.Subidas, e.Memoria.Bajadas, e.Memoria.Lecturas, e.Memoria.Escrituras)
		if e.MotivoFin != "" {
			fmt.Fprintf(bw, "    %s\n", e.MotivoFin)
		}
	}

	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "Algoritmo de reemplazo = %s\n", r.Algoritmo)
	fmt.Fprintf(bw, "Tiempo total de CPU = %d\n", r.TiempoCPU)
	fmt.Fprintf(bw, "Tiempo de sistema = %d\n", r.TiempoSistema)
	fmt.Fprintf(bw, "Tiempo ocioso = %d\n", r.TiempoOcioso)
	fmt.Fprintf(bw, "Reloj final = %d\n", r.RelojFinal)
	fmt.Fprintf(bw, "Utilización real de CPU = %.2f%%\n", r.UtilizacionCPU)
	fmt.Fprintf(bw, "Utilización del sistema = %.2f%%\n", r.UtilizacionSistema)
	fmt.Fprintf(bw, "Throughput = %.3f procesos cada 1000 ticks\n", r.Throughput)

	return bw.Flush()
}
