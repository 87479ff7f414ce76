package memoria

import (
	"fmt"

	"github.com/sisoputnfrba/tp-simulador-vm/utils"
)

func (g *Gestor) metricasDe(pid int) *Metricas {
	m, existe := g.metricas[pid]
	if !existe {
		m = &Metricas{}
		g.metricas[pid] = m
	}
	return m
}

// Metricas devuelve las métricas de memoria del proceso. Se conservan después
// de liberar el proceso para el reporte final.
func (g *Gestor) Metricas(pid int) Metricas {
	if m, existe := g.metricas[pid]; existe {
		return *m
	}
	return Metricas{}
}

// LogMetricas emite la línea de métricas de memoria del proceso
func (g *Gestor) LogMetricas(pid int) {
	m := g.Metricas(pid)
	utils.InfoLog.Info(fmt.Sprintf("## PID: %d - Métricas - Fallos de página: %d; Reemplazos: %d; Subidas a Memoria: %d; Bajadas a Imagen: %d; Lect.Mem.: %d; Esc.Mem.: %d",
		pid, m.FallosPagina, m.Reemplazos, m.Subidas, m.Bajadas, m.Lecturas, m.Escrituras))
}
