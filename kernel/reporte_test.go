package kernel

import (
	"math"
	"strings"
	"testing"

	"github.com/sisoputnfrba/tp-simulador-vm/cpu"
)

func TestReporte(t *testing.T) {
	motor := &motorGuionado{guiones: map[int][]rafaga{
		0: {conTrap(3, cpu.TrapHalt, 0)},
		1: {conTrap(2, cpu.TrapHalt, 0)},
	}}
	p := nuevoPlanificadorPrueba(t, parametrosPrueba(), motor)
	admitir(t, p, "A", "", &strings.Builder{})
	admitir(t, p, "B", "", &strings.Builder{})
	p.Correr(nil)

	r := p.Reporte()
	if r.RelojFinal != 7 || r.TiempoCPU != 5 || r.TiempoSistema != 2 || r.TiempoOcioso != 0 {
		t.Errorf("tiempos got reloj %d, cpu %d, sistema %d, ocioso %d; want 7, 5, 2, 0",
			r.RelojFinal, r.TiempoCPU, r.TiempoSistema, r.TiempoOcioso)
	}
	if r.Finalizados != 2 {
		t.Errorf("Finalizados got %d, want 2", r.Finalizados)
	}
	if math.Abs(r.UtilizacionCPU-500.0/7) > 1e-9 {
		t.Errorf("UtilizacionCPU got %f, want %f", r.UtilizacionCPU, 500.0/7)
	}
	if r.UtilizacionSistema != 100 {
		t.Errorf("UtilizacionSistema got %f, want 100", r.UtilizacionSistema)
	}
	if r.Procesos[1].Turnaround != 7 || r.Procesos[1].TiempoEspera != 4 {
		t.Errorf("B got %+v, want turnaround 7 y espera 4", r.Procesos[1])
	}

	var sb strings.Builder
	if err := r.Escribir(&sb); err != nil {
		t.Fatal(err)
	}
	for _, linea := range []string{
		"A (PID 0): Turnaround = 4, Tiempo CPU = 3",
		"Algoritmo de reemplazo = FIFO",
		"Tiempo total de CPU = 5\n",
		"Utilización real de CPU = 71.43%\n",
		"Utilización del sistema = 100.00%\n",
		"Throughput = 285.714 procesos cada 1000 ticks\n",
	} {
		if !strings.Contains(sb.String(), linea) {
			t.Errorf("reporte sin %q:\n%s", linea, sb.String())
		}
	}
}

func TestReporteSinTiempo(t *testing.T) {
	p := nuevoPlanificadorPrueba(t, parametrosPrueba(), &motorGuionado{})
	r := p.Reporte()
	if r.UtilizacionCPU != 0 || r.Throughput != 0 || len(r.Procesos) != 0 {
		t.Errorf("reporte vacío got %+v", r)
	}
}

func TestInstantanea(t *testing.T) {
	motor := &motorGuionado{guiones: map[int][]rafaga{
		0: {conTrap(1, cpu.TrapEscritura, 0), conTrap(1, cpu.TrapHalt, 0)},
	}}
	p := nuevoPlanificadorPrueba(t, parametrosPrueba(), motor)
	admitir(t, p, "A", "", &strings.Builder{})
	admitir(t, p, "B", "", &strings.Builder{})

	p.EjecutarCiclo()
	inst := p.Instantanea()

	if inst.Ejecutando != 1 {
		t.Errorf("Ejecutando got %d, want 1", inst.Ejecutando)
	}
	if len(inst.ColaEspera) != 1 || inst.ColaEspera[0] != 0 {
		t.Errorf("ColaEspera got %v, want [0]", inst.ColaEspera)
	}
	if inst.Procesos[0].Estado != EstadoBlocked || inst.Procesos[0].FinIO != 2+27 {
		t.Errorf("A got %+v, want WAITING hasta 29", inst.Procesos[0])
	}
	if inst.Terminada {
		t.Error("la corrida no terminó")
	}
	if len(inst.Marcos) != parametrosPrueba().CantidadMarcos {
		t.Errorf("Marcos got %d, want %d", len(inst.Marcos), parametrosPrueba().CantidadMarcos)
	}

	// la instantánea no comparte colas con el planificador
	inst.ColaEspera[0] = 99
	if p.Instantanea().ColaEspera[0] != 0 {
		t.Error("modificar la instantánea alteró el planificador")
	}
}
