package kernel

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/sisoputnfrba/tp-simulador-vm/cpu"
	"github.com/sisoputnfrba/tp-simulador-vm/utils"
)

const (
	EstadoNew     = "NEW"
	EstadoReady   = "READY"
	EstadoExec    = "RUNNING"
	EstadoBlocked = "WAITING"
	EstadoExit    = "TERMINATED"
)

var ErrTransicionInvalida = errors.New("transición de estado inválida")

var transiciones = map[string][]string{
	EstadoNew:     {EstadoReady},
	EstadoReady:   {EstadoExec},
	EstadoExec:    {EstadoReady, EstadoBlocked, EstadoExit},
	EstadoBlocked: {EstadoReady, EstadoExec},
}

type PCB struct {
	PID    int
	Nombre string
	Estado string

	// Ventana de código en el espacio plano del motor
	Base   int
	Limite int

	// Contexto guardado
	PC        int
	IR        int
	SR        int
	SP        int
	Registros [cpu.CantRegistros]int

	Pila    AlmacenPila
	entrada *bufio.Reader
	salida  io.Writer

	// Tiempos, en ticks del reloj simulado
	Llegada      int
	TiempoCPU    int
	TiempoEspera int
	TiempoIO     int
	Turnaround   int

	InicioEspera int
	InicioIO     int
	FinIO        int

	MotivoBloqueo string
	MotivoFin     string

	// Página que falló y se carga al terminar la espera; -1 si no hay
	PaginaPendiente int
	errorCarga      error
}

// NuevoPCB crea un proceso en NEW. entrada puede ser nil si el programa no
// tiene archivo .in; la primera lectura lo termina.
func NuevoPCB(nombre string, base, limite int, pila AlmacenPila, entrada io.Reader, salida io.Writer) *PCB {
	pcb := &PCB{
		PID:             -1,
		Nombre:          nombre,
		Estado:          EstadoNew,
		Base:            base,
		Limite:          limite,
		Pila:            pila,
		salida:          salida,
		PaginaPendiente: -1,
	}
	if entrada != nil {
		pcb.entrada = bufio.NewReader(entrada)
	}
	return pcb
}

// CambiarEstado valida la transición y registra el cambio
func (pcb *PCB) CambiarEstado(nuevoEstado string) error {
	estadoAnterior := pcb.Estado

	permitida := false
	for _, destino := range transiciones[estadoAnterior] {
		if destino == nuevoEstado {
			permitida = true
			break
		}
	}
	if !permitida {
		return fmt.Errorf("%w: PID %d de %s a %s", ErrTransicionInvalida, pcb.PID, estadoAnterior, nuevoEstado)
	}

	pcb.Estado = nuevoEstado
	utils.InfoLog.Info(fmt.Sprintf("(%d) - Pasa del estado %s al estado %s", pcb.PID, estadoAnterior, nuevoEstado))
	return nil
}

// leerEntrada lee el próximo entero de la entrada del proceso
func (pcb *PCB) leerEntrada() (int, error) {
	if pcb.entrada == nil {
		return 0, io.EOF
	}
	var valor int
	if _, err := fmt.Fscan(pcb.entrada, &valor); err != nil {
		return 0, err
	}
	return valor, nil
}

// escribirSalida escribe una línea en la salida del proceso
func (pcb *PCB) escribirSalida(linea string) error {
	if pcb.salida == nil {
		return nil
	}
	_, err := fmt.Fprintln(pcb.salida, linea)
	return err
}

func (pcb *PCB) String() string {
	return fmt.Sprintf("PCB{PID: %d, Nombre: %s, Estado: %s, PC: %d, SP: %d}",
		pcb.PID, pcb.Nombre, pcb.Estado, pcb.PC, pcb.SP)
}
