package kernel

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/sisoputnfrba/tp-simulador-vm/cpu"
)

// AlmacenPila guarda las posiciones ocupadas de la pila mientras el proceso
// no está ejecutando, desde el tope hasta el fondo.
type AlmacenPila interface {
	Guardar(ocupadas []int) error
	Cargar() ([]int, error)
}

// ArchivoPila persiste la pila en un archivo, un entero de 5 dígitos por línea.
// Se reescribe completo en cada suspensión.
type ArchivoPila struct {
	archivo *os.File
}

func CrearArchivoPila(ruta string) (*ArchivoPila, error) {
	archivo, err := os.Create(ruta)
	if err != nil {
		return nil, fmt.Errorf("error al crear archivo de pila %s: %w", ruta, err)
	}
	return &ArchivoPila{archivo: archivo}, nil
}

func (a *ArchivoPila) Guardar(ocupadas []int) error {
	if err := a.archivo.Truncate(0); err != nil {
		return fmt.Errorf("error truncando pila: %w", err)
	}
	if _, err := a.archivo.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("error posicionando pila: %w", err)
	}

	w := bufio.NewWriter(a.archivo)
	for _, valor := range ocupadas {
		fmt.Fprintf(w, "%05d\n", valor)
	}
	return w.Flush()
}

func (a *ArchivoPila) Cargar() ([]int, error) {
	if _, err := a.archivo.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("error posicionando pila: %w", err)
	}

	var valores []int
	scanner := bufio.NewScanner(a.archivo)
	for scanner.Scan() {
		linea := strings.TrimSpace(scanner.Text())
		if linea == "" {
			continue
		}
		valor, err := strconv.Atoi(linea)
		if err != nil {
			return nil, fmt.Errorf("valor de pila inválido %q: %w", linea, err)
		}
		valores = append(valores, valor)
	}
	return valores, scanner.Err()
}

func (a *ArchivoPila) Close() error {
	return a.archivo.Close()
}

// PilaEnMemoria es un AlmacenPila sin archivo
type PilaEnMemoria struct {
	valores []int
}

func (p *PilaEnMemoria) Guardar(ocupadas []int) error {
	p.valores = slices.Clone(ocupadas)
	return nil
}

func (p *PilaEnMemoria) Cargar() ([]int, error) {
	return slices.Clone(p.valores), nil
}

// restaurarContexto arma el contexto del motor a partir del PCB, leyendo la
// pila persistida.
func (p *Planificador) restaurarContexto(pcb *PCB) (*cpu.Contexto, error) {
	ctx := &cpu.Contexto{
		PID:       pcb.PID,
		PC:        pcb.PC,
		IR:        pcb.IR,
		SR:        pcb.SR,
		SP:        pcb.SP,
		Registros: pcb.Registros,
		Base:      pcb.Base,
		Limite:    pcb.Limite,
		Pila:      make([]int, p.params.TamPila),
	}

	if pcb.SP < 0 || pcb.SP > p.params.TamPila {
		return nil, fmt.Errorf("SP %d fuera de la pila de %d posiciones", pcb.SP, p.params.TamPila)
	}
	ocupadas := p.params.TamPila - pcb.SP
	if ocupadas == 0 {
		return ctx, nil
	}

	valores, err := pcb.Pila.Cargar()
	if err != nil {
		return nil, err
	}
	if len(valores) != ocupadas {
		return nil, fmt.Errorf("pila persistida con %d valores, se esperaban %d", len(valores), ocupadas)
	}
	copy(ctx.Pila[pcb.SP:], valores)
	return ctx, nil
}

// volcarContexto copia al PCB los registros que dejó el motor
func volcarContexto(pcb *PCB, ctx *cpu.Contexto) {
	pcb.PC = ctx.PC
	pcb.IR = ctx.IR
	pcb.SR = ctx.SR
	pcb.SP = ctx.SP
	pcb.Registros = ctx.Registros
}

// guardarPila persiste las posiciones ocupadas de la pila
func guardarPila(pcb *PCB, ctx *cpu.Contexto) error {
	return pcb.Pila.Guardar(ctx.Pila[ctx.SP:])
}
