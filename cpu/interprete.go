package cpu

import (
	"errors"
	"fmt"

	"github.com/sisoputnfrba/tp-simulador-vm/utils"
)

// Interprete es el motor de referencia: ejecuta pseudocódigo cargado en un
// único espacio de código plano, donde cada proceso ocupa su ventana
// [Base, Base+Limite).
type Interprete struct {
	codigo []Instruccion
}

func NuevoInterprete() *Interprete {
	return &Interprete{}
}

// Cargar agrega el código del programa al final del espacio plano y devuelve
// la ventana asignada.
func (in *Interprete) Cargar(p *Programa) (base, limite int) {
	base = len(in.codigo)
	in.codigo = append(in.codigo, p.Instrucciones...)
	return base, len(p.Instrucciones)
}

// Ejecutar corre hasta quantum instrucciones. Cada instrucción completada
// consume un tick; un trap de error o un fallo de página no consume tick ni
// avanza el PC.
func (in *Interprete) Ejecutar(ctx *Contexto, quantum int, bus Bus) {
	for ejecutadas := 0; ejecutadas < quantum; ejecutadas++ {
		if ctx.PC < 0 || ctx.PC >= ctx.Limite || ctx.Base+ctx.PC >= len(in.codigo) {
			ctx.SR = CodificarEstado(TrapFueraDeRango, 0)
			return
		}

		inst := in.codigo[ctx.Base+ctx.PC]
		ctx.IR = inst.Opcode
		utils.InfoLog.Debug(fmt.Sprintf("PID: %d - Ejecutando: %s", ctx.PID, inst.Texto), "pc", ctx.PC)

		trap, registro, sigue := in.ejecutarInstruccion(ctx, inst, bus)
		if !sigue {
			ctx.SR = CodificarEstado(trap, registro)
			return
		}
	}

	ctx.SR = CodificarEstado(TrapFinQuantum, 0)
}

// ejecutarInstruccion devuelve sigue=true si la ráfaga puede continuar; si no,
// el trap con el que corta.
func (in *Interprete) ejecutarInstruccion(ctx *Contexto, inst Instruccion, bus Bus) (Trap, int, bool) {
	r := ctx.Registros[:]
	siguientePC := ctx.PC + 1

	switch inst.Opcode {
	case OpNoop:

	case OpSet:
		r[inst.Args[0]] = inst.Args[1] & MascaraPalabra

	case OpAdd:
		r[inst.Args[0]] = (r[inst.Args[0]] + r[inst.Args[1]]) & MascaraPalabra

	case OpSub:
		r[inst.Args[0]] = (r[inst.Args[0]] - r[inst.Args[1]]) & MascaraPalabra

	case OpAddi:
		r[inst.Args[0]] = (r[inst.Args[0]] + inst.Args[1]) & MascaraPalabra

	case OpLoad, OpLoadR:
		dir := inst.Args[1]
		if inst.Opcode == OpLoadR {
			dir = r[inst.Args[1]]
		}
		valor, err := bus.Leer(dir)
		if err != nil {
			return trapDeMemoria(ctx, dir, err), 0, false
		}
		r[inst.Args[0]] = valor & MascaraPalabra

	case OpStore, OpStoreR:
		dir := inst.Args[1]
		if inst.Opcode == OpStoreR {
			dir = r[inst.Args[1]]
		}
		if err := bus.Escribir(dir, r[inst.Args[0]]); err != nil {
			return trapDeMemoria(ctx, dir, err), 0, false
		}

	case OpPush:
		if ctx.SP <= 0 {
			return TrapDesbordePila, 0, false
		}
		ctx.SP--
		ctx.Pila[ctx.SP] = r[inst.Args[0]]

	case OpPop:
		if ctx.SP >= len(ctx.Pila) {
			return TrapSubdesbordePila, 0, false
		}
		r[inst.Args[0]] = ctx.Pila[ctx.SP]
		ctx.SP++

	case OpJump:
		siguientePC = inst.Args[0]

	case OpJz:
		if r[inst.Args[0]] == 0 {
			siguientePC = inst.Args[1]
		}

	case OpJnz:
		if r[inst.Args[0]] != 0 {
			siguientePC = inst.Args[1]
		}

	case OpIn, OpOut, OpHalt:
		ctx.PC = siguientePC
		bus.Tick()
		switch inst.Opcode {
		case OpIn:
			return TrapLectura, inst.Args[0], false
		case OpOut:
			return TrapEscritura, inst.Args[0], false
		default:
			return TrapHalt, 0, false
		}

	default:
		return TrapOpcodeInvalido, 0, false
	}

	ctx.PC = siguientePC
	bus.Tick()
	return TrapFinQuantum, 0, true
}

func trapDeMemoria(ctx *Contexto, dir int, err error) Trap {
	if errors.Is(err, ErrFalloPagina) {
		ctx.DirFallo = dir
		return TrapFalloPagina
	}
	return TrapFueraDeRango
}
