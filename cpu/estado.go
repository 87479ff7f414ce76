package cpu

import "fmt"

// Trap es la causa por la que el motor devolvió el control al kernel.
type Trap int

const (
	TrapFinQuantum Trap = iota
	TrapHalt
	TrapFueraDeRango
	TrapDesbordePila
	TrapSubdesbordePila
	TrapOpcodeInvalido
	TrapLectura
	TrapEscritura
	TrapFalloPagina
	TrapInesperado
)

// Códigos crudos de la palabra de estado. El layout es parte del contrato con
// el motor: codigo = (SR >> 5) & 0x27, registro = (SR >> 8) & 0x3.
const (
	CodigoFinQuantum      = 0
	CodigoHalt            = 1
	CodigoFueraDeRango    = 2
	CodigoDesbordePila    = 3
	CodigoSubdesbordePila = 4
	CodigoOpcodeInvalido  = 5
	CodigoLectura         = 6
	CodigoEscritura       = 7
	CodigoFalloPagina     = 32

	mascaraCodigo   = 0x27
	mascaraRegistro = 0x3
)

var codigosPorTrap = map[Trap]int{
	TrapFinQuantum:      CodigoFinQuantum,
	TrapHalt:            CodigoHalt,
	TrapFueraDeRango:    CodigoFueraDeRango,
	TrapDesbordePila:    CodigoDesbordePila,
	TrapSubdesbordePila: CodigoSubdesbordePila,
	TrapOpcodeInvalido:  CodigoOpcodeInvalido,
	TrapLectura:         CodigoLectura,
	TrapEscritura:       CodigoEscritura,
	TrapFalloPagina:     CodigoFalloPagina,
}

var nombresTrap = [...]string{
	TrapFinQuantum:      "FIN_QUANTUM",
	TrapHalt:            "HALT",
	TrapFueraDeRango:    "FUERA_DE_RANGO",
	TrapDesbordePila:    "DESBORDE_PILA",
	TrapSubdesbordePila: "SUBDESBORDE_PILA",
	TrapOpcodeInvalido:  "OPCODE_INVALIDO",
	TrapLectura:         "LECTURA",
	TrapEscritura:       "ESCRITURA",
	TrapFalloPagina:     "FALLO_PAGINA",
	TrapInesperado:      "INESPERADO",
}

func (t Trap) String() string {
	if t < 0 || int(t) >= len(nombresTrap) {
		return fmt.Sprintf("TRAP(%d)", int(t))
	}
	return nombresTrap[t]
}

// Estado es la palabra de estado ya decodificada.
type Estado struct {
	Trap     Trap
	Codigo   int
	Registro int
}

// DecodificarEstado traduce la palabra de estado del motor a un Trap.
// Cualquier código fuera de la tabla queda como TrapInesperado con el código crudo.
func DecodificarEstado(sr int) Estado {
	codigo := (sr >> 5) & mascaraCodigo
	registro := (sr >> 8) & mascaraRegistro

	var trap Trap
	switch codigo {
	case CodigoFinQuantum:
		trap = TrapFinQuantum
	case CodigoHalt:
		trap = TrapHalt
	case CodigoFueraDeRango:
		trap = TrapFueraDeRango
	case CodigoDesbordePila:
		trap = TrapDesbordePila
	case CodigoSubdesbordePila:
		trap = TrapSubdesbordePila
	case CodigoOpcodeInvalido:
		trap = TrapOpcodeInvalido
	case CodigoLectura:
		trap = TrapLectura
	case CodigoEscritura:
		trap = TrapEscritura
	case CodigoFalloPagina:
		trap = TrapFalloPagina
	default:
		trap = TrapInesperado
	}

	return Estado{Trap: trap, Codigo: codigo, Registro: registro}
}

// CodificarEstado arma la palabra de estado para un trap conocido.
func CodificarEstado(trap Trap, registro int) int {
	codigo, ok := codigosPorTrap[trap]
	if !ok {
		panic(fmt.Sprintf("cpu: no se puede codificar %s", trap))
	}
	return CodificarCodigo(codigo, registro)
}

// CodificarCodigo arma la palabra de estado a partir de un código crudo.
func CodificarCodigo(codigo int, registro int) int {
	return codigo<<5 | (registro&mascaraRegistro)<<8
}
