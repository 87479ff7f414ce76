package cpu

import "errors"

// CantRegistros es la cantidad de registros de propósito general del motor.
const CantRegistros = 4

// MascaraPalabra recorta un valor a una palabra de 16 bits.
const MascaraPalabra = 0xffff

var (
	ErrFalloPagina  = errors.New("fallo de página")
	ErrFueraDeRango = errors.New("dirección fuera de rango")
)

// Contexto es el estado de ejecución que el kernel carga antes de cada ráfaga
// y relee al terminarla.
type Contexto struct {
	PID       int
	PC        int
	IR        int
	SR        int
	SP        int
	Registros [CantRegistros]int

	// Ventana [Base, Base+Limite) del espacio de código plano
	Base   int
	Limite int

	// Pila[SP:] son las posiciones ocupadas; la pila crece hacia abajo
	Pila []int

	// Dirección lógica que produjo el último fallo de página
	DirFallo int
}

// Bus es la vía por la que el motor accede a la memoria del proceso y avisa
// el paso del tiempo.
type Bus interface {
	// Leer devuelve la palabra en la dirección lógica dada. Devuelve
	// ErrFalloPagina si la página no está cargada y ErrFueraDeRango si la
	// dirección no pertenece al espacio del proceso.
	Leer(dir int) (int, error)
	Escribir(dir int, valor int) error
	// Tick se llama una vez por instrucción completada.
	Tick()
}

// Motor ejecuta hasta quantum instrucciones del proceso cargado en ctx y deja
// la causa de retorno codificada en ctx.SR.
type Motor interface {
	Ejecutar(ctx *Contexto, quantum int, bus Bus)
}

// ExtenderSigno interpreta una palabra de 16 bits como entero con signo.
func ExtenderSigno(valor int) int {
	valor &= MascaraPalabra
	if valor&0x8000 != 0 {
		return valor - 0x10000
	}
	return valor
}
