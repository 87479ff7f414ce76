package cpu

import (
	"strings"
	"testing"
)

// busPlano es una memoria sin paginación; las direcciones marcadas en
// faltantes simulan páginas no cargadas.
type busPlano struct {
	memoria   []int
	faltantes map[int]bool
	ticks     int
}

func (b *busPlano) Leer(dir int) (int, error) {
	if dir < 0 || dir >= len(b.memoria) {
		return 0, ErrFueraDeRango
	}
	if b.faltantes[dir] {
		return 0, ErrFalloPagina
	}
	return b.memoria[dir], nil
}

func (b *busPlano) Escribir(dir int, valor int) error {
	if dir < 0 || dir >= len(b.memoria) {
		return ErrFueraDeRango
	}
	if b.faltantes[dir] {
		return ErrFalloPagina
	}
	b.memoria[dir] = valor
	return nil
}

func (b *busPlano) Tick() { b.ticks++ }

func cargar(t *testing.T, fuente string) (*Interprete, *Contexto, *busPlano) {
	t.Helper()
	p, err := ParsearPrograma(strings.NewReader(fuente))
	if err != nil {
		t.Fatalf("ParsearPrograma: %v", err)
	}
	in := NuevoInterprete()
	base, limite := in.Cargar(p)
	ctx := &Contexto{Base: base, Limite: limite, Pila: make([]int, 4), SP: 4}
	bus := &busPlano{memoria: append(make([]int, 0, p.Tamanio), p.Datos...), faltantes: map[int]bool{}}
	bus.memoria = bus.memoria[:p.Tamanio]
	return in, ctx, bus
}

func TestInterpreteHalt(t *testing.T) {
	in, ctx, bus := cargar(t, "NOOP\nNOOP\nHALT\n")

	in.Ejecutar(ctx, 10, bus)

	if got := DecodificarEstado(ctx.SR).Trap; got != TrapHalt {
		t.Fatalf("trap got %v, want %v", got, TrapHalt)
	}
	if bus.ticks != 3 {
		t.Errorf("ticks got %d, want 3", bus.ticks)
	}
	if ctx.PC != 3 {
		t.Errorf("PC got %d, want 3", ctx.PC)
	}
}

func TestInterpreteFinDeQuantum(t *testing.T) {
	in, ctx, bus := cargar(t, "JUMP 0\n")

	in.Ejecutar(ctx, 4, bus)

	if got := DecodificarEstado(ctx.SR).Trap; got != TrapFinQuantum {
		t.Fatalf("trap got %v, want %v", got, TrapFinQuantum)
	}
	if bus.ticks != 4 {
		t.Errorf("ticks got %d, want 4", bus.ticks)
	}
}

func TestInterpreteAritmeticaYMemoria(t *testing.T) {
	fuente := `
SET 0 5
SET 1 7
ADD 0 1      # r0 = 12
STORE 0 2
LOAD 2 2
ADDI 2 -13   # r2 = 0xffff
SET 3 1
STORER 2 3
HALT
.datos
10 20 30
`
	in, ctx, bus := cargar(t, fuente)

	in.Ejecutar(ctx, 20, bus)

	if got := DecodificarEstado(ctx.SR).Trap; got != TrapHalt {
		t.Fatalf("trap got %v, want %v", got, TrapHalt)
	}
	if bus.memoria[2] != 12 {
		t.Errorf("memoria[2] got %d, want 12", bus.memoria[2])
	}
	if bus.memoria[1] != 0xffff {
		t.Errorf("memoria[1] got %#x, want 0xffff", bus.memoria[1])
	}
	if ExtenderSigno(ctx.Registros[2]) != -1 {
		t.Errorf("r2 got %d, want -1", ExtenderSigno(ctx.Registros[2]))
	}
}

func TestInterpreteTraps(t *testing.T) {
	tests := []struct {
		name     string
		fuente   string
		pila     int
		trap     Trap
		registro int
		pc       int
		ticks    int
	}{
		{"pc fuera de la ventana", "JUMP 7\n", 4, TrapFueraDeRango, 0, 7, 1},
		{"dirección fuera de rango", "LOAD 0 99\n.datos\n1\n", 4, TrapFueraDeRango, 0, 0, 0},
		{"desborde de pila", "PUSH 0\nPUSH 0\n", 1, TrapDesbordePila, 0, 1, 1},
		{"subdesborde de pila", "POP 1\n", 2, TrapSubdesbordePila, 0, 0, 0},
		{"opcode inválido", "NOOP\nFRUTA\n", 4, TrapOpcodeInvalido, 0, 1, 1},
		{"lectura", "IN 2\n", 4, TrapLectura, 2, 1, 1},
		{"escritura", "OUT 3\n", 4, TrapEscritura, 3, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, ctx, bus := cargar(t, tt.fuente)
			ctx.Pila = make([]int, tt.pila)
			ctx.SP = tt.pila

			in.Ejecutar(ctx, 10, bus)

			estado := DecodificarEstado(ctx.SR)
			if estado.Trap != tt.trap {
				t.Fatalf("trap got %v, want %v", estado.Trap, tt.trap)
			}
			if estado.Registro != tt.registro {
				t.Errorf("registro got %d, want %d", estado.Registro, tt.registro)
			}
			if ctx.PC != tt.pc {
				t.Errorf("PC got %d, want %d", ctx.PC, tt.pc)
			}
			if bus.ticks != tt.ticks {
				t.Errorf("ticks got %d, want %d", bus.ticks, tt.ticks)
			}
		})
	}
}

func TestInterpreteFalloDePaginaNoAvanza(t *testing.T) {
	in, ctx, bus := cargar(t, "NOOP\nLOAD 1 9\nHALT\n.tamanio 16\n")
	bus.faltantes[9] = true

	in.Ejecutar(ctx, 10, bus)

	if got := DecodificarEstado(ctx.SR).Trap; got != TrapFalloPagina {
		t.Fatalf("trap got %v, want %v", got, TrapFalloPagina)
	}
	if ctx.PC != 1 || bus.ticks != 1 {
		t.Errorf("PC/ticks got %d/%d, want 1/1", ctx.PC, bus.ticks)
	}
	if ctx.DirFallo != 9 {
		t.Errorf("DirFallo got %d, want 9", ctx.DirFallo)
	}

	delete(bus.faltantes, 9)
	in.Ejecutar(ctx, 10, bus)
	if got := DecodificarEstado(ctx.SR).Trap; got != TrapHalt {
		t.Errorf("trap al reintentar got %v, want %v", got, TrapHalt)
	}
}

func TestInterpretePilaLIFO(t *testing.T) {
	in, ctx, bus := cargar(t, "SET 0 1\nSET 1 2\nPUSH 0\nPUSH 1\nPOP 2\nPOP 3\nHALT\n")

	in.Ejecutar(ctx, 10, bus)

	if ctx.Registros[2] != 2 || ctx.Registros[3] != 1 {
		t.Errorf("registros got %v, want r2=2 r3=1", ctx.Registros)
	}
	if ctx.SP != len(ctx.Pila) {
		t.Errorf("SP got %d, want %d", ctx.SP, len(ctx.Pila))
	}
}

func TestCargarAsignaVentanasDisjuntas(t *testing.T) {
	in := NuevoInterprete()
	a, _ := ParsearPrograma(strings.NewReader("NOOP\nHALT\n"))
	b, _ := ParsearPrograma(strings.NewReader("NOOP\nNOOP\nNOOP\nHALT\n"))

	baseA, limA := in.Cargar(a)
	baseB, limB := in.Cargar(b)

	if baseA != 0 || limA != 2 {
		t.Errorf("A got [%d,+%d), want [0,+2)", baseA, limA)
	}
	if baseB != 2 || limB != 4 {
		t.Errorf("B got [%d,+%d), want [2,+4)", baseB, limB)
	}
}
