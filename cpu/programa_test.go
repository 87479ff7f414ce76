package cpu

import (
	"strings"
	"testing"
)

func TestParsearPrograma(t *testing.T) {
	fuente := `# suma dos datos
LOAD 0 0
load 1 1
ADD 0 1
GOTO 5     # alias de JUMP
NOOP
EXIT
.datos
3 4
-1
`
	p, err := ParsearPrograma(strings.NewReader(fuente))
	if err != nil {
		t.Fatalf("ParsearPrograma: %v", err)
	}

	if len(p.Instrucciones) != 6 {
		t.Fatalf("instrucciones got %d, want 6", len(p.Instrucciones))
	}
	if p.Instrucciones[1].Opcode != OpLoad {
		t.Errorf("mnemónico en minúsculas got opcode %d, want %d", p.Instrucciones[1].Opcode, OpLoad)
	}
	if p.Instrucciones[3].Opcode != OpJump || p.Instrucciones[3].Args[0] != 5 {
		t.Errorf("GOTO got %+v, want JUMP 5", p.Instrucciones[3])
	}
	if p.Instrucciones[5].Opcode != OpHalt {
		t.Errorf("EXIT got opcode %d, want %d", p.Instrucciones[5].Opcode, OpHalt)
	}

	wantDatos := []int{3, 4, 0xffff}
	if len(p.Datos) != len(wantDatos) {
		t.Fatalf("datos got %v, want %v", p.Datos, wantDatos)
	}
	for i := range wantDatos {
		if p.Datos[i] != wantDatos[i] {
			t.Errorf("datos[%d] got %d, want %d", i, p.Datos[i], wantDatos[i])
		}
	}
	if p.Tamanio != 3 {
		t.Errorf("Tamanio got %d, want 3", p.Tamanio)
	}
}

func TestParsearProgramaTamanioDeclarado(t *testing.T) {
	p, err := ParsearPrograma(strings.NewReader(".tamanio 40\nHALT\n.datos\n1 2\n"))
	if err != nil {
		t.Fatalf("ParsearPrograma: %v", err)
	}
	if p.Tamanio != 40 {
		t.Errorf("Tamanio got %d, want 40", p.Tamanio)
	}
}

func TestParsearProgramaMnemonicoDesconocido(t *testing.T) {
	p, err := ParsearPrograma(strings.NewReader("MULT 1 2\n"))
	if err != nil {
		t.Fatalf("un mnemónico desconocido no debería fallar al cargar: %v", err)
	}
	if p.Instrucciones[0].Opcode != OpInvalida {
		t.Errorf("opcode got %d, want %d", p.Instrucciones[0].Opcode, OpInvalida)
	}
}

func TestParsearProgramaErrores(t *testing.T) {
	tests := []struct {
		name   string
		fuente string
	}{
		{"faltan argumentos", "SET 1\n"},
		{"argumento no numérico", "JUMP fin\n"},
		{"registro inexistente", "PUSH 4\n"},
		{"dato inválido", ".datos\n1 dos\n"},
		{"tamaño inválido", ".tamanio -3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsearPrograma(strings.NewReader(tt.fuente)); err == nil {
				t.Errorf("ParsearPrograma(%q) got nil error, want error", tt.fuente)
			}
		})
	}
}
