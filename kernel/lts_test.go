package kernel

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sisoputnfrba/tp-simulador-vm/cpu"
	"github.com/sisoputnfrba/tp-simulador-vm/memoria"
)

func escribirArchivo(t *testing.T, dir, nombre, contenido string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, nombre), []byte(contenido), 0644); err != nil {
		t.Fatal(err)
	}
}

func leerArchivo(t *testing.T, ruta string) string {
	t.Helper()
	contenido, err := os.ReadFile(ruta)
	if err != nil {
		t.Fatal(err)
	}
	return string(contenido)
}

func TestCargarProgramasYCorrer(t *testing.T) {
	dirProgramas := t.TempDir()
	dirSalida := filepath.Join(t.TempDir(), "salida")

	escribirArchivo(t, dirProgramas, "suma.prog", "LOAD 0 0\nLOAD 1 1\nADD 0 1\nOUT 0\nHALT\n.datos\n3 4\n")
	escribirArchivo(t, dirProgramas, "eco.prog", "IN 2\nOUT 2\nEXIT\n")
	escribirArchivo(t, dirProgramas, "eco.in", "5\n")
	escribirArchivo(t, dirProgramas, "rota.prog", "ADD 0\n")
	escribirArchivo(t, dirProgramas, "notas.txt", "no es un programa")

	interprete := cpu.NuevoInterprete()
	plan := NuevoPlanificador(parametrosPrueba(), interprete, memoria.PoliticaLRU{})

	trabajos, err := CargarProgramas(dirProgramas, dirSalida, interprete, plan)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		for _, tr := range trabajos {
			tr.Cerrar()
		}
	}()

	if len(trabajos) != 2 {
		t.Fatalf("trabajos got %d, want 2 (el programa roto se saltea)", len(trabajos))
	}
	if trabajos[0].PCB.Nombre != "eco" || trabajos[0].PCB.PID != 0 {
		t.Errorf("primer trabajo got %v, want eco con PID 0", trabajos[0].PCB)
	}
	if trabajos[1].PCB.Nombre != "suma" || trabajos[1].PCB.PID != 1 {
		t.Errorf("segundo trabajo got %v, want suma con PID 1", trabajos[1].PCB)
	}

	plan.Correr(nil)

	for _, tr := range trabajos {
		if tr.PCB.Estado != EstadoExit {
			t.Errorf("%s quedó en %s", tr.PCB.Nombre, tr.PCB.Estado)
		}
	}
	if got, want := leerArchivo(t, filepath.Join(dirSalida, "eco.out")), "5\neco: Finalizado\n"; got != want {
		t.Errorf("eco.out got %q, want %q", got, want)
	}
	if got, want := leerArchivo(t, filepath.Join(dirSalida, "suma.out")), "7\nsuma: Finalizado\n"; got != want {
		t.Errorf("suma.out got %q, want %q", got, want)
	}
	if got, want := leerArchivo(t, filepath.Join(dirSalida, "suma.img")), "00003\n00004\n"; got != want {
		t.Errorf("suma.img got %q, want %q", got, want)
	}
	if _, err := os.Stat(filepath.Join(dirSalida, "rota.out")); err == nil {
		t.Error("no debería crearse salida para un programa que no cargó")
	}
	if plan.Memoria().MarcosLibres() != parametrosPrueba().CantidadMarcos {
		t.Errorf("quedaron marcos ocupados al terminar")
	}
}

func TestProgramaSinEntradaTermina(t *testing.T) {
	dirProgramas := t.TempDir()
	dirSalida := t.TempDir()
	escribirArchivo(t, dirProgramas, "lee.prog", "IN 0\nOUT 0\nHALT\n")

	interprete := cpu.NuevoInterprete()
	plan := NuevoPlanificador(parametrosPrueba(), interprete, memoria.PoliticaFIFO{})
	trabajos, err := CargarProgramas(dirProgramas, dirSalida, interprete, plan)
	if err != nil {
		t.Fatal(err)
	}
	defer trabajos[0].Cerrar()

	plan.Correr(nil)

	pcb := trabajos[0].PCB
	if pcb.Estado != EstadoExit {
		t.Fatalf("Estado got %s, want %s", pcb.Estado, EstadoExit)
	}
	if got := leerArchivo(t, filepath.Join(dirSalida, "lee.out")); !strings.HasPrefix(got, "Error: no hay entrada para leer, pc = 1") {
		t.Errorf("lee.out got %q, want el diagnóstico de entrada", got)
	}
}

func TestCargarProgramasDirectorioInexistente(t *testing.T) {
	plan := NuevoPlanificador(parametrosPrueba(), cpu.NuevoInterprete(), memoria.PoliticaFIFO{})
	_, err := CargarProgramas(filepath.Join(t.TempDir(), "no-existe"), t.TempDir(), cpu.NuevoInterprete(), plan)
	if err == nil {
		t.Error("got nil error, want error")
	}
}
