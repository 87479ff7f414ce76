package kernel

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sisoputnfrba/tp-simulador-vm/cpu"
	"github.com/sisoputnfrba/tp-simulador-vm/memoria"
	"github.com/sisoputnfrba/tp-simulador-vm/utils"
)

// Cargador ubica el código de un programa en el espacio plano del motor
type Cargador interface {
	Cargar(p *cpu.Programa) (base, limite int)
}

// Trabajo agrupa el PCB con los archivos que el proceso mantiene abiertos
// durante la corrida.
type Trabajo struct {
	PCB *PCB

	imagen  *memoria.ArchivoImagen
	pila    *ArchivoPila
	entrada *os.File
	salida  *os.File
}

// Cerrar cierra todos los archivos del trabajo
func (t *Trabajo) Cerrar() error {
	var errs []error
	if t.imagen != nil {
		errs = append(errs, t.imagen.Close())
	}
	if t.pila != nil {
		errs = append(errs, t.pila.Close())
	}
	if t.entrada != nil {
		errs = append(errs, t.entrada.Close())
	}
	if t.salida != nil {
		errs = append(errs, t.salida.Close())
	}
	return errors.Join(errs...)
}

// CargarProgramas descubre los *.prog de dirProgramas en orden alfabético, los
// carga y los admite en el planificador. Un programa que no se puede cargar se
// saltea y la corrida sigue con el resto.
func CargarProgramas(dirProgramas, dirSalida string, cargador Cargador, plan *Planificador) ([]*Trabajo, error) {
	rutas, err := filepath.Glob(filepath.Join(dirProgramas, "*.prog"))
	if err != nil {
		return nil, fmt.Errorf("error buscando programas en %s: %w", dirProgramas, err)
	}
	if _, err := os.Stat(dirProgramas); err != nil {
		return nil, fmt.Errorf("directorio de programas inaccesible: %w", err)
	}
	if err := os.MkdirAll(dirSalida, 0755); err != nil {
		return nil, fmt.Errorf("error al crear directorio de salida: %w", err)
	}

	var trabajos []*Trabajo
	for _, ruta := range rutas {
		trabajo, err := cargarPrograma(ruta, dirSalida, cargador, plan)
		if err != nil {
			utils.ErrorLog.Error("No se pudo cargar el programa, se saltea", "archivo", ruta, "error", err)
			continue
		}
		trabajos = append(trabajos, trabajo)
	}

	utils.InfoLog.Info("Programas cargados", "encontrados", len(rutas), "admitidos", len(trabajos))
	return trabajos, nil
}

func cargarPrograma(ruta, dirSalida string, cargador Cargador, plan *Planificador) (_ *Trabajo, err error) {
	nombre := strings.TrimSuffix(filepath.Base(ruta), filepath.Ext(ruta))

	fuente, err := os.Open(ruta)
	if err != nil {
		return nil, err
	}
	programa, err := cpu.ParsearPrograma(fuente)
	fuente.Close()
	if err != nil {
		return nil, err
	}

	t := &Trabajo{}
	defer func() {
		if err != nil {
			t.Cerrar()
		}
	}()

	t.imagen, err = memoria.CrearArchivoImagen(filepath.Join(dirSalida, nombre+".img"), programa.Datos, programa.Tamanio)
	if err != nil {
		return nil, err
	}
	t.pila, err = CrearArchivoPila(filepath.Join(dirSalida, nombre+".st"))
	if err != nil {
		return nil, err
	}
	t.salida, err = os.Create(filepath.Join(dirSalida, nombre+".out"))
	if err != nil {
		return nil, fmt.Errorf("error al crear salida: %w", err)
	}

	var entrada io.Reader
	t.entrada, err = os.Open(filepath.Join(filepath.Dir(ruta), nombre+".in"))
	switch {
	case err == nil:
		entrada = t.entrada
	case errors.Is(err, fs.ErrNotExist):
		t.entrada, err = nil, nil
	default:
		return nil, fmt.Errorf("error al abrir entrada: %w", err)
	}

	base, limite := cargador.Cargar(programa)
	t.PCB = NuevoPCB(nombre, base, limite, t.pila, entrada, t.salida)
	if err = plan.Admitir(t.PCB, t.imagen); err != nil {
		return nil, err
	}

	utils.InfoLog.Info("Programa cargado",
		"pid", t.PCB.PID,
		"programa", nombre,
		"base", base,
		"limite", limite,
		"tamanio", programa.Tamanio)
	return t, nil
}
