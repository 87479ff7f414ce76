package memoria

import (
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/sisoputnfrba/tp-simulador-vm/utils"
)

// Gestor es el administrador de memoria virtual: mantiene la tabla de marcos,
// la memoria física y las tablas de páginas de cada proceso. No es seguro para
// uso concurrente; lo usa sólo el planificador.
type Gestor struct {
	tamPagina int
	marcos    []Marco
	fisica    []int
	politica  Politica
	reloj     func() int

	espacios map[int]*espacio
	metricas map[int]*Metricas
}

// NuevoGestor crea la memoria física con cantMarcos marcos de tamPagina
// palabras. reloj devuelve el tiempo simulado usado para las marcas de carga y
// de referencia.
func NuevoGestor(cantMarcos, tamPagina int, politica Politica, reloj func() int) *Gestor {
	marcos := make([]Marco, cantMarcos)
	for i := range marcos {
		marcos[i].Indice = i
	}

	utils.InfoLog.Info("Memoria física inicializada",
		"marcos", cantMarcos,
		"tam_pagina", tamPagina,
		"algoritmo", politica.Nombre())

	return &Gestor{
		tamPagina: tamPagina,
		marcos:    marcos,
		fisica:    make([]int, cantMarcos*tamPagina),
		politica:  politica,
		reloj:     reloj,
		espacios:  make(map[int]*espacio),
		metricas:  make(map[int]*Metricas),
	}
}

func (g *Gestor) TamPagina() int { return g.tamPagina }

func (g *Gestor) Politica() Politica { return g.politica }

// Registrar crea el espacio de direcciones del proceso con todas sus páginas
// inválidas. El tamaño del espacio es el de la imagen.
func (g *Gestor) Registrar(pid int, imagen Imagen) error {
	if _, existe := g.espacios[pid]; existe {
		return fmt.Errorf("%w: pid %d", ErrProcesoExistente, pid)
	}

	tamanio := imagen.Tamanio()
	paginas := (tamanio + g.tamPagina - 1) / g.tamPagina
	tabla := make([]EntradaTabla, paginas)
	for i := range tabla {
		tabla[i] = EntradaTabla{Pagina: i, Marco: -1}
	}

	g.espacios[pid] = &espacio{tabla: tabla, imagen: imagen, tamanio: tamanio}
	g.metricasDe(pid)

	utils.InfoLog.Info(fmt.Sprintf("## PID: %d - Espacio de direcciones creado - Tamaño: %d - Páginas: %d", pid, tamanio, paginas))
	return nil
}

// PaginaDe devuelve la página lógica de una dirección
func (g *Gestor) PaginaDe(dir int) int {
	return dir / g.tamPagina
}

// Traducir convierte una dirección lógica del proceso en física. Un acierto
// actualiza la marca de última referencia del marco y, si es escritura, lo
// marca como modificado.
func (g *Gestor) Traducir(pid int, dir int, escritura bool) (int, error) {
	esp, existe := g.espacios[pid]
	if !existe {
		return 0, fmt.Errorf("%w: pid %d", ErrProcesoInexistente, pid)
	}
	if dir < 0 || dir >= esp.tamanio {
		return 0, fmt.Errorf("%w: pid %d dirección %d, tamaño %d", ErrFueraDeRango, pid, dir, esp.tamanio)
	}

	pagina := dir / g.tamPagina
	desplazamiento := dir % g.tamPagina

	entrada := esp.tabla[pagina]
	if !entrada.Valido {
		return 0, fmt.Errorf("%w: pid %d página %d", ErrFalloPagina, pid, pagina)
	}

	marco := &g.marcos[entrada.Marco]
	marco.UltimaReferencia = g.reloj()
	if escritura {
		marco.Modificado = true
	}

	return entrada.Marco*g.tamPagina + desplazamiento, nil
}

// LeerPalabra lee una palabra de la memoria del proceso
func (g *Gestor) LeerPalabra(pid int, dir int) (int, error) {
	fisica, err := g.Traducir(pid, dir, false)
	if err != nil {
		return 0, err
	}
	g.metricasDe(pid).Lecturas++
	return g.fisica[fisica], nil
}

// EscribirPalabra escribe una palabra en la memoria del proceso
func (g *Gestor) EscribirPalabra(pid int, dir int, valor int) error {
	fisica, err := g.Traducir(pid, dir, true)
	if err != nil {
		return err
	}
	g.metricasDe(pid).Escrituras++
	g.fisica[fisica] = valor
	return nil
}

// ResolverFallo carga la página pedida en un marco libre o, si no hay, en el
// marco que elija la política. Si la imagen falla, el marco queda libre y la
// tabla del proceso no cambia.
func (g *Gestor) ResolverFallo(pid int, pagina int) error {
	esp, existe := g.espacios[pid]
	if !existe {
		return fmt.Errorf("%w: pid %d", ErrProcesoInexistente, pid)
	}
	if pagina < 0 || pagina >= len(esp.tabla) {
		return fmt.Errorf("%w: pid %d página %d", ErrFueraDeRango, pid, pagina)
	}
	if esp.tabla[pagina].Valido {
		return nil
	}

	g.metricasDe(pid).FallosPagina++
	utils.InfoLog.Info(fmt.Sprintf("## PID: %d - Fallo de página - Página: %d", pid, pagina))

	indice := g.buscarMarcoLibre()
	if indice < 0 {
		indice = g.politica.ElegirVictima(g.marcos)
		if indice < 0 {
			return ErrSinVictima
		}
		if err := g.desalojar(indice); err != nil {
			return err
		}
	}

	contenido := g.contenidoMarco(indice)
	if err := esp.imagen.LeerPagina(pagina, contenido); err != nil {
		clear(contenido)
		return fmt.Errorf("no se pudo cargar la página %d del pid %d: %w", pagina, pid, err)
	}

	ahora := g.reloj()
	g.marcos[indice] = Marco{
		Indice:           indice,
		Ocupado:          true,
		PID:              pid,
		Pagina:           pagina,
		Carga:            ahora,
		UltimaReferencia: ahora,
	}
	esp.tabla[pagina] = EntradaTabla{Pagina: pagina, Valido: true, Marco: indice}
	g.metricasDe(pid).Subidas++

	utils.InfoLog.Info(fmt.Sprintf("## PID: %d - Página %d cargada en marco %d", pid, pagina, indice))
	return nil
}

func (g *Gestor) buscarMarcoLibre() int {
	for i := range g.marcos {
		if !g.marcos[i].Ocupado {
			return i
		}
	}
	return -1
}

func (g *Gestor) contenidoMarco(indice int) []int {
	inicio := indice * g.tamPagina
	return g.fisica[inicio : inicio+g.tamPagina]
}

// desalojar baja la víctima a su imagen si está modificada, invalida su
// entrada y deja el marco libre.
func (g *Gestor) desalojar(indice int) error {
	victima := g.marcos[indice]
	duenio, existe := g.espacios[victima.PID]
	if !existe {
		return fmt.Errorf("marco %d ocupado por pid %d sin espacio: %w", indice, victima.PID, ErrProcesoInexistente)
	}

	if victima.Modificado {
		if err := duenio.imagen.EscribirPagina(victima.Pagina, g.contenidoMarco(indice)); err != nil {
			return fmt.Errorf("no se pudo bajar la página %d del pid %d: %w", victima.Pagina, victima.PID, err)
		}
		g.metricasDe(victima.PID).Bajadas++
		utils.InfoLog.Info(fmt.Sprintf("## PID: %d - Página modificada escrita en imagen - Página: %d", victima.PID, victima.Pagina))
	}

	duenio.tabla[victima.Pagina] = EntradaTabla{Pagina: victima.Pagina, Marco: -1}
	g.metricasDe(victima.PID).Reemplazos++
	g.marcos[indice] = Marco{Indice: indice}
	clear(g.contenidoMarco(indice))

	utils.InfoLog.Info(fmt.Sprintf("## PID: %d - Reemplazo (%s) - Marco: %d - Página: %d", victima.PID, g.politica.Nombre(), indice, victima.Pagina))
	return nil
}

// LiberarProceso baja las páginas modificadas, libera los marcos del proceso y
// descarta su espacio. Los marcos se liberan aunque falle alguna escritura.
func (g *Gestor) LiberarProceso(pid int) error {
	esp, existe := g.espacios[pid]
	if !existe {
		return fmt.Errorf("%w: pid %d", ErrProcesoInexistente, pid)
	}

	var errs []error
	liberados := 0
	for _, entrada := range esp.tabla {
		if !entrada.Valido {
			continue
		}
		marco := g.marcos[entrada.Marco]
		if marco.Modificado {
			if err := esp.imagen.EscribirPagina(entrada.Pagina, g.contenidoMarco(entrada.Marco)); err != nil {
				errs = append(errs, err)
			} else {
				g.metricasDe(pid).Bajadas++
			}
		}
		g.marcos[entrada.Marco] = Marco{Indice: entrada.Marco}
		clear(g.contenidoMarco(entrada.Marco))
		liberados++
	}

	delete(g.espacios, pid)
	utils.InfoLog.Info("Memoria liberada completamente", "pid", pid, "marcos_liberados", liberados)

	return errors.Join(errs...)
}

// Marcos devuelve una copia de la tabla de marcos
func (g *Gestor) Marcos() []Marco {
	return slices.Clone(g.marcos)
}

// Tabla devuelve una copia de la tabla de páginas del proceso
func (g *Gestor) Tabla(pid int) []EntradaTabla {
	esp, existe := g.espacios[pid]
	if !existe {
		return nil
	}
	return slices.Clone(esp.tabla)
}

// MarcosLibres cuenta los marcos libres
func (g *Gestor) MarcosLibres() int {
	libres := 0
	for _, m := range g.marcos {
		if !m.Ocupado {
			libres++
		}
	}
	return libres
}

// VerificarInvariantes comprueba que los marcos ocupados y las entradas
// válidas se correspondan uno a uno.
func (g *Gestor) VerificarInvariantes() error {
	referencias := make([]int, len(g.marcos))

	for pid, esp := range g.espacios {
		for _, entrada := range esp.tabla {
			if !entrada.Valido {
				continue
			}
			if entrada.Marco < 0 || entrada.Marco >= len(g.marcos) {
				return fmt.Errorf("pid %d página %d apunta a marco inexistente %d", pid, entrada.Pagina, entrada.Marco)
			}
			referencias[entrada.Marco]++
			m := g.marcos[entrada.Marco]
			if !m.Ocupado || m.PID != pid || m.Pagina != entrada.Pagina {
				return fmt.Errorf("pid %d página %d apunta a marco %d con dueño (%d, %d, ocupado=%v)",
					pid, entrada.Pagina, entrada.Marco, m.PID, m.Pagina, m.Ocupado)
			}
		}
	}

	for i, m := range g.marcos {
		if referencias[i] > 1 {
			return fmt.Errorf("marco %d referenciado por %d entradas", i, referencias[i])
		}
		if m.Ocupado && referencias[i] == 0 {
			return fmt.Errorf("marco %d ocupado por pid %d página %d sin entrada válida", i, m.PID, m.Pagina)
		}
	}
	return nil
}
